package serialization

import (
	"bytes"
	"encoding/gob"
)

// GOBSerializer implements the Serializer interface using the encoding/gob package.
// It round-trips unexported-free Go structs exactly, including values JSON
// cannot represent such as NaN fields, at the cost of an opaque payload.
type GOBSerializer struct{}

func (g GOBSerializer) Serialize(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g GOBSerializer) Deserialize(data []byte, v any) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}
