package serialization

import (
	"github.com/goccy/go-json"
)

// JSONSerializer implements the Serializer interface with goccy/go-json. The
// payload stays human readable inside the document, which makes it the default.
type JSONSerializer struct{}

func (j JSONSerializer) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j JSONSerializer) Deserialize(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
