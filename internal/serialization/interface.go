package serialization

// Serializer converts values the codec has no structural encoding for to and
// from bytes. The codec stores the bytes as the payload of an object node.
type Serializer interface {
	// Serialize returns the byte representation of v.
	Serialize(v any) ([]byte, error)

	// Deserialize populates the value v points to from data.
	Deserialize(data []byte, v any) error
}
