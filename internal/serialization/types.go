package serialization

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// SerializerType names the payload format of an object node.
type SerializerType string

const (
	// JSON stores the payload as JSON text
	JSON SerializerType = "json"
	// GOB stores the payload as base64 of a gob stream
	GOB SerializerType = "gob"
)

// IsValid checks if the serializer type is supported
func (s SerializerType) IsValid() bool {
	switch s {
	case JSON, GOB:
		return true
	default:
		return false
	}
}

// CreateSerializer creates a new instance of the serializer
func (s SerializerType) CreateSerializer() Serializer {
	switch s {
	case JSON:
		return &JSONSerializer{}
	case GOB:
		return &GOBSerializer{}
	default:
		return nil
	}
}

// String returns the string representation of the serializer type
func (s SerializerType) String() string {
	return string(s)
}

// EncodeText turns serialized bytes into the string stored in the document.
func (s SerializerType) EncodeText(payload []byte) string {
	if s == GOB {
		return base64.StdEncoding.EncodeToString(payload)
	}
	return string(payload)
}

// DecodeText is the inverse of EncodeText.
func (s SerializerType) DecodeText(text string) ([]byte, error) {
	if s == GOB {
		return base64.StdEncoding.DecodeString(text)
	}
	return []byte(text), nil
}

// ParseSerializerType parses a string into a SerializerType and validates it
func ParseSerializerType(s string) (SerializerType, error) {
	serializerType := SerializerType(strings.ToLower(strings.TrimSpace(s)))

	if !serializerType.IsValid() {
		return "", fmt.Errorf("invalid serializer type '%s': must be one of [%s, %s]",
			s, JSON, GOB)
	}

	return serializerType, nil
}

// AllSerializerTypes returns all supported serializer types
func AllSerializerTypes() []SerializerType {
	return []SerializerType{JSON, GOB}
}
