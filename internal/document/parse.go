package document

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/hengadev/exprjson/internal/exprerr"
)

// ParseOptions controls how JSON text is read into a document tree.
type ParseOptions struct {
	// AllowTrailingCommas accepts a comma before a closing bracket or brace.
	AllowTrailingCommas bool
}

// Parse reads JSON text into a document tree. The top-level value must be an
// object; the returned root node is an unlabelled map. Every list element must
// be an object with exactly one key, which becomes the element's label.
func Parse(data []byte, opts ParseOptions) (*Node, error) {
	data, err := checkTrailingCommas(data, opts.AllowTrailingCommas)
	if err != nil {
		return nil, err
	}

	value, dataType, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, exprerr.NewMalformedDocumentError("$", err.Error())
	}
	if len(bytes.TrimSpace(data[end:])) > 0 {
		return nil, exprerr.NewMalformedDocumentError("$", fmt.Sprintf("unexpected data after offset %d", end))
	}
	if dataType != jsonparser.Object {
		return nil, exprerr.NewShapeMismatchError("$", "object", dataType.String(), exprerr.Decode)
	}

	root := &Node{kind: KindMap, index: map[string]int{}}
	if err := fillMap(root, value); err != nil {
		return nil, err
	}
	return root, nil
}

func parseValue(parent *Node, name string, value []byte, dataType jsonparser.ValueType) (*Node, error) {
	switch dataType {
	case jsonparser.Null:
		return Null(name), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return nil, exprerr.NewMalformedDocumentError(childPath(parent, name), err.Error())
		}
		return Bool(name, b), nil
	case jsonparser.Number:
		return Number(name, string(value)), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, exprerr.NewMalformedDocumentError(childPath(parent, name), err.Error())
		}
		return String(name, s), nil
	case jsonparser.Object:
		n := &Node{Name: name, kind: KindMap, index: map[string]int{}}
		n.parent, n.pos = parent, parent.Len()
		if err := fillMap(n, value); err != nil {
			return nil, err
		}
		n.parent = nil
		return n, nil
	case jsonparser.Array:
		n := &Node{Name: name, kind: KindList}
		n.parent, n.pos = parent, parent.Len()
		if err := fillList(n, value); err != nil {
			return nil, err
		}
		n.parent = nil
		return n, nil
	default:
		return nil, exprerr.NewMalformedDocumentError(childPath(parent, name), "unknown value type "+dataType.String())
	}
}

func fillMap(n *Node, data []byte) error {
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		label := string(key)
		if _, exists := n.index[label]; exists {
			return exprerr.NewDuplicateLabelError(n.Path(), label)
		}
		child, err := parseValue(n, label, value, dataType)
		if err != nil {
			return err
		}
		return n.Add(child)
	})
	return malformed(n, err)
}

func fillList(n *Node, data []byte) error {
	var firstErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if firstErr != nil {
			return
		}
		at := fmt.Sprintf("%s[%d]", n.Path(), len(n.children))
		if dataType != jsonparser.Object {
			firstErr = exprerr.NewShapeMismatchError(at, "labelled object", dataType.String(), exprerr.Decode)
			return
		}
		var item *Node
		count := 0
		firstErr = jsonparser.ObjectEach(value, func(key, inner []byte, innerType jsonparser.ValueType, _ int) error {
			count++
			if count > 1 {
				return exprerr.NewShapeMismatchError(at, "single labelled child", "multiple keys", exprerr.Decode)
			}
			var err error
			item, err = parseValue(n, string(key), inner, innerType)
			return err
		})
		if firstErr != nil {
			return
		}
		if item == nil {
			firstErr = exprerr.NewShapeMismatchError(at, "single labelled child", "empty object", exprerr.Decode)
			return
		}
		firstErr = n.Add(item)
	})
	if firstErr != nil {
		return malformed(n, firstErr)
	}
	return malformed(n, err)
}

// malformed reports raw parser errors against n and passes path errors through.
func malformed(n *Node, err error) error {
	var pathErr *exprerr.PathError
	if err == nil || errors.As(err, &pathErr) {
		return err
	}
	return exprerr.NewMalformedDocumentError(n.Path(), err.Error())
}

func childPath(parent *Node, name string) string {
	if parent == nil {
		return "$." + name
	}
	if parent.kind == KindList {
		return fmt.Sprintf("%s[%d]", parent.Path(), len(parent.children))
	}
	return parent.Path() + "." + name
}

// checkTrailingCommas finds commas directly followed by a closing bracket or
// brace outside string literals. When allowed they are blanked out in a copy of
// data, otherwise the first one is reported.
func checkTrailingCommas(data []byte, allow bool) ([]byte, error) {
	var out []byte
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(data) && isSpace(data[j]) {
				j++
			}
			if j == len(data) || (data[j] != ']' && data[j] != '}') {
				continue
			}
			if !allow {
				return nil, exprerr.NewMalformedDocumentError("$", fmt.Sprintf("trailing comma at offset %d", i))
			}
			if out == nil {
				out = make([]byte, len(data))
				copy(out, data)
			}
			out[i] = ' '
		}
	}
	if out == nil {
		return data, nil
	}
	return out, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
