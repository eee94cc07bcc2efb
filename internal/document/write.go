package document

import (
	"bytes"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// WriteOptions controls how a document tree is rendered as JSON text.
type WriteOptions struct {
	// Indent is repeated once per nesting level. Empty means compact output.
	Indent string
}

// Write renders the value of n as JSON. List items are written as single-key
// objects keyed by their label.
func (n *Node) Write(w io.Writer, opts WriteOptions) error {
	var buf bytes.Buffer
	if err := writeValue(&buf, n, opts.Indent, 0); err != nil {
		return err
	}
	if opts.Indent != "" {
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// MarshalJSON implements json.Marshaler with compact output.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, n, "", 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, n *Node, indent string, depth int) error {
	switch n.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if n.flag {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(n.text)
	case KindString:
		return writeString(buf, n.text)
	case KindMap:
		return writeMembers(buf, n.children, '{', '}', indent, depth, false)
	case KindList:
		return writeMembers(buf, n.children, '[', ']', indent, depth, true)
	}
	return nil
}

func writeMembers(buf *bytes.Buffer, children []*Node, open, close byte, indent string, depth int, wrap bool) error {
	buf.WriteByte(open)
	if len(children) == 0 {
		buf.WriteByte(close)
		return nil
	}
	for i, child := range children {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, indent, depth+1)
		if wrap {
			buf.WriteByte('{')
		}
		if err := writeString(buf, child.Name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if indent != "" {
			buf.WriteByte(' ')
		}
		if err := writeValue(buf, child, indent, depth+1); err != nil {
			return err
		}
		if wrap {
			buf.WriteByte('}')
		}
	}
	newline(buf, indent, depth)
	buf.WriteByte(close)
	return nil
}

func newline(buf *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, depth))
}

func writeString(buf *bytes.Buffer, s string) error {
	quoted, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(quoted)
	return nil
}
