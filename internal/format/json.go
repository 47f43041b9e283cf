package format

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// ParseJSON decodes a registry from its JSON interchange form. Container
// order follows the document.
func ParseJSON(data []byte) (*Registry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	doc, err := readJSONNode(dec)
	if err != nil {
		return nil, ValidationError{Field: "<document>", Message: err.Error(), Code: ErrMalformedDocument}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ValidationError{Field: "<document>", Message: "unexpected data after registry", Code: ErrMalformedDocument}
	}
	d := &decoder{}
	return d.registry(doc)
}

func readJSONNode(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &node{kind: mapNode}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.Newf("object key %v is not a string", keyTok)
				}
				value, err := readJSONNode(dec)
				if err != nil {
					return nil, err
				}
				n.set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := seq()
			for dec.More() {
				item, err := readJSONNode(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, errors.Newf("unexpected delimiter %v", t)
	case string:
		return scalar(t), nil
	case json.Number:
		return &node{kind: scalarNode, value: t.String(), number: true}, nil
	case bool:
		if t {
			return scalar("true"), nil
		}
		return scalar("false"), nil
	case nil:
		return nil, errors.New("null is not a valid format")
	}
	return nil, errors.Newf("unexpected token %v", tok)
}

// MarshalJSON renders the registry in its JSON interchange form with
// two-space indentation.
func (r *Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	writeJSONNode(&buf, encodeRegistry(r), 0)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces r with the registry decoded from data.
func (r *Registry) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

func writeJSONNode(buf *bytes.Buffer, n *node, indent int) {
	switch n.kind {
	case scalarNode:
		if n.number {
			buf.WriteString(n.value)
			return
		}
		writeJSONString(buf, n.value)
	case seqNode:
		if len(n.items) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteString("[\n")
		for i, item := range n.items {
			writeIndent(buf, indent+1)
			writeJSONNode(buf, item, indent+1)
			if i < len(n.items)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, indent)
		buf.WriteByte(']')
	case mapNode:
		if len(n.keys) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteString("{\n")
		for i, key := range n.keys {
			writeIndent(buf, indent+1)
			writeJSONString(buf, key)
			buf.WriteString(": ")
			writeJSONNode(buf, n.values[i], indent+1)
			if i < len(n.keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, indent)
		buf.WriteByte('}')
	}
}

func writeIndent(buf *bytes.Buffer, level int) {
	for i := 0; i < level; i++ {
		buf.WriteString("  ")
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode appends a newline
	buf.Truncate(buf.Len() - 1)
}
