package format

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a registry from its YAML interchange form, the layout
// serde-reflection tracers emit. Container order follows the document.
func ParseYAML(data []byte) (*Registry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, ValidationError{Field: "<document>", Message: err.Error(), Code: ErrMalformedDocument}
	}
	doc, err := fromYAMLNode(&root)
	if err != nil {
		return nil, err
	}
	d := &decoder{}
	return d.registry(doc)
}

func fromYAMLNode(y *yaml.Node) (*node, error) {
	switch y.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(y.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(y.Alias)
	case yaml.ScalarNode:
		return &node{kind: scalarNode, value: y.Value, number: y.Tag == "!!int", line: y.Line}, nil
	case yaml.SequenceNode:
		n := &node{kind: seqNode, line: y.Line}
		for _, c := range y.Content {
			item, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, item)
		}
		return n, nil
	case yaml.MappingNode:
		n := &node{kind: mapNode, line: y.Line}
		for i := 0; i+1 < len(y.Content); i += 2 {
			k := y.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, ValidationError{
					Field:   "<document>",
					Message: "line " + strconv.Itoa(k.Line) + ": mapping keys must be scalars",
					Code:    ErrMalformedDocument,
				}
			}
			value, err := fromYAMLNode(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			n.set(k.Value, value)
		}
		return n, nil
	}
	return nil, ValidationError{Field: "<document>", Message: "unsupported YAML node", Code: ErrMalformedDocument}
}

func toYAMLNode(n *node) *yaml.Node {
	switch n.kind {
	case scalarNode:
		tag := "!!str"
		if n.number {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: n.value}
	case seqNode:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.items {
			y.Content = append(y.Content, toYAMLNode(item))
		}
		return y
	}
	y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, key := range n.keys {
		keyTag := "!!str"
		if n.intKeys {
			keyTag = "!!int"
		}
		y.Content = append(y.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: keyTag, Value: key},
			toYAMLNode(n.values[i]))
	}
	return y
}

// MarshalYAML implements yaml.Marshaler.
func (r *Registry) MarshalYAML() (any, error) {
	return toYAMLNode(encodeRegistry(r)), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Registry) UnmarshalYAML(value *yaml.Node) error {
	doc, err := fromYAMLNode(value)
	if err != nil {
		return err
	}
	d := &decoder{}
	parsed, err := d.registry(doc)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// EncodeYAML renders the registry as a YAML document.
func EncodeYAML(reg *Registry) ([]byte, error) {
	return yaml.Marshal(reg)
}
