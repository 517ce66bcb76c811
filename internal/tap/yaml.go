package tap

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// decodeDiagnostic decodes a YAML diagnostic block into an ordered
// Diagnostic. An empty block yields an empty, non-nil Diagnostic.
func decodeDiagnostic(text string) (Diagnostic, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return Diagnostic{}, nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return Diagnostic{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("diagnostic block must be a mapping, got %s", kindName(root.Kind))
	}
	c := &converter{active: map[*yaml.Node]bool{}, budget: maxDiagnosticNodes}
	v, err := c.value(root)
	if err != nil {
		return nil, err
	}
	d, _ := v.AsMap()
	return d, nil
}

// maxDiagnosticNodes bounds the number of values one diagnostic block may
// expand to once aliases are resolved.
const maxDiagnosticNodes = 100000

// converter turns a yaml.Node tree into Diagnostic values. Anchored nodes
// on the current path are tracked in active so an alias that points back
// into its own value is reported instead of followed.
type converter struct {
	active map[*yaml.Node]bool
	budget int
}

func (c *converter) spend() error {
	c.budget--
	if c.budget < 0 {
		return fmt.Errorf("diagnostic block expands to more than %d values", maxDiagnosticNodes)
	}
	return nil
}

func (c *converter) mapping(n *yaml.Node) (Diagnostic, error) {
	d := make(Diagnostic, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if key.Kind == yaml.AliasNode && key.Alias != nil {
			key = key.Alias
		}
		v, err := c.value(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		d = append(d, Entry{Key: key.Value, Value: v})
	}
	return d, nil
}

func (c *converter) value(n *yaml.Node) (Value, error) {
	if err := c.spend(); err != nil {
		return Value{}, err
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Anchor != "" {
		if c.active[n] {
			return Value{}, fmt.Errorf("alias *%s refers to an enclosing value", n.Anchor)
		}
		c.active[n] = true
		defer delete(c.active, n)
	}
	switch n.Kind {
	case yaml.MappingNode:
		d, err := c.mapping(n)
		if err != nil {
			return Value{}, err
		}
		return Nested(d), nil
	case yaml.SequenceNode:
		items := make([]Value, len(n.Content))
		for i, child := range n.Content {
			v, err := c.value(child)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return Value{}, nil
		}
		return Scalar(n.Value), nil
	default:
		return Value{}, nil
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
