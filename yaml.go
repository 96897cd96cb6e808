package schemareg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a single YAML document into the shapes DecodeJSON
// produces: map[string]any, []any, string, json.Number, bool and nil. A
// mapping with a repeated key fails with ErrDuplicateKey, as does a
// non-scalar key. Timestamps stay strings.
func DecodeYAML(data []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("yaml: more than one document")
		}
		return nil, err
	}
	d := yamlDecoder{expanding: map[*yaml.Node]bool{}}
	return d.value(&root)
}

// maxYAMLAliases bounds alias expansions per document; nested aliases can
// otherwise grow the decoded value exponentially.
const maxYAMLAliases = 10000

type yamlDecoder struct {
	expanding map[*yaml.Node]bool
	aliases   int
}

func (d *yamlDecoder) value(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.value(n.Content[0])
	case yaml.AliasNode:
		if d.expanding[n.Alias] {
			return nil, newError(CodeInvalidDefinition, fmt.Sprintf("yaml: recursive alias at %d:%d", n.Line, n.Column), nil, nil)
		}
		if d.aliases++; d.aliases > maxYAMLAliases {
			return nil, newError(CodeInvalidDefinition, fmt.Sprintf("yaml: more than %d alias expansions", maxYAMLAliases), nil, nil)
		}
		d.expanding[n.Alias] = true
		v, err := d.value(n.Alias)
		delete(d.expanding, n.Alias)
		return v, err
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		first := make(map[string]*yaml.Node, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, newError(CodeInvalidDefinition, fmt.Sprintf("yaml: non-scalar key at %d:%d", k.Line, k.Column), nil, nil)
			}
			if prev, dup := first[k.Value]; dup {
				return nil, newError(CodeDuplicateKey, fmt.Sprintf("yaml key %q at %d:%d (first at %d:%d)",
					k.Value, k.Line, k.Column, prev.Line, prev.Column), nil, nil)
			}
			first[k.Value] = k
			val, err := d.value(v)
			if err != nil {
				return nil, err
			}
			m[k.Value] = val
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.value(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, nil
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		// base prefixes (0x, 0o) and underscores are YAML syntax, not JSON
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return json.Number(strconv.FormatInt(i, 10)), nil
		}
		if u, err := strconv.ParseUint(n.Value, 0, 64); err == nil {
			return json.Number(strconv.FormatUint(u, 10)), nil
		}
		return json.Number(n.Value), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("yaml: %s at %d:%d has no JSON representation", n.Value, n.Line, n.Column)
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	}
	return n.Value, nil
}
