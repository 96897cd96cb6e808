package schemareg

import (
	"strings"

	"github.com/reoring/schemareg/internal/engine"
)

// Dialect selects which JSON-Schema draft's keyword set and defaults apply.
type Dialect string

const (
	Draft04     Dialect = "draft-04"
	Draft06     Dialect = "draft-06"
	Draft07     Dialect = "draft-07"
	Draft201909 Dialect = "draft/2019-09"
	Draft202012 Dialect = "draft/2020-12"
)

// DefaultDialect applies when neither the caller nor the document names one.
const DefaultDialect = Draft07

// Dialects lists the supported dialects, oldest first.
var Dialects = []Dialect{Draft04, Draft06, Draft07, Draft201909, Draft202012}

// ParseDialect accepts a dialect tag ("draft-04", "draft/2020-12", ...) or a
// $schema URL such as "http://json-schema.org/draft-04/schema#".
func ParseDialect(s string) (Dialect, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimSuffix(t, "#")
	t = strings.TrimPrefix(t, "https://")
	t = strings.TrimPrefix(t, "http://")
	t = strings.TrimPrefix(t, "json-schema.org/")
	t = strings.TrimSuffix(t, "/schema")
	for _, d := range Dialects {
		if t == string(d) {
			return d, nil
		}
	}
	return "", newError(CodeUnsupportedDialect, "", map[string]string{"dialect": s}, nil)
}

// MetaSchemaVersionOf returns the document's declared $schema, if any.
func MetaSchemaVersionOf(schema any) (string, bool) {
	m, ok := schema.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := m["$schema"].(string)
	return s, ok
}

// DialectOf parses the document's declared $schema. It reports false when the
// document declares none or declares one that is not supported.
func DialectOf(schema any) (Dialect, bool) {
	s, ok := MetaSchemaVersionOf(schema)
	if !ok {
		return "", false
	}
	d, err := ParseDialect(s)
	if err != nil {
		return "", false
	}
	return d, true
}

func (d Dialect) draft() engine.Draft {
	switch d {
	case Draft04:
		return engine.Draft4
	case Draft06:
		return engine.Draft6
	case Draft201909:
		return engine.Draft2019
	case Draft202012:
		return engine.Draft2020
	default:
		return engine.Draft7
	}
}
