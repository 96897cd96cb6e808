package host

import (
	"github.com/reoring/schemareg"
)

// args is the decoded argument object of a host call.
type args map[string]any

func invalid(name, detail string) error {
	return schemareg.NewError(schemareg.CodeInvalidArgument, detail, map[string]string{"argument": name}, nil)
}

// str reads a string argument. Missing and null read as "".
func (a args) str(name string, required bool) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		if required {
			return "", invalid(name, "required")
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid(name, "want string")
	}
	if required && s == "" {
		return "", invalid(name, "required")
	}
	return s, nil
}

// optStr reads a string argument where null and missing mean absent.
func (a args) optStr(name string) (*string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, invalid(name, "want string or null")
	}
	return &s, nil
}

// optBool reads a boolean argument where null and missing mean absent.
func (a args) optBool(name string) (*bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, invalid(name, "want boolean or null")
	}
	return &b, nil
}

func (a args) engine() (schemareg.Engine, error) {
	s, err := a.str("engine", false)
	if err != nil {
		return "", err
	}
	return schemareg.ParseEngine(s)
}

// dependencies reads [{"id": ..., "value": ...}].
func (a args) dependencies() ([]schemareg.Dependency, error) {
	v, ok := a["dependencies"]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, invalid("dependencies", "want array")
	}
	out := make([]schemareg.Dependency, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, invalid("dependencies", "want objects")
		}
		id, ok := m["id"].(string)
		if !ok || id == "" {
			return nil, invalid("dependencies", "id is required")
		}
		out = append(out, schemareg.Dependency{ID: id, Schema: m["value"]})
	}
	return out, nil
}
