package schemareg

// EvaluateQuery narrows value to one of its top-level properties. A nil query
// returns value unchanged. This is a single-segment accessor, not a path
// language: the segment is a property name taken literally.
func EvaluateQuery(value any, query *string) (any, error) {
	if query == nil {
		return value, nil
	}
	m, ok := value.(map[string]any)
	if !ok || m == nil {
		return nil, newError(CodeUnsupportedQuery, "", map[string]string{"query": *query}, nil)
	}
	v, ok := m[*query]
	if !ok {
		return nil, newError(CodeQueryMiss, "", map[string]string{"query": *query}, nil)
	}
	return v, nil
}
