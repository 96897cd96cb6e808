package stream

import (
	"errors"
	"io"
)

// refFrame buffers the references found inside one container. An object's own
// $ref is kept apart so it can be emitted ahead of its children no matter
// where the key sits in the document.
type refFrame struct {
	object   bool
	own      []string
	children []string
	key      string
}

// References collects every "$ref" string in document order: a node's own
// $ref first, then the references of its members in the order they appear.
// Duplicates are kept.
func References(src *Source) ([]string, error) {
	var stack []*refFrame
	var out []string

	flush := func(refs []string) {
		if n := len(stack); n > 0 {
			stack[n-1].children = append(stack[n-1].children, refs...)
			return
		}
		out = append(out, refs...)
	}

	for {
		tok, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case KindBeginObject, KindBeginArray:
			stack = append(stack, &refFrame{object: tok.Kind == KindBeginObject})
		case KindEndObject, KindEndArray:
			n := len(stack)
			if n == 0 {
				return nil, io.ErrUnexpectedEOF
			}
			top := stack[n-1]
			stack = stack[:n-1]
			flush(append(top.own, top.children...))
		case KindKey:
			stack[len(stack)-1].key = tok.String
		case KindString:
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].key == "$ref" {
				stack[n-1].own = append(stack[n-1].own, tok.String)
			}
		}
		// a completed member value clears the pending key
		if n := len(stack); n > 0 && tok.Kind != KindKey && tok.Kind != KindBeginObject && tok.Kind != KindBeginArray {
			stack[n-1].key = ""
		}
	}
	if len(stack) != 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
