// Package stream walks JSON input as a token stream backed by go-json.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// Kind represents token kinds.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token is a single JSON token. Numbers are kept as text.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

// Source turns a go-json decoder into a Token stream that tells keys apart
// from string values.
type Source struct {
	dec   *j.Decoder
	stack []frame
}

// NewReader wraps r into a Source. Numbers are decoded with UseNumber.
func NewReader(r io.Reader) *Source {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &Source{dec: dec}
}

// NewBytes wraps b into a Source.
func NewBytes(b []byte) *Source { return NewReader(bytes.NewReader(b)) }

// valueDone marks the current object member as consumed.
func (s *Source) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

// Next returns the next token or io.EOF at the end of input.
func (s *Source) Next() (Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return Token{Kind: KindBeginObject}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return Token{Kind: KindBeginArray}, nil
		case '}', ']':
			if n := len(s.stack); n > 0 {
				s.stack = s.stack[:n-1]
			}
			s.valueDone()
			if v == '}' {
				return Token{Kind: KindEndObject}, nil
			}
			return Token{Kind: KindEndArray}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return Token{Kind: KindKey, String: v}, nil
			}
		}
		s.valueDone()
		return Token{Kind: KindString, String: v}, nil
	case bool:
		s.valueDone()
		return Token{Kind: KindBool, Bool: v}, nil
	case j.Number:
		s.valueDone()
		return Token{Kind: KindNumber, Number: string(v)}, nil
	case float64:
		s.valueDone()
		return Token{Kind: KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case nil:
		s.valueDone()
		return Token{Kind: KindNull}, nil
	}
	return Token{}, fmt.Errorf("stream: unexpected token %v", tok)
}

// DuplicateKeyError reports an object key seen twice in the same object.
type DuplicateKeyError struct {
	Path string // JSON Pointer of the object holding the key.
	Key  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("key %q duplicated at %s", e.Key, e.Path)
}

// DecodeOptions controls Decode.
type DecodeOptions struct {
	RejectDuplicateKeys bool
}

// Decode builds a single JSON value from src. Trailing content after the
// first value is an error.
func Decode(src *Source, opts DecodeOptions) (any, error) {
	tok, err := src.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	v, err := decodeValue(src, tok, opts, nil)
	if err != nil {
		return nil, err
	}
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("stream: trailing data after JSON value")
		}
		return nil, err
	}
	return v, nil
}

func decodeValue(src *Source, tok Token, opts DecodeOptions, path []string) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src, opts, path)
	case KindBeginArray:
		return decodeArray(src, opts, path)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func decodeObject(src *Source, opts DecodeOptions, path []string) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := src.Next()
		if err != nil {
			return nil, unexpected(err)
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		key := tok.String
		if _, dup := m[key]; dup && opts.RejectDuplicateKeys {
			return nil, &DuplicateKeyError{Path: Pointer(path), Key: key}
		}
		vt, err := src.Next()
		if err != nil {
			return nil, unexpected(err)
		}
		v, err := decodeValue(src, vt, opts, append(path, key))
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
}

func decodeArray(src *Source, opts DecodeOptions, path []string) (any, error) {
	arr := []any{}
	for {
		tok, err := src.Next()
		if err != nil {
			return nil, unexpected(err)
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok, opts, append(path, strconv.Itoa(len(arr))))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Pointer renders path segments as an RFC 6901 JSON Pointer ("" for the root).
func Pointer(path []string) string {
	if len(path) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, p := range path {
		b.WriteByte('/')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(p, "~", "~0"), "/", "~1"))
	}
	return b.String()
}
