package schemareg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/reoring/schemareg/internal/stream"
)

// DecodeJSON decodes a single JSON value. Numbers are kept as json.Number and
// an object with a repeated key fails with ErrDuplicateKey, since a decoded
// map would silently keep only one of the values.
func DecodeJSON(data []byte) (any, error) {
	return DecodeJSONReader(bytes.NewReader(data))
}

// DecodeJSONReader is DecodeJSON over a reader.
func DecodeJSONReader(r io.Reader) (any, error) {
	v, err := stream.Decode(stream.NewReader(r), stream.DecodeOptions{RejectDuplicateKeys: true})
	if err != nil {
		var dup *stream.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, newError(CodeDuplicateKey, dup.Error(), nil, nil)
		}
		return nil, err
	}
	return v, nil
}

// LoadDocument reads a JSON or YAML file, chosen by extension (.yaml, .yml).
func LoadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err := DecodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return v, nil
	default:
		v, err := DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return v, nil
	}
}
