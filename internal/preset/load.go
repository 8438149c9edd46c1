package preset

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/thellimist/schemacli/internal/log"
)

// Document is a loaded preset: a flat JSON object in file order.
type Document struct {
	Path   string
	Values *orderedmap.OrderedMap[string, any]
}

// Get returns the value stored under key. A JSON null is present with a
// nil value.
func (d *Document) Get(key string) (any, bool) {
	if d == nil || d.Values == nil {
		return nil, false
	}
	return d.Values.Get(key)
}

// Keys lists the document keys in file order.
func (d *Document) Keys() []string {
	if d == nil || d.Values == nil {
		return nil
	}
	keys := make([]string, 0, d.Values.Len())
	for pair := d.Values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// FileError is a preset file that could not be used.
type FileError struct {
	Source Source
	Err    error
}

func (e *FileError) Error() string {
	return "preset: " + e.Source.Path + " (from " + e.Source.Origin.String() + "): " + e.Err.Error()
}

func (e *FileError) Unwrap() error { return e.Err }

// Load reads and parses a preset file. The top-level value must be a JSON
// object; nested values are kept as decoded by encoding/json.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading preset")
	}
	return Parse(path, data)
}

// Parse decodes preset bytes. path is only recorded on the Document.
func Parse(path string, data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("preset must be a JSON object")
	}
	if !json.Valid(trimmed) {
		return nil, errors.New("preset is not valid JSON")
	}

	values := orderedmap.New[string, any]()
	if err := json.Unmarshal(trimmed, values); err != nil {
		return nil, errors.Wrap(err, "parsing preset")
	}
	return &Document{Path: path, Values: values}, nil
}

// Open loads the preset named by src. It returns (nil, nil) when src is
// empty, or when the file does not exist and ignoreMissing is set; the
// latter is logged as a warning.
func Open(src Source, ignoreMissing bool, logger *slog.Logger) (*Document, error) {
	if src.Path == "" {
		return nil, nil
	}

	doc, err := Load(src.Path)
	if err != nil {
		if ignoreMissing && errors.Is(err, fs.ErrNotExist) {
			if logger != nil {
				logger.Warn("preset file not found, skipping",
					slog.String(log.PathKey, src.Path),
					slog.String(log.SourceKey, src.Origin.String()))
			}
			return nil, nil
		}
		return nil, &FileError{Source: src, Err: err}
	}

	if logger != nil {
		logger.Debug("loaded preset",
			slog.String(log.PathKey, src.Path),
			slog.String(log.SourceKey, src.Origin.String()),
			slog.Int("keys", doc.Values.Len()))
	}
	return doc, nil
}
