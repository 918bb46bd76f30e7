package migration

import (
	"archive/tar"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrInvalidDocument is returned for input that is not a graph document
	ErrInvalidDocument = errors.New("migration: invalid document")

	// ErrInvalidOptions is returned for import options that cannot be applied
	ErrInvalidOptions = errors.New("migration: invalid import options")
)

const documentSchema = `{
  "type": "object",
  "required": ["V"],
  "properties": {
    "V": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "_id": {"type": ["string", "number", "null"]}
        }
      }
    },
    "E": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["_out", "_in"],
        "properties": {
          "_out": {"type": ["string", "number"]},
          "_in": {"type": ["string", "number"]},
          "_label": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// Validate checks a decoded document against the graph document schema
func Validate(raw any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}

// VerifyArchive checks archive integrity
func VerifyArchive(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	if _, err := readManifest(tar.NewReader(file)); err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("rewinding archive: %w", err)
	}
	if _, err := NewImporter(file, Archive, ImportOptions{}).Decode(); err != nil {
		return err
	}
	return nil
}
