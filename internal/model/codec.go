package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Brownie44l1/croprec-api/internal/apperr"
	"gopkg.in/yaml.v3"
)

// LabelCodec maps class indices to crop names. It is immutable.
type LabelCodec struct {
	names []string
}

// NewLabelCodec builds a codec whose index i decodes to names[i].
func NewLabelCodec(names []string) (*LabelCodec, error) {
	if len(names) == 0 {
		return nil, errors.New("label codec has no classes")
	}
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, fmt.Errorf("label codec: class %d has an empty name", i)
		}
		if prev, dup := seen[n]; dup {
			return nil, fmt.Errorf("label codec: duplicate class %q at %d and %d", n, prev, i)
		}
		seen[n] = i
	}
	return &LabelCodec{names: slices.Clone(names)}, nil
}

// LoadLabelCodec reads a JSON or YAML codec file.
func LoadLabelCodec(path string) (*LabelCodec, error) {
	var meta Metadata
	if err := decodeFile(path, &meta); err != nil {
		return nil, apperr.ArtifactLoad(path, err)
	}
	if len(meta.Features) > 0 && !slices.Equal(meta.Features, FeatureNames[:]) {
		return nil, apperr.ArtifactLoad(path,
			fmt.Errorf("feature order %v does not match %v", meta.Features, FeatureNames))
	}
	codec, err := NewLabelCodec(meta.Classes)
	if err != nil {
		return nil, apperr.ArtifactLoad(path, err)
	}
	return codec, nil
}

func (c *LabelCodec) Len() int { return len(c.names) }

// Decode returns the crop name for class index i.
func (c *LabelCodec) Decode(i int) (string, error) {
	if i < 0 || i >= len(c.names) {
		return "", &apperr.IndexOutOfRangeError{Index: i, Len: len(c.names)}
	}
	return c.names[i], nil
}

// Names returns a copy of the class names in index order.
func (c *LabelCodec) Names() []string { return slices.Clone(c.names) }

// decodeFile unmarshals a JSON or YAML file, picked by extension.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
	return nil
}
