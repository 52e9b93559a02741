package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

// Format is the encoding of a seed document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported seed file extension %q", filepath.Ext(path))
}

// DecodeEntities parses a document holding either a list of entities or an
// object with an "entities" list.
func DecodeEntities(data []byte, format Format, lenient bool) ([]types.Entity, error) {
	var list []types.Entity
	if err := decodeList(data, format, lenient, "entities", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// DecodeRelationships parses a document holding either a list of
// relationships or an object with a "relationships" list.
func DecodeRelationships(data []byte, format Format, lenient bool) ([]types.Relationship, error) {
	var list []types.Relationship
	if err := decodeList(data, format, lenient, "relationships", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// decodeList decodes into out, which must point to a slice. A top-level
// object is unwrapped through key.
func decodeList(data []byte, format Format, lenient bool, key string, out any) error {
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 {
			return nil
		}
		if err := decodeJSON(trimmed, key, out); err != nil {
			if !lenient {
				return err
			}
			repaired, rerr := jsonrepair.JSONRepair(string(trimmed))
			if rerr != nil {
				return fmt.Errorf("%w (repair failed: %v)", err, rerr)
			}
			return decodeJSON(bytes.TrimSpace([]byte(repaired)), key, out)
		}
		return nil
	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
		if len(root.Content) == 0 {
			return nil
		}
		doc := root.Content[0]
		if doc.Kind == yaml.MappingNode {
			doc = mappingValue(doc, key)
			if doc == nil {
				return nil
			}
		}
		if err := doc.Decode(out); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}

func decodeJSON(data []byte, key string, out any) error {
	if data[0] == '{' {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
		raw, ok := doc[key]
		if !ok {
			return nil
		}
		data = raw
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// FileSource reads seed documents from disk.
type FileSource struct {
	EntityFiles       []string
	RelationshipFiles []string
	Lenient           bool
}

// Name implements Source.
func (f *FileSource) Name() string { return "files" }

// Fetch reads all files concurrently. Records keep the order of the file
// lists.
func (f *FileSource) Fetch(ctx context.Context) (*Batch, error) {
	entities := make([][]types.Entity, len(f.EntityFiles))
	relationships := make([][]types.Relationship, len(f.RelationshipFiles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range f.EntityFiles {
		g.Go(func() error {
			data, format, err := readSeed(ctx, path)
			if err != nil {
				return err
			}
			list, err := DecodeEntities(data, format, f.Lenient)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			entities[i] = list
			return nil
		})
	}
	for i, path := range f.RelationshipFiles {
		g.Go(func() error {
			data, format, err := readSeed(ctx, path)
			if err != nil {
				return err
			}
			list, err := DecodeRelationships(data, format, f.Lenient)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			relationships[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Batch{}
	for _, list := range entities {
		b.Entities = append(b.Entities, list...)
	}
	for _, list := range relationships {
		b.Relationships = append(b.Relationships, list...)
	}
	return b, nil
}

func readSeed(ctx context.Context, path string) ([]byte, Format, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	format, err := FormatFor(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read seed file: %w", err)
	}
	return data, format, nil
}
