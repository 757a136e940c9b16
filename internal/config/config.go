package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/edgewire/internal/protocol/schema"
	"github.com/pelletier/go-toml/v2"
)

// Catalog is the on-disk list of body schemas. The header is fixed and
// never appears in a catalog.
type Catalog struct {
	Messages []MessageConfig `toml:"message"`
}

type MessageConfig struct {
	Name   string        `toml:"name"`
	Code   int64         `toml:"code"`
	Fields []FieldConfig `toml:"field"`
}

type FieldConfig struct {
	Name  string `toml:"name"`
	Width int    `toml:"width"`
	Count int    `toml:"count"`
}

// LoadCatalog reads a catalog file and builds an immutable registry from it.
func LoadCatalog(path string) (*schema.Registry, error) {
	var cat Catalog
	if err := loadToml(path, &cat); err != nil {
		return nil, err
	}
	reg, err := cat.Registry()
	if err != nil {
		return nil, fmt.Errorf("catalog invalid (%s): %w", path, err)
	}
	return reg, nil
}

// ParseCatalog decodes catalog TOML from memory.
func ParseCatalog(data []byte) (*schema.Registry, error) {
	var cat Catalog
	if err := toml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("catalog parse failed: %w", err)
	}
	return cat.Registry()
}

// Registry validates the catalog and converts it to schema bodies.
func (c Catalog) Registry() (*schema.Registry, error) {
	if len(c.Messages) == 0 {
		return nil, fmt.Errorf("catalog has no messages")
	}
	bodies := make([]schema.Body, 0, len(c.Messages))
	for i, m := range c.Messages {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, fmt.Errorf("message[%d] missing name", i)
		}
		if m.Code < 0 || m.Code > 0xFFFF {
			return nil, fmt.Errorf("message %q code %d outside 0..65535", name, m.Code)
		}
		fields := make([]schema.Field, 0, len(m.Fields))
		for _, f := range m.Fields {
			count := f.Count
			if count == 0 {
				count = 1
			}
			fields = append(fields, schema.Field{Name: strings.TrimSpace(f.Name), Width: f.Width, Count: count})
		}
		bodies = append(bodies, schema.Body{
			Code:   uint16(m.Code),
			Schema: schema.Schema{Name: name, Fields: fields},
		})
	}
	return schema.NewRegistry(bodies...)
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
