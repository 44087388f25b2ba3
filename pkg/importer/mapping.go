package importer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"powder-inventory/internal/models"
)

// DefaultMappingPath is used when ImportOptions names no mapping
const DefaultMappingPath = "configs/mapping/assets.yaml"

// MappingConfig represents the YAML mapping configuration
type MappingConfig struct {
	Version int                    `yaml:"version"`
	Sheets  map[string]SheetConfig `yaml:"sheets"`
}

// SheetConfig maps one worksheet's headers onto the nine asset fields.
// Aliases are keyed by field name (see models.FieldNames).
type SheetConfig struct {
	Aliases   map[string][]string `yaml:"aliases"`
	Types     map[string]string   `yaml:"types"`
	Defaults  map[string]string   `yaml:"defaults"`
	Required  []string            `yaml:"required"`
	UpdatedBy string              `yaml:"updated_by"`
}

// LoadMapping reads and validates a mapping file
func LoadMapping(path string) (*MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes and validates mapping YAML
func ParseMapping(data []byte) (*MappingConfig, error) {
	var m MappingConfig
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate rejects mappings that reference unknown fields or types
func (m *MappingConfig) Validate() error {
	if len(m.Sheets) == 0 {
		return fmt.Errorf("mapping defines no sheets")
	}
	for name, sc := range m.Sheets {
		for field := range sc.Aliases {
			if !isField(field) {
				return fmt.Errorf("sheet %q: unknown field %q in aliases", name, field)
			}
		}
		for field, typ := range sc.Types {
			if !isField(field) {
				return fmt.Errorf("sheet %q: unknown field %q in types", name, field)
			}
			switch typ {
			case "string", "date", "int":
			default:
				return fmt.Errorf("sheet %q: field %q has unsupported type %q", name, field, typ)
			}
		}
		for field := range sc.Defaults {
			if !isField(field) {
				return fmt.Errorf("sheet %q: unknown field %q in defaults", name, field)
			}
		}
		for _, field := range sc.Required {
			if !isField(field) {
				return fmt.Errorf("sheet %q: unknown required field %q", name, field)
			}
		}
	}
	return nil
}

// headerIndex maps upper-cased header text to field name. The field name
// and the store's own header always match, so exported sheets re-import.
func (sc SheetConfig) headerIndex() map[string]string {
	idx := make(map[string]string)
	for i, field := range models.FieldNames {
		idx[strings.ToUpper(field)] = field
		idx[strings.ToUpper(models.Header[i+1])] = field
	}
	for field, aliases := range sc.Aliases {
		for _, alias := range aliases {
			idx[strings.ToUpper(strings.TrimSpace(alias))] = field
		}
	}
	return idx
}

func isField(name string) bool {
	for _, f := range models.FieldNames {
		if f == name {
			return true
		}
	}
	return false
}
