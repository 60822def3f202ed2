package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// yamlCatalog is the YAML representation of a Catalog.
type yamlCatalog struct {
	Objects       map[string]*yamlObject `yaml:"objects"`
	Relationships []Relationship         `yaml:"relationships"`
}

// yamlObject is the YAML representation of an Object.
type yamlObject struct {
	Fields     map[string]*yamlField `yaml:"fields"`
	Timestamps []string              `yaml:"timestamps,omitempty"`
}

// yamlField is the YAML representation of a Field.
type yamlField struct {
	Type string   `yaml:"type"`
	Enum []string `yaml:"enum,omitempty"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	return Parse(data)
}

// Parse builds a catalog from YAML bytes.
//
// YAML maps are unordered, so objects and fields are sorted by name to keep
// catalog iteration deterministic across loads.
func Parse(data []byte) (*Catalog, error) {
	var yc yamlCatalog
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	objectNames := make([]string, 0, len(yc.Objects))
	for name := range yc.Objects {
		objectNames = append(objectNames, name)
	}
	sort.Strings(objectNames)

	objects := make([]*Object, 0, len(objectNames))

	for _, name := range objectNames {
		yo := yc.Objects[name]
		obj := &Object{Name: name, Timestamps: yo.Timestamps}

		fieldNames := make([]string, 0, len(yo.Fields))
		for fn := range yo.Fields {
			fieldNames = append(fieldNames, fn)
		}
		sort.Strings(fieldNames)

		for _, fn := range fieldNames {
			yf := yo.Fields[fn]

			typ, err := ParseFieldType(yf.Type)
			if err != nil {
				return nil, fmt.Errorf("object %q field %q: %w", name, fn, err)
			}

			obj.Fields = append(obj.Fields, &Field{Name: fn, Type: typ, Enum: yf.Enum})
		}

		objects = append(objects, obj)
	}

	return NewCatalog(objects, yc.Relationships)
}
