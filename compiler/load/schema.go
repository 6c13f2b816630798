// Package load reads the entity description file consumed by the code
// generator.
//
//	package: models
//	entities:
//	  - name: Post
//	    table: posts
//	    id: id
//	    created_at: created_at
//	    fields:
//	      - {name: id, type: int64, auto: true}
//	      - {name: user_id, type: int64}
//	      - {name: title, type: string}
//	      - {name: views, type: int64, optional: true}
//	      - {name: created_at, type: time, optional: true, readonly: true}
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is a loaded entity description file.
type File struct {
	Package  string    `yaml:"package,omitempty"`
	Entities []*Schema `yaml:"entities"`
	Pos      string    `yaml:"-"`
}

// Schema describes one entity and the table it maps to. The column
// settings are optional; an empty one leaves the column out of the
// entity contract.
type Schema struct {
	Name       string   `yaml:"name"`
	Table      string   `yaml:"table,omitempty"`
	Comment    string   `yaml:"comment,omitempty"`
	ID         string   `yaml:"id,omitempty"`
	ForeignKey string   `yaml:"foreign_key,omitempty"`
	CreatedAt  string   `yaml:"created_at,omitempty"`
	UpdatedAt  string   `yaml:"updated_at,omitempty"`
	DeletedAt  string   `yaml:"deleted_at,omitempty"`
	CreatorID  string   `yaml:"creator_id,omitempty"`
	EditorID   string   `yaml:"editor_id,omitempty"`
	Fields     []*Field `yaml:"fields"`
}

// Field describes one column.
type Field struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Comment string `yaml:"comment,omitempty"`
	// Optional fields are pointers, or a field.Value for json, and are
	// left out of writes while nil.
	Optional bool `yaml:"optional,omitempty"`
	// Auto fields are left out of writes while they hold the zero value.
	Auto bool `yaml:"auto,omitempty"`
	// ReadOnly fields are decoded but never written.
	ReadOnly bool `yaml:"readonly,omitempty"`
}

// Load reads the file at path.
func Load(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read %s: %w", path, err)
	}
	f, err := Parse(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", path, err)
	}
	f.Pos = path
	return f, nil
}

// Parse decodes an entity description. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	f := &File{}
	if err := dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty entity file")
		}
		return nil, err
	}
	if len(f.Entities) == 0 {
		return nil, errors.New("no entities")
	}
	for i, s := range f.Entities {
		if s == nil || s.Name == "" {
			return nil, fmt.Errorf("entity #%d: missing name", i)
		}
	}
	return f, nil
}

// Marshal encodes f back to YAML.
func Marshal(f *File) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
