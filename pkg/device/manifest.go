package device

import (
	"fmt"
	"os"

	"github.com/csrlink/csrlink-go/pkg/register"
	"gopkg.in/yaml.v3"
)

// Manifest is the static declaration of a component type.
type Manifest struct {
	// Type names the component type, e.g. "LedBlock".
	Type string `yaml:"type"`

	// Doc is a human-readable description.
	Doc string `yaml:"doc,omitempty"`

	// Registers are declared in bus order.
	Registers []register.Spec `yaml:"registers,omitempty"`

	// Children are the named sub-component instances.
	Children []Child `yaml:"children,omitempty"`
}

// Child is a named instance of a sub-component.
type Child struct {
	Name     string
	Manifest *Manifest
}

// Register appends a register declaration and returns the manifest.
func (m *Manifest) Register(s register.Spec) *Manifest {
	m.Registers = append(m.Registers, s)
	return m
}

// Add appends a child instance and returns the manifest.
func (m *Manifest) Add(name string, child *Manifest) *Manifest {
	m.Children = append(m.Children, Child{Name: name, Manifest: child})
	return m
}

// File is the on-disk manifest format. Types holds reusable component
// declarations that children can reference by type name alone.
type File struct {
	Types map[string]*Manifest `yaml:"types,omitempty"`
	Top   *Manifest            `yaml:"top"`
}

// LoadError describes a manifest that failed to load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load manifest %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadManifest reads a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return m, nil
}

// ParseManifest parses a YAML manifest and resolves type references.
func ParseManifest(data []byte) (*Manifest, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if f.Top == nil {
		return nil, fmt.Errorf("parse manifest: missing top")
	}
	if err := f.resolve(f.Top, nil); err != nil {
		return nil, err
	}
	return f.Top, nil
}

// resolve replaces bare type references with the declared type, rejecting
// recursive definitions.
func (f *File) resolve(m *Manifest, stack []string) error {
	for _, t := range stack {
		if m.Type != "" && t == m.Type {
			return fmt.Errorf("parse manifest: type %s contains itself", m.Type)
		}
	}
	stack = append(stack, m.Type)
	for i := range m.Children {
		c := &m.Children[i]
		if c.Manifest == nil {
			return fmt.Errorf("parse manifest: child %q has no declaration", c.Name)
		}
		if c.Manifest.isReference() {
			decl, ok := f.Types[c.Manifest.Type]
			if !ok {
				return fmt.Errorf("parse manifest: child %q: unknown type %q", c.Name, c.Manifest.Type)
			}
			c.Manifest = decl
		}
		if err := f.resolve(c.Manifest, stack); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) isReference() bool {
	return m.Type != "" && len(m.Registers) == 0 && len(m.Children) == 0
}

type childYAML struct {
	Name     string `yaml:"name"`
	Manifest `yaml:",inline"`
}

// UnmarshalYAML reads a child as its name plus an inline manifest.
func (c *Child) UnmarshalYAML(node *yaml.Node) error {
	var raw childYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("line %d: child without name", node.Line)
	}
	c.Name = raw.Name
	m := raw.Manifest
	c.Manifest = &m
	return nil
}

// MarshalYAML writes a child as its name plus an inline manifest.
func (c Child) MarshalYAML() (any, error) {
	var m Manifest
	if c.Manifest != nil {
		m = *c.Manifest
	}
	return childYAML{Name: c.Name, Manifest: m}, nil
}
