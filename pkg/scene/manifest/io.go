package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileExtension is appended to a source file name to locate its manifest.
const FileExtension = ".assetinfo"

// ErrInvalidFile is returned when a sidecar file cannot be decoded.
var ErrInvalidFile = errors.New("invalid manifest file")

type fileRule struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value,omitempty"`
}

type fileEntry struct {
	Name  string     `yaml:"name"`
	Type  string     `yaml:"type"`
	Value yaml.Node  `yaml:"value,omitempty"`
	Rules []fileRule `yaml:"rules,omitempty"`
}

type fileManifest struct {
	Entries []fileEntry `yaml:"entries"`
}

// PathFor returns the sidecar path for a source file.
func PathFor(sourcePath string) string {
	return sourcePath + FileExtension
}

// Load reads a manifest file. Type names are resolved through registry.
func Load(path string, registry *Registry) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m := New()
	if err := m.Decode(bytes.NewReader(data), registry); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// LoadFrom replaces the contents of m with the manifest stored at path. On
// error m is left empty.
func (m *Manifest) LoadFrom(path string, registry *Registry) error {
	m.Clear()
	loaded, err := Load(path, registry)
	if err != nil {
		return err
	}
	*m = *loaded
	return nil
}

// Decode replaces the contents of m with the manifest read from r.
func (m *Manifest) Decode(r io.Reader, registry *Registry) error {
	m.Clear()

	var file fileManifest
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	for _, entry := range file.Entries {
		object, err := decodeObject(registry, entry.Type, &entry.Value)
		if err != nil {
			m.Clear()
			return fmt.Errorf("entry %q: %w", entry.Name, err)
		}

		if len(entry.Rules) > 0 {
			owner, ok := object.(RuleOwner)
			if !ok {
				m.Clear()
				return fmt.Errorf("%w: entry %q of type %s cannot own rules", ErrInvalidFile, entry.Name, entry.Type)
			}
			for i, rule := range entry.Rules {
				ruleObject, err := decodeObject(registry, rule.Type, &rule.Value)
				if err != nil {
					m.Clear()
					return fmt.Errorf("entry %q rule %d: %w", entry.Name, i, err)
				}
				if !owner.AddRule(ruleObject) {
					m.Clear()
					return fmt.Errorf("%w: entry %q rule %d rejected", ErrInvalidFile, entry.Name, i)
				}
			}
		}

		if err := m.AddEntry(entry.Name, object); err != nil {
			m.Clear()
			return err
		}
	}
	return nil
}

func decodeObject(registry *Registry, typeName string, value *yaml.Node) (Object, error) {
	object, err := registry.New(typeName)
	if err != nil {
		return nil, err
	}
	if value.Kind != 0 {
		if err := value.Decode(object); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, typeName, err)
		}
	}
	return object, nil
}

// Save writes the manifest to path, creating the directory if needed.
func (m *Manifest) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Encode writes the manifest as YAML.
func (m *Manifest) Encode(w io.Writer) error {
	file := fileManifest{Entries: make([]fileEntry, 0, len(m.values))}
	for name, object := range m.Entries() {
		entry := fileEntry{Name: name, Type: object.TypeName()}
		if err := entry.Value.Encode(object); err != nil {
			return fmt.Errorf("encode entry %q: %w", name, err)
		}
		if owner, ok := object.(RuleOwner); ok {
			for i := range owner.GetRuleCount() {
				rule := owner.GetRule(i)
				fr := fileRule{Type: rule.TypeName()}
				if err := fr.Value.Encode(rule); err != nil {
					return fmt.Errorf("encode entry %q rule %d: %w", name, i, err)
				}
				entry.Rules = append(entry.Rules, fr)
			}
		}
		file.Entries = append(file.Entries, entry)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&file); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return enc.Close()
}
