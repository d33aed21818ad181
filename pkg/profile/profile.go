// Package profile reads and writes the user's profile file: a YAML document
// whose defaults section seeds parameter resolution.
//
// Saves are surgical: the existing document is edited as a YAML node tree so
// comments and unrelated content survive a round trip.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Defaults is the schema of the profile's defaults section. Extra holds any
// additional defaults the user has chosen to save from conversations.
type Defaults struct {
	Workspace  string         `yaml:"workspace,omitempty"`
	System     string         `yaml:"system,omitempty"`
	Partition  string         `yaml:"partition,omitempty"`
	Allocation string         `yaml:"allocation,omitempty"`
	Extra      map[string]any `yaml:",inline"`
}

// UserProfile is the top-level profile document.
type UserProfile struct {
	Defaults Defaults `yaml:"defaults"`
}

// Map flattens the defaults into a resolver layer.
func (p *UserProfile) Map() map[string]any {
	out := make(map[string]any)
	for k, v := range p.Defaults.Extra {
		out[k] = v
	}
	if p.Defaults.Workspace != "" {
		out["workspace"] = p.Defaults.Workspace
	}
	if p.Defaults.System != "" {
		out["system"] = p.Defaults.System
	}
	if p.Defaults.Partition != "" {
		out["partition"] = p.Defaults.Partition
	}
	if p.Defaults.Allocation != "" {
		out["allocation"] = p.Defaults.Allocation
	}
	return out
}

// Manager loads and saves one user profile file.
type Manager struct {
	path   string
	logger *zap.Logger
}

// NewManager creates a manager for the profile at path.
func NewManager(path string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{path: path, logger: logger}
}

// Path returns the profile file path.
func (m *Manager) Path() string { return m.path }

// Load reads the profile. A missing file returns (nil, nil).
func (m *Manager) Load() (*UserProfile, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read user profile: %w", err)
	}
	var p UserProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse user profile %s: %w", m.path, err)
	}
	return &p, nil
}

// Get returns one defaults value as a string, or "" when absent.
func (m *Manager) Get(key string) (string, error) {
	p, err := m.Load()
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	if v, ok := p.Map()[key]; ok {
		return fmt.Sprintf("%v", v), nil
	}
	return "", nil
}

// Set updates a single defaults key. See SaveDefaults.
func (m *Manager) Set(key, value string) error {
	return m.SaveDefaults(map[string]string{key: value})
}

// SaveDefaults upserts the given keys into the defaults section,
// preserving comments and unrelated document content. When the existing
// file is unreadable or invalid, a minimal valid profile is synthesized
// instead of failing; saving collected defaults is best-effort by design.
func (m *Manager) SaveDefaults(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	doc := m.loadNode()

	root := doc.Content[0]
	defaults := findOrCreateMap(root, "defaults")
	for k, v := range values {
		upsertScalar(defaults, k, v)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal user profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	if err := os.WriteFile(m.path, out, 0o644); err != nil {
		return fmt.Errorf("write user profile: %w", err)
	}
	return nil
}

// loadNode parses the existing profile into a node tree, or synthesizes an
// empty document when the file is missing or invalid.
func (m *Manager) loadNode() *yaml.Node {
	empty := func() *yaml.Node {
		return &yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{Kind: yaml.MappingNode, Tag: "!!map"},
			},
		}
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("unreadable user profile, synthesizing a minimal one",
				zap.String("path", m.path),
				zap.Error(err))
		}
		return empty()
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		m.logger.Warn("invalid user profile, synthesizing a minimal one",
			zap.String("path", m.path),
			zap.Error(err))
		return empty()
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 ||
		doc.Content[0].Kind != yaml.MappingNode {
		return empty()
	}
	return &doc
}

func findOrCreateMap(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			child := mapping.Content[i+1]
			if child.Kind == yaml.MappingNode {
				return child
			}
			// Replace a scalar/null placeholder with a mapping.
			child.Kind = yaml.MappingNode
			child.Tag = "!!map"
			child.Value = ""
			child.Content = nil
			return child
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	valNode := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	mapping.Content = append(mapping.Content, keyNode, valNode)
	return valNode
}

func upsertScalar(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1].Kind = yaml.ScalarNode
			mapping.Content[i+1].Tag = "!!str"
			mapping.Content[i+1].Value = value
			mapping.Content[i+1].Content = nil
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
