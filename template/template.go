// Package template persists named pipeline configurations and matches
// them to datasets, so reopening a familiar file can restore the query,
// filters, sort, reshape, and column order that were in use last time.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/derekwisong/datui/pipeline"
)

// MatchCriteria describes which datasets a template is meant for. All
// fields are optional; the relevance score combines the ones present.
type MatchCriteria struct {
	ExactPath       string   `json:"exact_path,omitempty"`
	RelativePath    string   `json:"relative_path,omitempty"`
	PathPattern     string   `json:"path_pattern,omitempty"`
	FilenamePattern string   `json:"filename_pattern,omitempty"`
	SchemaColumns   []string `json:"schema_columns,omitempty"`
}

// Template is one saved pipeline configuration.
type Template struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Created     time.Time         `json:"created"`
	LastUsed    *time.Time        `json:"last_used,omitempty"`
	UsageCount  int               `json:"usage_count"`
	Criteria    MatchCriteria     `json:"match_criteria"`
	Settings    pipeline.Snapshot `json:"settings"`
}

// Manager loads and stores templates in a single JSON file.
type Manager struct {
	path      string
	templates []Template
	now       func() time.Time
}

// NewManager opens the template store at dir/templates.json, creating the
// directory if needed. A missing file is an empty store.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating template dir: %w", err)
	}
	m := &Manager{path: filepath.Join(dir, "templates.json"), now: time.Now}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading templates: %w", err)
	}
	if err := json.Unmarshal(data, &m.templates); err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}
	return nil
}

func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.templates, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding templates: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing templates: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replacing templates: %w", err)
	}
	return nil
}

// All returns every stored template.
func (m *Manager) All() []Template {
	return append([]Template(nil), m.templates...)
}

// ByID finds a template by id.
func (m *Manager) ByID(id string) (Template, bool) {
	for _, t := range m.templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// ByName finds a template by name.
func (m *Manager) ByName(name string) (Template, bool) {
	for _, t := range m.templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// Create stores a new template and persists the store.
func (m *Manager) Create(name, description string, criteria MatchCriteria, settings pipeline.Snapshot) (Template, error) {
	if _, exists := m.ByName(name); exists {
		return Template{}, fmt.Errorf("template %q already exists", name)
	}
	t := Template{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Created:     m.now().UTC(),
		Criteria:    criteria,
		Settings:    settings,
	}
	m.templates = append(m.templates, t)
	if err := m.save(); err != nil {
		return Template{}, err
	}
	return t, nil
}

// Update replaces the stored template with the same id.
func (m *Manager) Update(t Template) error {
	for i := range m.templates {
		if m.templates[i].ID == t.ID {
			m.templates[i] = t
			return m.save()
		}
	}
	return fmt.Errorf("template %q not found", t.ID)
}

// Delete removes a template by id.
func (m *Manager) Delete(id string) error {
	for i := range m.templates {
		if m.templates[i].ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return m.save()
		}
	}
	return fmt.Errorf("template %q not found", id)
}

// RecordUsage bumps a template's usage count and last-used time, feeding
// the recency bonus in relevance scoring.
func (m *Manager) RecordUsage(id string) error {
	for i := range m.templates {
		if m.templates[i].ID == id {
			now := m.now().UTC()
			m.templates[i].UsageCount++
			m.templates[i].LastUsed = &now
			return m.save()
		}
	}
	return fmt.Errorf("template %q not found", id)
}

// NextName generates an unused default name: template_1, template_2, ...
func (m *Manager) NextName() string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("template_%d", i)
		if _, exists := m.ByName(name); !exists {
			return name
		}
	}
}

// Scored pairs a template with its relevance for one dataset.
type Scored struct {
	Template Template
	Score    float64
}

// FindRelevant scores every template against the dataset and returns
// those with a positive score, highest first.
func (m *Manager) FindRelevant(filePath string, columns []string) []Scored {
	var out []Scored
	for _, t := range m.templates {
		score := relevance(t, filePath, columns, m.now())
		if score > 0 {
			out = append(out, Scored{Template: t, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// MostRelevant returns the best-scoring template for the dataset, if any
// template scores above zero.
func (m *Manager) MostRelevant(filePath string, columns []string) (Template, bool) {
	scored := m.FindRelevant(filePath, columns)
	if len(scored) == 0 {
		return Template{}, false
	}
	return scored[0].Template, true
}
