// Package panels manages saved panel rosters so a debate lineup can be
// configured once and reused by name.
package panels

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/parleyhq/parley/internal/core"
)

// Roster is a named, reusable debate lineup. Panelists holds spec strings
// in the same [name=]provider[/model][:persona] form the CLI accepts; the
// debate settings are optional overrides applied when the roster is used.
type Roster struct {
	Name       string          `yaml:"name" json:"name"`
	Panelists  []string        `yaml:"panelists" json:"panelists"`
	DebateMode core.DebateMode `yaml:"debate_mode,omitempty" json:"debate_mode,omitempty"`
	StanceMode core.StanceMode `yaml:"stance_mode,omitempty" json:"stance_mode,omitempty"`
	MaxRounds  int             `yaml:"max_rounds,omitempty" json:"max_rounds,omitempty"`
}

// Panel parses the roster's panelist specs.
func (r *Roster) Panel() ([]core.Panelist, error) {
	panel, err := core.ParsePanelistSpecs(strings.Join(r.Panelists, ","))
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", r.Name, err)
	}
	return panel, nil
}

// Validate checks the roster before saving.
func (r *Roster) Validate() error {
	if !validName.MatchString(r.Name) {
		return fmt.Errorf("invalid roster name %q: use letters, digits, - and _", r.Name)
	}
	if len(r.Panelists) == 0 {
		return fmt.Errorf("roster %s has no panelists", r.Name)
	}
	panel, err := r.Panel()
	if err != nil {
		return err
	}
	if err := core.ValidatePanel(panel); err != nil {
		return fmt.Errorf("roster %s: %w", r.Name, err)
	}
	if r.DebateMode != "" && !core.ValidDebateMode(r.DebateMode) {
		return fmt.Errorf("roster %s: invalid debate mode: %s", r.Name, r.DebateMode)
	}
	if r.StanceMode != "" && !core.ValidStanceMode(r.StanceMode) {
		return fmt.Errorf("roster %s: invalid stance mode: %s", r.Name, r.StanceMode)
	}
	return nil
}

var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// Manager handles roster persistence. Each roster lives in its own yaml
// file under the panels directory.
type Manager struct {
	mu  sync.RWMutex
	dir string
}

// NewManager creates a roster manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// List returns all saved rosters sorted by name. A missing panels
// directory is an empty list, not an error.
func (m *Manager) List() ([]*Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var rosters []*Roster
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		roster, err := m.read(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			// Skip unreadable files rather than hiding every roster.
			continue
		}
		rosters = append(rosters, roster)
	}

	sort.Slice(rosters, func(i, j int) bool {
		return rosters[i].Name < rosters[j].Name
	})
	return rosters, nil
}

// Get retrieves a roster by name.
func (m *Manager) Get(name string) (*Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !validName.MatchString(name) {
		return nil, fmt.Errorf("invalid roster name: %s", name)
	}

	roster, err := m.read(m.fileFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("roster not found: %s", name)
		}
		return nil, err
	}
	return roster, nil
}

// Save validates and writes a roster, replacing any existing one with the
// same name.
func (m *Manager) Save(roster *Roster) error {
	if err := roster.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create panels directory: %w", err)
	}

	data, err := yaml.Marshal(roster)
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}

	return os.WriteFile(m.fileFor(roster.Name), data, 0644)
}

// Delete removes a roster.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !validName.MatchString(name) {
		return fmt.Errorf("invalid roster name: %s", name)
	}

	err := os.Remove(m.fileFor(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("roster not found: %s", name)
	}
	return err
}

func (m *Manager) read(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", filepath.Base(path), err)
	}
	if roster.Name == "" {
		roster.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	return &roster, nil
}

func (m *Manager) fileFor(name string) string {
	return filepath.Join(m.dir, name+".yaml")
}
