// Package troop provides troop templates (the roster provider's view of a
// soldier type) and party rosters loaded from YAML.
package troop

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/armory/internal/game/item"
)

// Template defines a troop type: its rank, skills and reference loadout.
type Template struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Culture string `yaml:"culture"`
	Tier    int    `yaml:"tier"`
	Level   int    `yaml:"level"`
	Hero    bool   `yaml:"hero"`
	// Mounted and Ranged are explicit role flags; both are also implied by
	// the reference loadout.
	Mounted bool           `yaml:"mounted"`
	Ranged  bool           `yaml:"ranged"`
	Skills  map[string]int `yaml:"skills"`
	// Equipment maps slot names (see item.Slot) to identity strings
	// ("item" or "item@modifier").
	Equipment map[string]string `yaml:"equipment"`

	reference item.Equipment
}

// Validate checks the template and parses its reference loadout.
//
// Precondition: t must not be nil.
// Postcondition: on nil error, Reference() reflects Equipment.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("troop template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("troop template %q: name must not be empty", t.ID)
	}
	if t.Tier < 0 {
		return fmt.Errorf("troop template %q: tier must be >= 0", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("troop template %q: level must be >= 1", t.ID)
	}
	var ref item.Equipment
	for slotName, raw := range t.Equipment {
		slot, ok := item.ParseSlot(slotName)
		if !ok {
			return fmt.Errorf("troop template %q: unknown equipment slot %q", t.ID, slotName)
		}
		id, err := item.ParseIdentity(raw)
		if err != nil {
			return fmt.Errorf("troop template %q: slot %s: %w", t.ID, slotName, err)
		}
		ref.Set(slot, id)
	}
	t.reference = ref
	return nil
}

// Reference returns a copy of the template's reference loadout.
func (t *Template) Reference() item.Equipment { return t.reference }

// SetReference replaces the reference loadout; used by builders and tests.
func (t *Template) SetReference(e item.Equipment) { t.reference = e }

// IsMounted reports whether the troop fights on horseback by default.
func (t *Template) IsMounted() bool {
	return t.Mounted || !t.reference.IsEmpty(item.SlotHorse)
}

// Skill returns the troop's skill value for name, or 0.
func (t *Template) Skill(name string) int {
	return t.Skills[name]
}

// LoadTemplateFromBytes parses a single troop template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing troop template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates
// keyed by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse,
// validate, or duplicate-ID failure.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading troop dir %q: %w", dir, err)
	}

	templates := make(map[string]*Template)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate troop template %q", path, tmpl.ID)
		}
		templates[tmpl.ID] = tmpl
	}
	return templates, nil
}
