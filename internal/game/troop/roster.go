package troop

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/armory/internal/game/armory"
)

// Element is one roster line: a troop template with its head count.
type Element struct {
	Troop   *Template
	Count   int
	Wounded int
}

// Needing returns how many soldiers of this element need equipment:
// the living, unwounded, non-hero count.
//
// Postcondition: result >= 0.
func (e Element) Needing() int {
	if e.Troop == nil || e.Troop.Hero {
		return 0
	}
	n := e.Count - e.Wounded
	if n < 0 {
		return 0
	}
	return n
}

// Rosters maps party IDs to their roster and serves as a roster provider.
type Rosters map[string][]Element

// Roster returns the roster of partyID, or nil.
func (r Rosters) Roster(partyID string) []Element { return r[partyID] }

// Party is a party definition: its roster and starting armory.
type Party struct {
	ID     string
	Roster []Element
	Armory []armory.Entry
}

type rosterLine struct {
	Troop   string `yaml:"troop"`
	Count   int    `yaml:"count"`
	Wounded int    `yaml:"wounded"`
}

type partyFile struct {
	ID     string         `yaml:"id"`
	Roster []rosterLine   `yaml:"roster"`
	Armory []armory.Entry `yaml:"armory"`
}

// ParseParty decodes a party document, resolving troop IDs against templates.
//
// Postcondition: every returned Element references a template in templates.
func ParseParty(data []byte, templates map[string]*Template) (*Party, error) {
	var pf partyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing party YAML: %w", err)
	}
	if pf.ID == "" {
		return nil, fmt.Errorf("party: id must not be empty")
	}
	p := &Party{ID: pf.ID, Armory: pf.Armory}
	for i, line := range pf.Roster {
		tmpl, ok := templates[line.Troop]
		if !ok {
			return nil, fmt.Errorf("party %q: roster[%d] references unknown troop %q", pf.ID, i, line.Troop)
		}
		if line.Count < 0 || line.Wounded < 0 {
			return nil, fmt.Errorf("party %q: roster[%d] count and wounded must be >= 0", pf.ID, i)
		}
		p.Roster = append(p.Roster, Element{Troop: tmpl, Count: line.Count, Wounded: line.Wounded})
	}
	return p, nil
}

// LoadParties reads all *.yaml party files in dir, sorted by party ID.
func LoadParties(dir string, templates map[string]*Template) ([]*Party, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading party dir %q: %w", dir, err)
	}
	var parties []*Party
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		p, err := ParseParty(data, templates)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("loading %q: duplicate party %q", path, p.ID)
		}
		seen[p.ID] = true
		parties = append(parties, p)
	}
	sort.Slice(parties, func(i, j int) bool { return parties[i].ID < parties[j].ID })
	return parties, nil
}

// RostersOf indexes parties' rosters by party ID.
func RostersOf(parties []*Party) Rosters {
	out := make(Rosters, len(parties))
	for _, p := range parties {
		out[p.ID] = p.Roster
	}
	return out
}
