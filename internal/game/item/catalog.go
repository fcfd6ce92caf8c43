package item

import (
	"fmt"
	"sort"
)

// Catalog holds all loaded item and modifier definitions indexed by ID.
// A Catalog is read-only after loading and safe for concurrent reads.
type Catalog struct {
	items     map[string]*Def
	modifiers map[string]*Modifier
}

// NewCatalog returns an empty Catalog.
//
// Postcondition: all internal maps are initialised.
func NewCatalog() *Catalog {
	return &Catalog{
		items:     make(map[string]*Def),
		modifiers: make(map[string]*Modifier),
	}
}

// Register adds d to the catalog.
//
// Precondition: d must not be nil.
// Postcondition: Def(d.ID) returns (d, true); returns error if d.ID already registered.
func (c *Catalog) Register(d *Def) error {
	if _, exists := c.items[d.ID]; exists {
		return fmt.Errorf("item: Catalog.Register: item ID %q already registered", d.ID)
	}
	c.items[d.ID] = d
	return nil
}

// RegisterModifier adds m to the catalog.
func (c *Catalog) RegisterModifier(m *Modifier) error {
	if _, exists := c.modifiers[m.ID]; exists {
		return fmt.Errorf("item: Catalog.RegisterModifier: modifier ID %q already registered", m.ID)
	}
	c.modifiers[m.ID] = m
	return nil
}

// Def returns the definition for itemID and whether it was found.
func (c *Catalog) Def(itemID string) (*Def, bool) {
	d, ok := c.items[itemID]
	return d, ok
}

// Modifier returns the modifier for id and whether it was found.
func (c *Catalog) Modifier(id string) (*Modifier, bool) {
	m, ok := c.modifiers[id]
	return m, ok
}

// Resolve returns the base definition of id. An unknown modifier does not
// prevent resolution; it is treated as no modifier by the scorer.
func (c *Catalog) Resolve(id Identity) (*Def, bool) {
	if id.IsEmpty() {
		return nil, false
	}
	return c.Def(id.ItemID)
}

// Len returns the number of registered items.
func (c *Catalog) Len() int { return len(c.items) }

// IDs returns all registered item IDs in sorted order.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.items))
	for id := range c.items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
