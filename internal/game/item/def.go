package item

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxTier is the highest tier an item may carry.
const MaxTier = 6

// Def defines the static properties of an item loaded from YAML.
type Def struct {
	ID      string
	Name    string
	Culture string
	Type    ItemType
	Tier    int
	Value   int
	Kind    Kind
}

// defFile is the YAML shape of a Def. Exactly one of the kind blocks is set.
type defFile struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Culture string   `yaml:"culture"`
	Type    ItemType `yaml:"type"`
	Tier    int      `yaml:"tier"`
	Value   int      `yaml:"value"`

	Armor *struct {
		ArmorValue int `yaml:"armor_value"`
	} `yaml:"armor"`
	Weapon *struct {
		Class       WeaponClass `yaml:"class"`
		Couchable   bool        `yaml:"couchable"`
		NotForMount bool        `yaml:"not_for_mount"`
		Difficulty  int         `yaml:"difficulty"`
	} `yaml:"weapon"`
	Mount *struct {
		Family string `yaml:"family"`
	} `yaml:"mount"`
	Harness *struct {
		Family     string `yaml:"family"`
		ArmorValue int    `yaml:"armor_value"`
	} `yaml:"harness"`
	Ammo *struct {
		Class WeaponClass `yaml:"class"`
		Stack int         `yaml:"stack"`
	} `yaml:"ammo"`
}

// UnmarshalYAML decodes a Def, building its Kind from whichever kind block is present.
func (d *Def) UnmarshalYAML(node *yaml.Node) error {
	var f defFile
	if err := node.Decode(&f); err != nil {
		return err
	}
	*d = Def{ID: f.ID, Name: f.Name, Culture: f.Culture, Type: f.Type, Tier: f.Tier, Value: f.Value}

	blocks := 0
	if f.Armor != nil {
		blocks++
		d.Kind = Armor{Slot: armorSlotTypes[f.Type], ArmorValue: f.Armor.ArmorValue}
	}
	if f.Weapon != nil {
		blocks++
		d.Kind = Weapon{
			Class:       f.Weapon.Class,
			Couchable:   f.Weapon.Couchable,
			NotForMount: f.Weapon.NotForMount,
			Difficulty:  f.Weapon.Difficulty,
		}
	}
	if f.Mount != nil {
		blocks++
		d.Kind = Mount{Family: f.Mount.Family}
	}
	if f.Harness != nil {
		blocks++
		d.Kind = MountArmor{Family: f.Harness.Family, ArmorValue: f.Harness.ArmorValue}
	}
	if f.Ammo != nil {
		blocks++
		d.Kind = Consumable{Class: f.Ammo.Class, Stack: f.Ammo.Stack}
	}
	if blocks > 1 {
		return fmt.Errorf("item %q: exactly one of armor, weapon, mount, harness, ammo may be set", f.ID)
	}
	return nil
}

// Validate checks that the Def satisfies its invariants, including that Kind
// agrees with Type.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if strings.Contains(d.ID, IdentitySeparator) {
		errs = append(errs, fmt.Errorf("id %q must not contain %q", d.ID, IdentitySeparator))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !ValidType(d.Type) {
		errs = append(errs, fmt.Errorf("type %q is not a valid item type", d.Type))
	}
	if d.Tier < 0 || d.Tier > MaxTier {
		errs = append(errs, fmt.Errorf("tier must be in [0, %d], got %d", MaxTier, d.Tier))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("value must be >= 0"))
	}
	if err := d.validateKind(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %v", d.ID, errs)
	}
	return nil
}

func (d *Def) validateKind() error {
	switch k := d.Kind.(type) {
	case nil:
		return errors.New("kind block must be set")
	case Armor:
		if want, ok := armorSlotTypes[d.Type]; !ok || k.Slot != want {
			return fmt.Errorf("armor block does not match type %q", d.Type)
		}
		if k.ArmorValue < 0 {
			return errors.New("armor_value must be >= 0")
		}
	case Weapon:
		t, ok := k.Class.TypeOf()
		if !ok {
			return fmt.Errorf("unknown weapon class %q", k.Class)
		}
		if t != d.Type {
			return fmt.Errorf("weapon class %q does not belong to type %q", k.Class, d.Type)
		}
		if k.Difficulty < 0 {
			return errors.New("difficulty must be >= 0")
		}
	case Mount:
		if d.Type != TypeHorse {
			return fmt.Errorf("mount block requires type %q", TypeHorse)
		}
		if k.Family == "" {
			return errors.New("mount family must not be empty")
		}
	case MountArmor:
		if d.Type != TypeHorseHarness {
			return fmt.Errorf("harness block requires type %q", TypeHorseHarness)
		}
		if k.ArmorValue < 0 {
			return errors.New("harness armor_value must be >= 0")
		}
		if !k.IsSaddle() && k.Family == "" {
			return errors.New("harness family must not be empty unless it is a saddle")
		}
	case Consumable:
		t, ok := k.Class.TypeOf()
		if !ok || t != d.Type || !t.IsAmmo() {
			return fmt.Errorf("ammo class %q does not belong to type %q", k.Class, d.Type)
		}
		if k.Stack < 1 {
			return errors.New("ammo stack must be >= 1")
		}
	}
	return nil
}

// WeaponData returns the Weapon kind of d.
func (d *Def) WeaponData() (Weapon, bool) {
	w, ok := d.Kind.(Weapon)
	return w, ok
}

// Class returns the weapon class of a Weapon or Consumable, or "".
func (d *Def) Class() WeaponClass {
	switch k := d.Kind.(type) {
	case Weapon:
		return k.Class
	case Consumable:
		return k.Class
	}
	return ""
}

// Family returns the compatibility family of a Mount or MountArmor, or "".
func (d *Def) Family() string {
	switch k := d.Kind.(type) {
	case Mount:
		return k.Family
	case MountArmor:
		return k.Family
	}
	return ""
}

// UsableMounted reports whether the item may be carried by a mounted soldier.
func (d *Def) UsableMounted() bool {
	if w, ok := d.Kind.(Weapon); ok {
		return !w.NotForMount
	}
	return true
}

// Couchable reports whether the item is a couchable weapon.
func (d *Def) Couchable() bool {
	w, ok := d.Kind.(Weapon)
	return ok && w.Couchable
}

// IsTwoHandedOrPolearm reports whether the item is a two-handed weapon or a polearm.
func (d *Def) IsTwoHandedOrPolearm() bool {
	return d.Type == TypeTwoHanded || d.Type == TypePolearm
}

// Modifier is a quality variant applicable to a base item (e.g. "fine", "rusty").
type Modifier struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	PriceFactor float64 `yaml:"price_factor"`
	TierDelta   int     `yaml:"tier_delta"`
}

// Validate checks that the Modifier satisfies its invariants.
func (m *Modifier) Validate() error {
	if m.ID == "" {
		return errors.New("modifier: id must not be empty")
	}
	if strings.Contains(m.ID, IdentitySeparator) {
		return fmt.Errorf("modifier %q: id must not contain %q", m.ID, IdentitySeparator)
	}
	if m.PriceFactor <= 0 {
		return fmt.Errorf("modifier %q: price_factor must be > 0", m.ID)
	}
	return nil
}

type contentFile struct {
	Items     []*Def      `yaml:"items"`
	Modifiers []*Modifier `yaml:"modifiers"`
}

// LoadContentFromBytes parses one content document holding items and modifiers.
//
// Postcondition: every returned Def and Modifier passes Validate.
func LoadContentFromBytes(data []byte) ([]*Def, []*Modifier, error) {
	var cf contentFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, nil, fmt.Errorf("parsing item content: %w", err)
	}
	for _, d := range cf.Items {
		if err := d.Validate(); err != nil {
			return nil, nil, err
		}
	}
	for _, m := range cf.Modifiers {
		if m.PriceFactor == 0 {
			m.PriceFactor = 1
		}
		if err := m.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return cf.Items, cf.Modifiers, nil
}

// LoadCatalog reads every *.yaml and *.yml file in dir and registers the
// items and modifiers it declares.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns a populated Catalog or the first encountered error.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: cannot read directory %q: %w", dir, err)
	}
	cat := NewCatalog()
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadCatalog: cannot read file %q: %w", path, err)
		}
		defs, mods, err := LoadContentFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("LoadCatalog: %q: %w", path, err)
		}
		for _, d := range defs {
			if err := cat.Register(d); err != nil {
				return nil, fmt.Errorf("LoadCatalog: %q: %w", path, err)
			}
		}
		for _, m := range mods {
			if err := cat.RegisterModifier(m); err != nil {
				return nil, fmt.Errorf("LoadCatalog: %q: %w", path, err)
			}
		}
	}
	return cat, nil
}
