package item

import (
	"fmt"
	"strings"
)

// IdentitySeparator joins item and modifier ids in an identity string. Item
// and modifier ids must not contain it.
const IdentitySeparator = "@"

// Identity names a concrete piece of equipment: a base item plus an optional
// modifier. The zero Identity denotes an empty slot. An empty ModifierID is
// the distinguished "no modifier" value.
type Identity struct {
	ItemID     string `yaml:"item" json:"item"`
	ModifierID string `yaml:"modifier,omitempty" json:"modifier,omitempty"`
}

// Of returns the unmodified Identity of itemID.
func Of(itemID string) Identity { return Identity{ItemID: itemID} }

// IsEmpty reports whether id denotes no item.
func (id Identity) IsEmpty() bool { return id.ItemID == "" }

// String renders id as "item" or "item@modifier".
func (id Identity) String() string {
	if id.ModifierID == "" {
		return id.ItemID
	}
	return id.ItemID + IdentitySeparator + id.ModifierID
}

// ParseIdentity is the inverse of Identity.String.
//
// Postcondition: ParseIdentity(id.String()) == id for every non-empty id
// whose ItemID contains no IdentitySeparator.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return Identity{}, fmt.Errorf("item: empty identity")
	}
	itemID, mod, _ := strings.Cut(s, IdentitySeparator)
	if itemID == "" {
		return Identity{}, fmt.Errorf("item: identity %q has no item id", s)
	}
	return Identity{ItemID: itemID, ModifierID: mod}, nil
}
