package item

// Slot indexes a position in an Equipment.
type Slot int

const (
	SlotWeapon0 Slot = iota
	SlotWeapon1
	SlotWeapon2
	SlotWeapon3
	SlotHead
	SlotBody
	SlotLeg
	SlotHand
	SlotCape
	SlotHorse
	SlotHorseHarness

	// NumSlots is the number of slots in an Equipment.
	NumSlots
)

// NumWeaponSlots is the number of leading weapon slots.
const NumWeaponSlots = 4

var slotNames = [NumSlots]string{
	"weapon0", "weapon1", "weapon2", "weapon3",
	"head", "body", "leg", "hand", "cape", "horse", "horse_harness",
}

// String returns the canonical slot name.
func (s Slot) String() string {
	if s < 0 || s >= NumSlots {
		return "invalid"
	}
	return slotNames[s]
}

// ParseSlot returns the slot with the given canonical name.
func ParseSlot(name string) (Slot, bool) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), true
		}
	}
	return 0, false
}

// IsWeapon reports whether s is one of the four weapon slots.
func (s Slot) IsWeapon() bool { return s >= SlotWeapon0 && s <= SlotWeapon3 }

// ArmorSlotFor returns the equipment slot for an armor item type.
func ArmorSlotFor(t ItemType) (Slot, bool) {
	switch t {
	case TypeHeadArmor:
		return SlotHead, true
	case TypeBodyArmor:
		return SlotBody, true
	case TypeLegArmor:
		return SlotLeg, true
	case TypeHandArmor:
		return SlotHand, true
	case TypeCape:
		return SlotCape, true
	case TypeHorse:
		return SlotHorse, true
	case TypeHorseHarness:
		return SlotHorseHarness, true
	}
	return 0, false
}

// Equipment is a full set of slots. It is a value type: assignment copies.
type Equipment [NumSlots]Identity

// Get returns the identity in slot s.
func (e *Equipment) Get(s Slot) Identity { return e[s] }

// Set places id in slot s.
func (e *Equipment) Set(s Slot, id Identity) { e[s] = id }

// IsEmpty reports whether slot s holds nothing.
func (e *Equipment) IsEmpty(s Slot) bool { return e[s].IsEmpty() }

// FirstEmptyWeaponSlot returns the lowest empty weapon slot.
func (e *Equipment) FirstEmptyWeaponSlot() (Slot, bool) {
	for s := SlotWeapon0; s <= SlotWeapon3; s++ {
		if e[s].IsEmpty() {
			return s, true
		}
	}
	return 0, false
}

// Items returns the non-empty identities in slot order.
func (e *Equipment) Items() []Identity {
	var out []Identity
	for _, id := range e {
		if !id.IsEmpty() {
			out = append(out, id)
		}
	}
	return out
}

// Map returns the equipment as slot name → identity string, skipping empty slots.
func (e *Equipment) Map() map[string]string {
	out := make(map[string]string)
	for s, id := range e {
		if !id.IsEmpty() {
			out[Slot(s).String()] = id.String()
		}
	}
	return out
}
