package item

// Kind is the closed set of kind-specific item data.
// The variants are Armor, Weapon, Mount, MountArmor and Consumable; callers
// dispatch with a type switch.
type Kind interface {
	isKind()
}

// Armor is worn in one of the five body armor slots.
type Armor struct {
	Slot       ArmorSlot
	ArmorValue int
}

// Weapon is anything held in a weapon slot except ammunition.
type Weapon struct {
	Class WeaponClass
	// Couchable weapons can be couched from horseback (lances).
	Couchable bool
	// NotForMount weapons cannot be used from horseback.
	NotForMount bool
	// Difficulty is the minimum skill needed to wield the weapon.
	Difficulty int
}

// Mount is a riding animal.
type Mount struct {
	Family string
}

// MountArmor is a harness for a Mount of the same Family. ArmorValue == 0
// marks a bare saddle.
type MountArmor struct {
	Family     string
	ArmorValue int
}

// IsSaddle reports whether the mount armor has no armor component.
func (m MountArmor) IsSaddle() bool { return m.ArmorValue == 0 }

// Consumable is a stack of ammunition.
type Consumable struct {
	Class WeaponClass
	Stack int
}

func (Armor) isKind()      {}
func (Weapon) isKind()     {}
func (Mount) isKind()      {}
func (MountArmor) isKind() {}
func (Consumable) isKind() {}
