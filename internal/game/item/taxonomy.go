// Package item provides the equipment taxonomy, item and modifier definitions,
// equipment identities, and the default scoring oracle used by the armory and
// the distribution engine.
package item

// ItemType is the broad item category used for slot matching and stockpile caps.
type ItemType string

const (
	TypeHeadArmor    ItemType = "head_armor"
	TypeHandArmor    ItemType = "hand_armor"
	TypeBodyArmor    ItemType = "body_armor"
	TypeLegArmor     ItemType = "leg_armor"
	TypeCape         ItemType = "cape"
	TypeHorse        ItemType = "horse"
	TypeHorseHarness ItemType = "horse_harness"
	TypeOneHanded    ItemType = "one_handed"
	TypeTwoHanded    ItemType = "two_handed"
	TypePolearm      ItemType = "polearm"
	TypeBow          ItemType = "bow"
	TypeCrossbow     ItemType = "crossbow"
	TypeThrown       ItemType = "thrown"
	TypeShield       ItemType = "shield"
	TypeArrows       ItemType = "arrows"
	TypeBolts        ItemType = "bolts"
)

var validTypes = map[ItemType]bool{
	TypeHeadArmor: true, TypeHandArmor: true, TypeBodyArmor: true, TypeLegArmor: true,
	TypeCape: true, TypeHorse: true, TypeHorseHarness: true, TypeOneHanded: true,
	TypeTwoHanded: true, TypePolearm: true, TypeBow: true, TypeCrossbow: true,
	TypeThrown: true, TypeShield: true, TypeArrows: true, TypeBolts: true,
}

// ValidType reports whether t is a known ItemType.
func ValidType(t ItemType) bool { return validTypes[t] }

// IsArmor reports whether t is worn in one of the five body armor slots.
func (t ItemType) IsArmor() bool {
	switch t {
	case TypeHeadArmor, TypeHandArmor, TypeBodyArmor, TypeLegArmor, TypeCape:
		return true
	}
	return false
}

// IsWeapon reports whether t occupies a weapon slot, including shields and ammunition.
func (t ItemType) IsWeapon() bool {
	switch t {
	case TypeOneHanded, TypeTwoHanded, TypePolearm, TypeBow, TypeCrossbow,
		TypeThrown, TypeShield, TypeArrows, TypeBolts:
		return true
	}
	return false
}

// IsMelee reports whether t is a hand-to-hand weapon type.
func (t ItemType) IsMelee() bool {
	return t == TypeOneHanded || t == TypeTwoHanded || t == TypePolearm
}

// IsAmmo reports whether t is a quiver of arrows or bolts.
func (t ItemType) IsAmmo() bool {
	return t == TypeArrows || t == TypeBolts
}

// Skill returns the troop skill governing use of a weapon of type t, or "".
func (t ItemType) Skill() string {
	switch t {
	case TypeOneHanded, TypeShield:
		return "one_handed"
	case TypeTwoHanded:
		return "two_handed"
	case TypePolearm:
		return "polearm"
	case TypeBow, TypeArrows:
		return "bow"
	case TypeCrossbow, TypeBolts:
		return "crossbow"
	case TypeThrown:
		return "throwing"
	}
	return ""
}

// WeaponClass is the fine-grained weapon taxonomy used for best-fit matching.
type WeaponClass string

const (
	ClassDagger           WeaponClass = "dagger"
	ClassOneHandedSword   WeaponClass = "one_handed_sword"
	ClassTwoHandedSword   WeaponClass = "two_handed_sword"
	ClassOneHandedAxe     WeaponClass = "one_handed_axe"
	ClassTwoHandedAxe     WeaponClass = "two_handed_axe"
	ClassMace             WeaponClass = "mace"
	ClassTwoHandedMace    WeaponClass = "two_handed_mace"
	ClassOneHandedPolearm WeaponClass = "one_handed_polearm"
	ClassTwoHandedPolearm WeaponClass = "two_handed_polearm"
	ClassLowGripPolearm   WeaponClass = "low_grip_polearm"
	ClassBow              WeaponClass = "bow"
	ClassCrossbow         WeaponClass = "crossbow"
	ClassJavelin          WeaponClass = "javelin"
	ClassThrowingAxe      WeaponClass = "throwing_axe"
	ClassThrowingKnife    WeaponClass = "throwing_knife"
	ClassStone            WeaponClass = "stone"
	ClassSmallShield      WeaponClass = "small_shield"
	ClassLargeShield      WeaponClass = "large_shield"
	ClassArrow            WeaponClass = "arrow"
	ClassBolt             WeaponClass = "bolt"
)

// classTypes maps each weapon class to the only item type it may appear on.
var classTypes = map[WeaponClass]ItemType{
	ClassDagger:           TypeOneHanded,
	ClassOneHandedSword:   TypeOneHanded,
	ClassOneHandedAxe:     TypeOneHanded,
	ClassMace:             TypeOneHanded,
	ClassTwoHandedSword:   TypeTwoHanded,
	ClassTwoHandedAxe:     TypeTwoHanded,
	ClassTwoHandedMace:    TypeTwoHanded,
	ClassOneHandedPolearm: TypePolearm,
	ClassTwoHandedPolearm: TypePolearm,
	ClassLowGripPolearm:   TypePolearm,
	ClassBow:              TypeBow,
	ClassCrossbow:         TypeCrossbow,
	ClassJavelin:          TypeThrown,
	ClassThrowingAxe:      TypeThrown,
	ClassThrowingKnife:    TypeThrown,
	ClassStone:            TypeThrown,
	ClassSmallShield:      TypeShield,
	ClassLargeShield:      TypeShield,
	ClassArrow:            TypeArrows,
	ClassBolt:             TypeBolts,
}

// TypeOf returns the item type a weapon class belongs to.
func (c WeaponClass) TypeOf() (ItemType, bool) {
	t, ok := classTypes[c]
	return t, ok
}

// ArmorSlot identifies which body armor slot an Armor kind is worn in.
type ArmorSlot string

const (
	ArmorHead ArmorSlot = "head"
	ArmorHand ArmorSlot = "hand"
	ArmorBody ArmorSlot = "body"
	ArmorLeg  ArmorSlot = "leg"
	ArmorCape ArmorSlot = "cape"
)

var armorSlotTypes = map[ItemType]ArmorSlot{
	TypeHeadArmor: ArmorHead,
	TypeHandArmor: ArmorHand,
	TypeBodyArmor: ArmorBody,
	TypeLegArmor:  ArmorLeg,
	TypeCape:      ArmorCape,
}
