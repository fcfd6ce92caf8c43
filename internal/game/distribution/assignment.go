package distribution

import (
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/troop"
)

// Assignment is one soldier's in-progress loadout for a single battle.
//
// Invariant: reference is never modified after construction. All derived
// properties are computed from the current Equipment on every call.
type Assignment struct {
	// Index is the soldier's ordinal in roster order; it breaks priority ties.
	Index int
	// Troop is the soldier's template.
	Troop *troop.Template
	// Equipment is the loadout assigned so far.
	Equipment item.Equipment

	reference item.Equipment
	catalog   *item.Catalog
}

func newAssignment(index int, tmpl *troop.Template, cat *item.Catalog) *Assignment {
	return &Assignment{
		Index:     index,
		Troop:     tmpl,
		reference: tmpl.Reference(),
		catalog:   cat,
	}
}

// Reference returns the soldier's template loadout snapshot.
func (a *Assignment) Reference() item.Equipment { return a.reference }

// referenceDef resolves the reference item in slot s.
func (a *Assignment) referenceDef(s item.Slot) (*item.Def, bool) {
	return a.catalog.Resolve(a.reference.Get(s))
}

// anyWeapon reports whether some currently equipped weapon-slot item satisfies pred.
func (a *Assignment) anyWeapon(pred func(*item.Def) bool) bool {
	for s := item.SlotWeapon0; s <= item.SlotWeapon3; s++ {
		if d, ok := a.catalog.Resolve(a.Equipment.Get(s)); ok && pred(d) {
			return true
		}
	}
	return false
}

func ofType(t item.ItemType) func(*item.Def) bool {
	return func(d *item.Def) bool { return d.Type == t }
}

// IsMounted reports whether the soldier has been given a horse.
func (a *Assignment) IsMounted() bool {
	return !a.Equipment.IsEmpty(item.SlotHorse)
}

// WantsMount reports whether the soldier's template fights mounted.
func (a *Assignment) WantsMount() bool { return a.Troop.IsMounted() }

// IsArcher reports whether the soldier carries a bow.
func (a *Assignment) IsArcher() bool { return a.anyWeapon(ofType(item.TypeBow)) }

// IsCrossBowMan reports whether the soldier carries a crossbow.
func (a *Assignment) IsCrossBowMan() bool { return a.anyWeapon(ofType(item.TypeCrossbow)) }

// HaveThrown reports whether the soldier carries a throwing weapon.
func (a *Assignment) HaveThrown() bool { return a.anyWeapon(ofType(item.TypeThrown)) }

// IsShielded reports whether the soldier carries a shield.
func (a *Assignment) IsShielded() bool { return a.anyWeapon(ofType(item.TypeShield)) }

// HaveTwoHandedWeaponOrPolearms reports whether the soldier carries a
// two-handed weapon or a polearm.
func (a *Assignment) HaveTwoHandedWeaponOrPolearms() bool {
	return a.anyWeapon((*item.Def).IsTwoHandedOrPolearm)
}

// IsUnarmed reports whether the soldier carries no weapon at all. Shields
// and ammunition do not count as weapons.
func (a *Assignment) IsUnarmed() bool {
	return !a.anyWeapon(func(d *item.Def) bool {
		_, ok := d.WeaponData()
		return ok && d.Type != item.TypeShield
	})
}

// EmptyWeaponSlot returns the first empty weapon slot.
func (a *Assignment) EmptyWeaponSlot() (item.Slot, bool) {
	return a.Equipment.FirstEmptyWeaponSlot()
}

// CanBeShielded reports whether a shield can be added: the soldier has a free
// weapon slot, no shield yet, no bow, and either a one-handed weapon or a
// shield in the reference loadout.
func (a *Assignment) CanBeShielded() bool {
	if _, ok := a.EmptyWeaponSlot(); !ok {
		return false
	}
	if a.IsShielded() || a.IsArcher() {
		return false
	}
	if a.anyWeapon(func(d *item.Def) bool {
		return d.Type == item.TypeOneHanded || d.Class() == item.ClassOneHandedPolearm
	}) {
		return true
	}
	for s := item.SlotWeapon0; s <= item.SlotWeapon3; s++ {
		if d, ok := a.referenceDef(s); ok && d.Type == item.TypeShield {
			return true
		}
	}
	return false
}

// CanWield reports whether the soldier's skill meets d's difficulty.
// Items without a governing skill or difficulty are always wieldable.
func (a *Assignment) CanWield(d *item.Def) bool {
	w, ok := d.WeaponData()
	if !ok || w.Difficulty == 0 {
		return true
	}
	return a.Troop.Skill(d.Type.Skill()) >= w.Difficulty
}
