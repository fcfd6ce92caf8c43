package distribution

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/dice"
	"github.com/cory-johannsen/armory/internal/game/item"
)

// pass is one named stage of the allocation pipeline. run returns the number
// of units it assigned.
type pass struct {
	name string
	run  func() int
}

var armorPassTypes = []item.ItemType{
	item.TypeHeadArmor,
	item.TypeHandArmor,
	item.TypeBodyArmor,
	item.TypeLegArmor,
	item.TypeCape,
}

func (d *Distributor) pipeline() []pass {
	var ps []pass
	for _, t := range armorPassTypes {
		ps = append(ps, pass{name: "armor_" + string(t), run: func() int { return d.assignArmor(t) }})
	}
	ps = append(ps,
		pass{name: "horse", run: d.assignHorses},
		pass{name: "weapon_class_strict", run: func() int { return d.assignWeapons(matchClass, true) }},
		pass{name: "weapon_class_relaxed", run: func() int { return d.assignWeapons(matchClass, false) }},
		pass{name: "weapon_type_strict", run: func() int { return d.assignWeapons(matchType, true) }},
		pass{name: "weapon_type_relaxed", run: func() int { return d.assignWeapons(matchType, false) }},
		pass{name: "rescue_unarmed", run: d.rescueUnarmed},
		pass{name: "extra_arrows", run: func() int {
			return d.assignExtra((*Assignment).IsArcher, typeIs(item.TypeArrows))
		}},
		pass{name: "extra_bolts", run: func() int {
			return d.assignExtra((*Assignment).IsCrossBowMan, typeIs(item.TypeBolts))
		}},
		pass{name: "extra_shield", run: func() int {
			return d.assignExtra((*Assignment).CanBeShielded, typeIs(item.TypeShield))
		}},
		pass{name: "extra_thrown", run: func() int {
			return d.assignExtra(func(a *Assignment) bool {
				return !a.HaveThrown() && !a.IsArcher() && !a.IsCrossBowMan()
			}, typeIs(item.TypeThrown))
		}},
		pass{name: "extra_two_handed", run: func() int {
			return d.assignExtra(func(a *Assignment) bool {
				return !a.HaveTwoHandedWeaponOrPolearms()
			}, (*item.Def).IsTwoHandedOrPolearm)
		}},
	)
	return ps
}

func typeIs(t item.ItemType) func(*item.Def) bool {
	return func(d *item.Def) bool { return d.Type == t }
}

// candidate is a ranked stock entry considered by a pass.
type candidate struct {
	id    item.Identity
	def   *item.Def
	tier  int
	value float64
}

// candidates lists the working-stock entries whose definition satisfies keep,
// ordered by (tier, value) descending with armory order breaking ties.
func (d *Distributor) candidates(keep func(*item.Def) bool) []candidate {
	var out []candidate
	d.stock.Each(func(e armory.Entry) bool {
		def, ok := d.catalog.Resolve(e.Identity)
		if !ok || !keep(def) {
			return true
		}
		out = append(out, candidate{
			id:    e.Identity,
			def:   def,
			tier:  d.scorer.Tier(e.Identity),
			value: d.scorer.Value(e.Identity),
		})
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].tier != out[j].tier {
			return out[i].tier > out[j].tier
		}
		return out[i].value > out[j].value
	})
	return out
}

// suits reports whether a may carry weapon def. A mounted soldier never takes
// a weapon that is unusable on horseback. In strict mode a polearm must be
// couchable exactly when the soldier is mounted.
func suits(a *Assignment, def *item.Def, strict bool) bool {
	w, ok := def.WeaponData()
	if !ok {
		return true
	}
	mounted := a.IsMounted()
	if mounted && w.NotForMount {
		return false
	}
	if strict && def.Type == item.TypePolearm && w.Couchable != mounted {
		return false
	}
	return true
}

func mountBonus(a *Assignment, def *item.Def) int {
	if a.IsMounted() && def.Couchable() {
		return 1
	}
	return 0
}

// best returns the highest ranked candidate with remaining stock for which ok
// holds, using (tier + mount bonus, value) as the ranking key.
func (d *Distributor) best(a *Assignment, cands []candidate, ok func(candidate) bool) (candidate, bool) {
	var (
		pick      candidate
		found     bool
		pickTier  int
		pickValue float64
	)
	for _, c := range cands {
		if d.stock.GetAmount(c.id) == 0 || !ok(c) {
			continue
		}
		tier := c.tier + mountBonus(a, c.def)
		if !found || tier > pickTier || (tier == pickTier && c.value > pickValue) {
			pick, found, pickTier, pickValue = c, true, tier, c.value
		}
	}
	return pick, found
}

// commit takes one unit of id from the working stock and places it in slot.
func (d *Distributor) commit(a *Assignment, slot item.Slot, id item.Identity) bool {
	if !a.Equipment.IsEmpty(slot) || !d.stock.TryTake(id, 1) {
		return false
	}
	a.Equipment.Set(slot, id)
	return true
}

func (d *Distributor) inStock(cands []candidate) bool {
	for _, c := range cands {
		if d.stock.GetAmount(c.id) > 0 {
			return true
		}
	}
	return false
}

// assignArmor gives every soldier the best remaining item of armor type t.
// The candidate list is walked once; the pass ends when it is exhausted.
func (d *Distributor) assignArmor(t item.ItemType) int {
	slot, ok := item.ArmorSlotFor(t)
	if !ok {
		return 0
	}
	cands := d.candidates(typeIs(t))
	n, p := 0, 0
	for _, a := range d.soldiers {
		if !a.Equipment.IsEmpty(slot) {
			continue
		}
		for p < len(cands) && d.stock.GetAmount(cands[p].id) == 0 {
			p++
		}
		if p == len(cands) {
			break
		}
		if d.commit(a, slot, cands[p].id) {
			n++
		}
	}
	return n
}

// assignHorses hands out the pre-computed horse and harness pairs in order to
// soldiers whose template fights mounted. Skipped entirely in a siege.
func (d *Distributor) assignHorses() int {
	if d.siege {
		return 0
	}
	n, p := 0, 0
	for _, a := range d.soldiers {
		if !a.WantsMount() || !a.Equipment.IsEmpty(item.SlotHorse) {
			continue
		}
		for p < len(d.pairs) && d.stock.GetAmount(d.pairs[p].Horse) == 0 {
			p++
		}
		if p == len(d.pairs) {
			break
		}
		pair := d.pairs[p]
		p++
		if !d.commit(a, item.SlotHorse, pair.Horse) {
			continue
		}
		n++
		if !pair.Harness.IsEmpty() && d.commit(a, item.SlotHorseHarness, pair.Harness) {
			n++
		}
	}
	return n
}

type weaponMatch func(ref, c *item.Def) bool

func matchClass(ref, c *item.Def) bool { return ref.Class() != "" && ref.Class() == c.Class() }

func matchType(ref, c *item.Def) bool { return ref.Type == c.Type }

// assignWeapons fills each empty weapon slot whose reference holds a weapon
// with the best stock item matching it.
func (d *Distributor) assignWeapons(match weaponMatch, strict bool) int {
	cands := d.candidates(func(def *item.Def) bool { return def.Type.IsWeapon() })
	n := 0
	for _, a := range d.soldiers {
		if !d.inStock(cands) {
			break
		}
		for s := item.SlotWeapon0; s <= item.SlotWeapon3; s++ {
			if !a.Equipment.IsEmpty(s) {
				continue
			}
			ref, ok := a.referenceDef(s)
			if !ok || !ref.Type.IsWeapon() {
				continue
			}
			c, ok := d.best(a, cands, func(c candidate) bool {
				return match(ref, c.def) && suits(a, c.def, strict)
			})
			if ok && d.commit(a, s, c.id) {
				n++
			}
		}
	}
	return n
}

// rescueUnarmed gives every soldier still without a weapon one random melee
// weapon it can wield.
func (d *Distributor) rescueUnarmed() int {
	cands := d.candidates(func(def *item.Def) bool { return def.Type.IsMelee() })
	n := 0
	for _, a := range d.soldiers {
		if !a.IsUnarmed() {
			continue
		}
		slot, ok := a.EmptyWeaponSlot()
		if !ok {
			continue
		}
		var pool []candidate
		for _, c := range cands {
			if d.stock.GetAmount(c.id) > 0 && suits(a, c.def, false) && a.CanWield(c.def) {
				pool = append(pool, c)
			}
		}
		i := dice.Pick(d.src, len(pool))
		if i < 0 {
			if !d.inStock(cands) {
				break
			}
			d.logger.Debug("no suitable melee weapon for unarmed soldier",
				zap.Int("soldier", a.Index),
				zap.String("troop", a.Troop.ID),
			)
			continue
		}
		if d.commit(a, slot, pool[i].id) {
			n++
		}
	}
	return n
}

// assignExtra gives one item satisfying keep to each soldier for which want
// holds, in the soldier's first empty weapon slot.
func (d *Distributor) assignExtra(want func(*Assignment) bool, keep func(*item.Def) bool) int {
	cands := d.candidates(keep)
	n := 0
	for _, a := range d.soldiers {
		if !d.inStock(cands) {
			break
		}
		if !want(a) {
			continue
		}
		slot, ok := a.EmptyWeaponSlot()
		if !ok {
			continue
		}
		c, ok := d.best(a, cands, func(c candidate) bool {
			return suits(a, c.def, false) && a.CanWield(c.def)
		})
		if ok && d.commit(a, slot, c.id) {
			n++
		}
	}
	return n
}
