package distribution

import (
	"sort"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/item"
)

// HorseAndHarness is one mount unit with its optional harness or saddle.
type HorseAndHarness struct {
	Horse   item.Identity
	Harness item.Identity
	tier    int
	value   float64
}

// Tier is the sum of the component tiers.
func (h HorseAndHarness) Tier() int { return h.tier }

// Value is the sum of the component values.
func (h HorseAndHarness) Value() float64 { return h.value }

// stockUnit is a ranked armory entry with a mutable remaining count.
type stockUnit struct {
	id    item.Identity
	def   *item.Def
	left  int
	tier  int
	value float64
}

func rankDesc(units []*stockUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].tier != units[j].tier {
			return units[i].tier > units[j].tier
		}
		return units[i].value > units[j].value
	})
}

// PairHorses builds the mount assignment list from stock.
//
// Horses and harnesses are bucketed by family and ranked by (tier, value)
// descending; within a family they are paired unit by unit. Horses left without
// a harness take a saddle from the saddle pool, first available in armory
// order. The result is ordered by combined (tier, value) descending and is
// deterministic for a given armory order.
//
// Postcondition: no identity appears in more records than its count in stock.
func PairHorses(stock *armory.Armory, cat *item.Catalog, scorer item.Scorer) []HorseAndHarness {
	horses := make(map[string][]*stockUnit)
	harnesses := make(map[string][]*stockUnit)
	var families []string
	var saddles []*stockUnit

	stock.Each(func(e armory.Entry) bool {
		d, ok := cat.Resolve(e.Identity)
		if !ok {
			return true
		}
		u := &stockUnit{id: e.Identity, def: d, left: e.Count, tier: scorer.Tier(e.Identity), value: scorer.Value(e.Identity)}
		switch k := d.Kind.(type) {
		case item.Mount:
			if _, seen := horses[k.Family]; !seen {
				families = append(families, k.Family)
			}
			horses[k.Family] = append(horses[k.Family], u)
		case item.MountArmor:
			if k.IsSaddle() {
				saddles = append(saddles, u)
			} else {
				harnesses[k.Family] = append(harnesses[k.Family], u)
			}
		}
		return true
	})

	var out []HorseAndHarness
	for _, family := range families {
		hs, rs := horses[family], harnesses[family]
		rankDesc(hs)
		rankDesc(rs)
		ri := 0
		for _, h := range hs {
			for ; h.left > 0; h.left-- {
				pair := HorseAndHarness{Horse: h.id, tier: h.tier, value: h.value}
				for ri < len(rs) && rs[ri].left == 0 {
					ri++
				}
				if ri < len(rs) {
					r := rs[ri]
					r.left--
					pair.Harness = r.id
					pair.tier += r.tier
					pair.value += r.value
				}
				out = append(out, pair)
			}
		}
	}

	si := 0
	for i := range out {
		if !out[i].Harness.IsEmpty() {
			continue
		}
		family := familyOf(cat, out[i].Horse)
		for si < len(saddles) && saddles[si].left == 0 {
			si++
		}
		// The saddle pool is scanned in armory order; family-bound saddles
		// only fit their own family.
		for j := si; j < len(saddles); j++ {
			s := saddles[j]
			if s.left == 0 || (s.def.Family() != "" && s.def.Family() != family) {
				continue
			}
			s.left--
			out[i].Harness = s.id
			out[i].tier += s.tier
			out[i].value += s.value
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].tier != out[j].tier {
			return out[i].tier > out[j].tier
		}
		return out[i].value > out[j].value
	})
	return out
}

func familyOf(cat *item.Catalog, id item.Identity) string {
	if d, ok := cat.Resolve(id); ok {
		return d.Family()
	}
	return ""
}
