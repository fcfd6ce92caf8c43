// Package ledger is the campaign-time bookkeeping loop over party armories:
// it trims stockpiles above their per-type caps and tops up the items a
// party's roster needs.
package ledger

import (
	"sort"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/blacklist"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/troop"
)

// Caps bounds how many units of each item type a party may stockpile.
// A cap of 0 means uncapped.
type Caps struct {
	Default int
	ByType  map[item.ItemType]int
}

// Cap returns the cap for t.
func (c Caps) Cap(t item.ItemType) int {
	if n, ok := c.ByType[t]; ok {
		return n
	}
	return c.Default
}

type ranked struct {
	entry armory.Entry
	tier  int
	value float64
}

// Collect withdraws the surplus of every item type whose total exceeds its
// cap, removing the lowest (tier, value) identities first. Items unknown to
// cat are left alone.
//
// Postcondition: for every capped type, the type's total is <= its cap.
// Returns the withdrawn entries.
func Collect(a *armory.Armory, cat *item.Catalog, scorer item.Scorer, caps Caps) []armory.Entry {
	byType := make(map[item.ItemType][]ranked)
	var types []item.ItemType
	a.Each(func(e armory.Entry) bool {
		d, ok := cat.Resolve(e.Identity)
		if !ok {
			return true
		}
		if _, seen := byType[d.Type]; !seen {
			types = append(types, d.Type)
		}
		byType[d.Type] = append(byType[d.Type], ranked{entry: e, tier: scorer.Tier(e.Identity), value: scorer.Value(e.Identity)})
		return true
	})

	var removed []armory.Entry
	for _, t := range types {
		limit := caps.Cap(t)
		if limit <= 0 {
			continue
		}
		rs := byType[t]
		total := 0
		for _, r := range rs {
			total += r.entry.Count
		}
		surplus := total - limit
		if surplus <= 0 {
			continue
		}
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].tier != rs[j].tier {
				return rs[i].tier < rs[j].tier
			}
			return rs[i].value < rs[j].value
		})
		for _, r := range rs {
			if surplus == 0 {
				break
			}
			n := min(r.entry.Count, surplus)
			if a.TryTake(r.entry.Identity, n) {
				removed = append(removed, armory.Entry{Identity: r.entry.Identity, Count: n})
				surplus -= n
			}
		}
	}
	return removed
}

// Demand returns, per reference identity, the number of units the roster
// needs: the sum of (count - wounded) over every non-hero element whose
// template references the identity, once per slot. The order is roster order
// then slot order.
func Demand(roster []troop.Element) []armory.Entry {
	index := make(map[item.Identity]int)
	var out []armory.Entry
	for _, el := range roster {
		n := el.Needing()
		if n == 0 {
			continue
		}
		ref := el.Troop.Reference()
		for s := item.Slot(0); s < item.NumSlots; s++ {
			id := ref.Get(s)
			if id.IsEmpty() {
				continue
			}
			if i, ok := index[id]; ok {
				out[i].Count += n
				continue
			}
			index[id] = len(out)
			out = append(out, armory.Entry{Identity: id, Count: n})
		}
	}
	return out
}

// Replenish tops up the shortfall of every identity in the roster's demand.
// Blacklisted and unknown identities are skipped, and no top-up raises a
// type's total above its cap.
//
// Returns the added entries.
func Replenish(a *armory.Armory, roster []troop.Element, cat *item.Catalog, filter *blacklist.Filter, caps Caps) []armory.Entry {
	if filter == nil {
		filter = blacklist.Empty()
	}
	totals := make(map[item.ItemType]int)
	a.Each(func(e armory.Entry) bool {
		if d, ok := cat.Resolve(e.Identity); ok {
			totals[d.Type] += e.Count
		}
		return true
	})

	var added []armory.Entry
	for _, want := range Demand(roster) {
		d, ok := cat.Resolve(want.Identity)
		if !ok || !filter.TestIdentity(cat, want.Identity) {
			continue
		}
		short := want.Count - a.GetAmount(want.Identity)
		if limit := caps.Cap(d.Type); limit > 0 {
			short = min(short, limit-totals[d.Type])
		}
		if short <= 0 {
			continue
		}
		if a.Store(want.Identity, short) {
			totals[d.Type] += short
			added = append(added, armory.Entry{Identity: want.Identity, Count: short})
		}
	}
	return added
}
