package item

import "sync"

// Scorer is the scoring oracle consulted for ranking. The distribution engine
// only relies on the returned numbers being stable for a given Identity.
type Scorer interface {
	Tier(id Identity) int
	Value(id Identity) float64
}

// CatalogScorer scores identities from their catalog definitions: tier is the
// base tier plus the modifier's TierDelta clamped to [0, MaxTier]; value is
// the base value times the modifier's PriceFactor.
type CatalogScorer struct {
	Catalog *Catalog
}

// Tier implements Scorer. Unknown items score 0.
func (s CatalogScorer) Tier(id Identity) int {
	d, ok := s.Catalog.Resolve(id)
	if !ok {
		return 0
	}
	tier := d.Tier
	if m, ok := s.Catalog.Modifier(id.ModifierID); ok {
		tier += m.TierDelta
	}
	if tier < 0 {
		return 0
	}
	if tier > MaxTier {
		return MaxTier
	}
	return tier
}

// Value implements Scorer. Unknown items score 0.
func (s CatalogScorer) Value(id Identity) float64 {
	d, ok := s.Catalog.Resolve(id)
	if !ok {
		return 0
	}
	v := float64(d.Value)
	if m, ok := s.Catalog.Modifier(id.ModifierID); ok {
		v *= m.PriceFactor
	}
	return v
}

type scoreKind uint8

const (
	scoreTier scoreKind = iota
	scoreValue
)

type scoreKey struct {
	id   Identity
	kind scoreKind
}

// MemoScorer memoizes an underlying Scorer. Results are cached per
// (identity, score kind); it is safe for concurrent use.
type MemoScorer struct {
	inner Scorer
	cache sync.Map // scoreKey → float64
}

// NewMemoScorer wraps inner with a memoization cache.
//
// Precondition: inner must not be nil.
func NewMemoScorer(inner Scorer) *MemoScorer {
	return &MemoScorer{inner: inner}
}

// Tier implements Scorer.
func (m *MemoScorer) Tier(id Identity) int {
	key := scoreKey{id: id, kind: scoreTier}
	if v, ok := m.cache.Load(key); ok {
		return int(v.(float64))
	}
	t := m.inner.Tier(id)
	m.cache.Store(key, float64(t))
	return t
}

// Value implements Scorer.
func (m *MemoScorer) Value(id Identity) float64 {
	key := scoreKey{id: id, kind: scoreValue}
	if v, ok := m.cache.Load(key); ok {
		return v.(float64)
	}
	v := m.inner.Value(id)
	m.cache.Store(key, v)
	return v
}
