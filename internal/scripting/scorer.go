package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/item"
)

// Hook names a score script may define. Either may be omitted.
const (
	TierHook  = "item_tier"
	ValueHook = "item_value"
)

// Scorer is an item.Scorer whose tier and value come from a Lua script.
//
// The hooks receive one table describing the identity (id, name, culture,
// type, class, family, modifier, base_tier, base_value, armor, couchable,
// not_for_mount, difficulty) and return a number. A missing hook, a runtime
// error, or a non-number result falls back to the wrapped scorer.
//
// Scorer is safe for concurrent use; calls into the VM are serialized.
type Scorer struct {
	mu       sync.Mutex
	sandbox  *Sandbox
	catalog  *item.Catalog
	fallback item.Scorer
	logger   *zap.Logger
}

// NewScorer loads the score script at path into a sandboxed VM. path may be a
// single .lua file or a directory whose *.lua files are run in lexicographic
// order.
//
// Precondition: cat must be non-nil. A nil fallback uses item.CatalogScorer.
// Postcondition: returns a Scorer ready for use, or an error on load failure.
func NewScorer(path string, instLimit int, cat *item.Catalog, fallback item.Scorer, logger *zap.Logger) (*Scorer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallback == nil {
		fallback = item.CatalogScorer{Catalog: cat}
	}
	files, err := scriptFiles(path)
	if err != nil {
		return nil, err
	}

	sb := NewSandbox(instLimit)
	registerModules(sb.State(), logger)
	for _, f := range files {
		if err := sb.DoFile(f); err != nil {
			sb.Close()
			return nil, fmt.Errorf("scripting: loading %q: %w", f, err)
		}
	}
	logger.Info("score script loaded", zap.String("path", path), zap.Int("files", len(files)))
	return &Scorer{
		sandbox:  sb,
		catalog:  cat,
		fallback: fallback,
		logger:   logger,
	}, nil
}

func scriptFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Close releases the VM.
func (s *Scorer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sandbox.Close()
}

// Tier implements item.Scorer. Script results are clamped to [0, item.MaxTier].
func (s *Scorer) Tier(id item.Identity) int {
	v, ok := s.call(TierHook, id)
	if !ok {
		return s.fallback.Tier(id)
	}
	return max(0, min(item.MaxTier, int(math.Round(v))))
}

// Value implements item.Scorer. Negative script results score 0.
func (s *Scorer) Value(id item.Identity) float64 {
	v, ok := s.call(ValueHook, id)
	if !ok {
		return s.fallback.Value(id)
	}
	return math.Max(0, v)
}

func (s *Scorer) call(hook string, id item.Identity) (float64, bool) {
	d, ok := s.catalog.Resolve(id)
	if !ok {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ret lua.LValue = lua.LNil
	err := s.sandbox.Run(func(L *lua.LState) error {
		fn := L.GetGlobal(hook)
		if fn.Type() != lua.LTFunction {
			return nil
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, s.itemTable(L, id, d)); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		s.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.String("item", id.String()),
			zap.Error(err),
		)
		return 0, false
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		if ret != lua.LNil {
			s.logger.Warn("scripting: hook returned a non-number",
				zap.String("hook", hook),
				zap.String("item", id.String()),
				zap.String("type", ret.Type().String()),
			)
		}
		return 0, false
	}
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.logger.Warn("scripting: hook returned a non-finite number",
			zap.String("hook", hook),
			zap.String("item", id.String()),
			zap.Float64("result", v),
		)
		return 0, false
	}
	return v, true
}

func (s *Scorer) itemTable(L *lua.LState, id item.Identity, d *item.Def) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(d.ID))
	L.SetField(t, "name", lua.LString(d.Name))
	L.SetField(t, "culture", lua.LString(d.Culture))
	L.SetField(t, "type", lua.LString(d.Type))
	L.SetField(t, "modifier", lua.LString(id.ModifierID))
	L.SetField(t, "base_tier", lua.LNumber(s.fallback.Tier(id)))
	L.SetField(t, "base_value", lua.LNumber(s.fallback.Value(id)))
	if c := d.Class(); c != "" {
		L.SetField(t, "class", lua.LString(c))
	}
	if f := d.Family(); f != "" {
		L.SetField(t, "family", lua.LString(f))
	}
	switch k := d.Kind.(type) {
	case item.Armor:
		L.SetField(t, "armor", lua.LNumber(k.ArmorValue))
	case item.MountArmor:
		L.SetField(t, "armor", lua.LNumber(k.ArmorValue))
	case item.Weapon:
		L.SetField(t, "couchable", lua.LBool(k.Couchable))
		L.SetField(t, "not_for_mount", lua.LBool(k.NotForMount))
		L.SetField(t, "difficulty", lua.LNumber(k.Difficulty))
	case item.Consumable:
		L.SetField(t, "stack", lua.LNumber(k.Stack))
	}
	return t
}
