// Package blacklist filters items by configured deny-lists of exact IDs,
// exact display names, and ID and name regular expressions.
package blacklist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/armory/internal/game/item"
)

// Document is the YAML shape of a blacklist configuration file.
type Document struct {
	IDs          []string `yaml:"ids"`
	Names        []string `yaml:"names"`
	IDPatterns   []string `yaml:"id_patterns"`
	NamePatterns []string `yaml:"name_patterns"`
}

// Filter is an immutable item predicate built from a Document. Results of
// Test are memoized per item ID.
//
// Filter is safe for concurrent use.
type Filter struct {
	ids          map[string]struct{}
	names        map[string]struct{}
	idPatterns   []*regexp.Regexp
	namePatterns []*regexp.Regexp
	memo         sync.Map // item ID → bool
}

// New compiles doc into a Filter. Malformed patterns are logged and skipped.
//
// Postcondition: returns a non-nil Filter.
func New(doc Document, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Filter{
		ids:   make(map[string]struct{}, len(doc.IDs)),
		names: make(map[string]struct{}, len(doc.Names)),
	}
	for _, id := range doc.IDs {
		f.ids[id] = struct{}{}
	}
	for _, n := range doc.Names {
		f.names[n] = struct{}{}
	}
	f.idPatterns = compileAll(doc.IDPatterns, "id_patterns", logger)
	f.namePatterns = compileAll(doc.NamePatterns, "name_patterns", logger)
	return f
}

func compileAll(patterns []string, field string, logger *zap.Logger) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Warn("blacklist: skipping malformed pattern",
				zap.String("field", field),
				zap.String("pattern", p),
				zap.Error(err),
			)
			continue
		}
		out = append(out, re)
	}
	return out
}

// Empty returns a Filter that passes every item.
func Empty() *Filter { return New(Document{}, nil) }

// Parse decodes a YAML blacklist document and compiles it.
func Parse(data []byte, logger *zap.Logger) (*Filter, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("blacklist: parsing document: %w", err)
	}
	return New(doc, logger), nil
}

// Load reads the blacklist at path. When path does not exist the bundled
// example at examplePath is copied to path first. When neither exists, or
// either cannot be read or parsed, the error is logged and an empty filter
// is returned.
//
// Postcondition: always returns a non-nil Filter.
func Load(path, examplePath string, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = copyExample(path, examplePath)
		if err == nil {
			logger.Info("blacklist: installed example configuration",
				zap.String("path", path),
				zap.String("example", examplePath),
			)
		}
	}
	if err != nil {
		logger.Error("blacklist: no configuration available, all items pass",
			zap.String("path", path),
			zap.Error(err),
		)
		return Empty()
	}
	f, err := Parse(data, logger)
	if err != nil {
		logger.Error("blacklist: invalid configuration, all items pass",
			zap.String("path", path),
			zap.Error(err),
		)
		return Empty()
	}
	return f
}

func copyExample(path, examplePath string) ([]byte, error) {
	data, err := os.ReadFile(examplePath)
	if err != nil {
		return nil, fmt.Errorf("reading example %q: %w", examplePath, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %q: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %q: %w", path, err)
	}
	return data, nil
}

// Test reports whether d passes the filter (matches no deny-list).
//
// Postcondition: the result for a given d.ID never changes for the lifetime of f.
func (f *Filter) Test(d *item.Def) bool {
	if d == nil {
		return false
	}
	if v, ok := f.memo.Load(d.ID); ok {
		return v.(bool)
	}
	ok := f.test(d.ID, d.Name)
	f.memo.Store(d.ID, ok)
	return ok
}

func (f *Filter) test(id, name string) bool {
	if _, hit := f.ids[id]; hit {
		return false
	}
	if _, hit := f.names[name]; hit {
		return false
	}
	for _, re := range f.idPatterns {
		if re.MatchString(id) {
			return false
		}
	}
	for _, re := range f.namePatterns {
		if re.MatchString(name) {
			return false
		}
	}
	return true
}

// TestIdentity resolves id in cat and tests its base item. Unknown items fail.
func (f *Filter) TestIdentity(cat *item.Catalog, id item.Identity) bool {
	d, ok := cat.Resolve(id)
	if !ok {
		return false
	}
	return f.Test(d)
}

// Size returns the number of exact entries and compiled patterns.
func (f *Filter) Size() int {
	return len(f.ids) + len(f.names) + len(f.idPatterns) + len(f.namePatterns)
}
