// Package catalog loads the built-in recommendation texts.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/farcloser/sonority/internal/types"
)

//go:embed catalog.yaml
var builtinYAML []byte

var (
	errDuplicateKey = errors.New("duplicate catalog key")
	errIncomplete   = errors.New("incomplete catalog entry")
)

// Entry is the static text of one recommendation variant. Several entries may share an ID
// and differ only in wording.
type Entry struct {
	Key   string   `yaml:"key"`
	ID    string   `yaml:"id"`
	Title string   `yaml:"title"`
	Why   string   `yaml:"why"`
	How   []string `yaml:"how"`
	Refs  []string `yaml:"refs"`
}

// Catalog indexes entries by key.
type Catalog struct {
	Version int
	entries map[string]Entry
}

type document struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog.Parse: %w", err)
	}

	cat := &Catalog{Version: doc.Version, entries: make(map[string]Entry, len(doc.Entries))}

	for _, entry := range doc.Entries {
		if entry.Key == "" || entry.ID == "" || entry.Title == "" || len(entry.How) == 0 {
			return nil, fmt.Errorf("catalog.Parse: %w: %q", errIncomplete, entry.Key)
		}

		if _, dup := cat.entries[entry.Key]; dup {
			return nil, fmt.Errorf("catalog.Parse: %w: %q", errDuplicateKey, entry.Key)
		}

		cat.entries[entry.Key] = entry
	}

	return cat, nil
}

// Lookup returns the entry for key.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	entry, ok := c.entries[key]

	return entry, ok
}

// Keys returns all keys, sorted.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

//nolint:gochecknoglobals // parsed once from embedded data
var builtin = sync.OnceValues(func() (*Catalog, error) {
	return Parse(builtinYAML)
})

// Builtin returns the embedded catalog.
func Builtin() (*Catalog, error) {
	return builtin()
}

// Recommendation builds a recommendation from a built-in entry.
// An unknown key or a broken embedded catalog is a programming error and panics.
func Recommendation(key string, severity types.Severity) *types.Recommendation {
	cat, err := builtin()
	if err != nil {
		panic(err)
	}

	entry, ok := cat.Lookup(key)
	if !ok {
		panic(fmt.Sprintf("catalog: unknown recommendation key %q", key))
	}

	rec := types.Recommendation{
		ID:       entry.ID,
		Severity: severity,
		Title:    entry.Title,
		Why:      entry.Why,
		How:      entry.How,
		Refs:     entry.Refs,
	}.Clone()

	return &rec
}
