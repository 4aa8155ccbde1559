package memory

import (
	"context"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/utafrali/storefront/internal/store"
)

//go:embed seed/catalog.yaml
var defaultSeed []byte

// Seed is the YAML shape of a store fixture: rows per collection.
type Seed struct {
	Collections map[string][]store.Record `yaml:"collections"`
}

// DecodeSeed parses a YAML fixture.
func DecodeSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &s, nil
}

// DefaultSeed returns the embedded development catalog.
func DefaultSeed() *Seed {
	var s Seed
	if err := yaml.Unmarshal(defaultSeed, &s); err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return &s
}

// Load inserts every row of seed into st.
func (s *Store) Load(ctx context.Context, seed *Seed) error {
	for collection, rows := range seed.Collections {
		for _, row := range rows {
			if _, err := s.Insert(ctx, collection, normalizeYAML(row)); err != nil {
				return fmt.Errorf("seed %s: %w", collection, err)
			}
		}
	}
	return nil
}

// normalizeYAML turns yaml sequences into string slices so they behave like
// the array columns of the other backends.
func normalizeYAML(rec store.Record) store.Record {
	out := make(store.Record, len(rec))
	for k, v := range rec {
		if vs, ok := v.([]any); ok {
			strs := make([]string, len(vs))
			for i, x := range vs {
				strs[i] = fmt.Sprint(x)
			}
			out[k] = strs
			continue
		}
		out[k] = v
	}
	return out
}
