package catalog

import (
	"fmt"

	"poeweights/lib/textutil"

	"github.com/antzucaro/matchr"
)

// Index is the read-only in-memory view of the catalog, built once per
// run and shared across workers. It is never mutated after NewIndex
// returns.
type Index struct {
	bases     map[string]BaseItem
	aliases   map[string]string
	templates map[string][]ModifierDefinition
	baseNames []string
	modifiers []ModifierDefinition
}

func NewIndex(bases []BaseItem, modifiers []ModifierDefinition) (*Index, error) {
	err := Validate(modifiers)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		bases:     make(map[string]BaseItem, len(bases)),
		aliases:   make(map[string]string),
		templates: make(map[string][]ModifierDefinition),
		modifiers: modifiers,
	}

	for _, b := range bases {
		ix.bases[textutil.NormalizeName(b.Name)] = b
		ix.baseNames = append(ix.baseNames, b.Name)
		for _, alias := range b.Aliases() {
			ix.aliases[textutil.NormalizeName(alias)] = b.Name
		}
	}

	for _, def := range modifiers {
		template := textutil.Templatize(def.Name)
		ix.templates[template] = append(ix.templates[template], def)
	}

	return ix, nil
}

// Validate surfaces catalog-level inconsistencies before any batch
// runs. These are configuration errors, not per-record skips.
func Validate(modifiers []ModifierDefinition) error {
	seen := make(map[string]struct{}, len(modifiers))
	for _, def := range modifiers {
		key := def.Key()
		_, dup := seen[key]
		if dup {
			return fmt.Errorf("duplicate modifier definition: %s", key)
		}
		seen[key] = struct{}{}

		if def.Tier > 0 && len(def.Rolls) == 0 {
			return fmt.Errorf("modifier %q tier %d has no roll ranges", def.Name, def.Tier)
		}
		for i, r := range def.Rolls {
			if r.Min > r.Max {
				return fmt.Errorf(
					"modifier %q tier %d roll %d has inverted range [%v,%v]",
					def.Name, def.Tier, i, r.Min, r.Max,
				)
			}
		}
	}
	return nil
}

// ResolveBase looks a base item up by exact name or alias.
func (ix *Index) ResolveBase(name string) (BaseItem, bool) {
	normalized := textutil.NormalizeName(name)
	base, ok := ix.bases[normalized]
	if ok {
		return base, true
	}
	canonical, ok := ix.aliases[normalized]
	if ok {
		return ix.bases[textutil.NormalizeName(canonical)], true
	}
	return BaseItem{}, false
}

// NearestBaseName returns the catalog base name most similar to the
// given name, for skip-log suggestions. Returns false when the catalog
// is empty.
func (ix *Index) NearestBaseName(name string) (string, float64, bool) {
	var best string
	var bestSimilarity float64
	for _, candidate := range ix.baseNames {
		similarity := matchr.JaroWinkler(name, candidate, false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = candidate
		}
	}
	return best, bestSimilarity, best != ""
}

// Candidates returns every modifier definition whose template matches
// the templatized stat line.
func (ix *Index) Candidates(template string) []ModifierDefinition {
	return ix.templates[template]
}

// Modifiers returns every definition in the catalog.
func (ix *Index) Modifiers() []ModifierDefinition {
	return ix.modifiers
}

// BaseItems returns every base item, keyed by normalized name.
func (ix *Index) BaseItems() map[string]BaseItem {
	return ix.bases
}
