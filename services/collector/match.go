package collector

import (
	"poeweights/lib/textutil"
	"poeweights/services/catalog"
)

// MatchKind tags the outcome of matching one stat line.
type MatchKind string

const (
	MatchOk         MatchKind = "matched"
	MatchAmbiguous  MatchKind = "ambiguous_modifier"
	MatchOutOfRange MatchKind = "roll_out_of_range"
	MatchNone       MatchKind = "no_match"
)

// MatchResult is the per-line outcome. Definition is set for MatchOk;
// Candidates holds what was considered for the failure kinds, so skips
// can be reviewed against the catalog.
type MatchResult struct {
	Kind       MatchKind
	Line       string
	Values     []float64
	Crafted    bool
	Definition catalog.ModifierDefinition
	Candidates []catalog.ModifierDefinition
}

// Matcher resolves raw stat lines against the catalog index. It holds
// no mutable state and is safe to share across workers.
type Matcher struct {
	index *catalog.Index
}

func NewMatcher(index *catalog.Index) Matcher {
	return Matcher{index: index}
}

// MatchItem matches every stat line of an item. Returns the resolved
// modifier instances and the per-line results, including failures.
func (m Matcher) MatchItem(item ObservedItem) ([]MatchedModifier, []MatchResult) {
	var matched []MatchedModifier
	var results []MatchResult

	match := func(line string, values []float64, crafted bool) {
		result := m.MatchLine(item, line, values, crafted)
		results = append(results, result)
		if result.Kind == MatchOk {
			matched = append(matched, MatchedModifier{
				Line:       line,
				Definition: result.Definition,
				Values:     result.Values,
			})
		}
	}

	for line, values := range item.Stats {
		match(line, values, false)
	}
	for line, values := range item.CraftedStats {
		match(line, values, true)
	}
	return matched, results
}

// MatchLine resolves a single stat line. The line's numbers have
// already been extracted by the ingestor; crafted says whether the
// line came from the listing's crafted mod section.
func (m Matcher) MatchLine(item ObservedItem, line string, values []float64, crafted bool) MatchResult {
	result := MatchResult{
		Kind:    MatchNone,
		Line:    line,
		Values:  values,
		Crafted: crafted,
	}

	candidates := m.index.Candidates(textutil.Templatize(line))
	if len(candidates) == 0 {
		return result
	}
	result.Candidates = candidates

	// group tiers of the same modifier into families, then find the
	// tier in each family whose sub-ranges contain the rolled values
	var families []string
	viable := make(map[string]catalog.ModifierDefinition)
	for _, def := range candidates {
		effective := scaledValues(def, item, values)
		if !def.ContainsRolls(effective) {
			continue
		}
		current, seen := viable[def.Name]
		if !seen {
			families = append(families, def.Name)
			viable[def.Name] = def
			continue
		}
		// overlapping tier ranges resolve to the lowest tier
		if def.Tier < current.Tier {
			viable[def.Name] = def
		}
	}

	if len(families) == 0 {
		result.Kind = MatchOutOfRange
		return result
	}

	// text collisions between distinct modifier families: prefer the
	// family matching the line's crafted origin, then the one whose
	// stat requirements the item satisfies
	if len(families) > 1 {
		families = filterFamilies(families, viable, func(def catalog.ModifierDefinition) bool {
			return def.Crafted == crafted
		})
	}
	if len(families) > 1 {
		families = filterFamilies(families, viable, func(def catalog.ModifierDefinition) bool {
			return meetsRequirements(def.StatRequirements, item.AttributeValues)
		})
	}
	if len(families) > 1 {
		result.Kind = MatchAmbiguous
		return result
	}

	result.Kind = MatchOk
	result.Definition = viable[families[0]]
	return result
}

func filterFamilies(
	families []string,
	viable map[string]catalog.ModifierDefinition,
	keep func(catalog.ModifierDefinition) bool,
) []string {
	var kept []string
	for _, name := range families {
		if keep(viable[name]) {
			kept = append(kept, name)
		}
	}
	if len(kept) == 0 {
		// the hint eliminated everything, it was not discriminating
		return families
	}
	return kept
}

func meetsRequirements(reqs catalog.StatRequirements, attrs map[catalog.Attribute]int) bool {
	for attr, threshold := range reqs {
		if attrs[attr] < threshold {
			return false
		}
	}
	return true
}

// scaledValues divides the observed values by the definition's
// coefficient for the item's dominant attribute, undoing
// attribute-scaled display before range containment is checked.
func scaledValues(def catalog.ModifierDefinition, item ObservedItem, values []float64) []float64 {
	if len(def.AttributeScaling) == 0 || len(item.AttributeValues) == 0 {
		return values
	}

	attr, ok := dominantAttribute(item.AttributeValues)
	if !ok {
		return values
	}
	coefficient, ok := def.AttributeScaling[attr]
	if !ok || coefficient == 0 {
		return values
	}

	scaled := make([]float64, len(values))
	for i, v := range values {
		scaled[i] = v / coefficient
	}
	return scaled
}

func dominantAttribute(attrs map[catalog.Attribute]int) (catalog.Attribute, bool) {
	var best catalog.Attribute
	bestValue := -1
	for attr, value := range attrs {
		if value > bestValue {
			best = attr
			bestValue = value
		}
	}
	return best, bestValue >= 0
}
