package collector

import (
	"testing"

	"poeweights/services/catalog"

	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T, defs []catalog.ModifierDefinition) *catalog.Index {
	ix, err := catalog.NewIndex([]catalog.BaseItem{
		{Name: "Iron Ring", Category: catalog.CategoryAccessory},
	}, defs)
	require.NoError(t, err)
	return ix
}

func lifeTiers() []catalog.ModifierDefinition {
	return []catalog.ModifierDefinition{
		{
			Name:  "+# to maximum Life",
			Tier:  1,
			Rolls: []catalog.RollRange{{Min: 20, Max: 29}},
		},
		{
			Name:  "+# to maximum Life",
			Tier:  2,
			Rolls: []catalog.RollRange{{Min: 30, Max: 39}},
		},
	}
}

func TestMatchLineTierSelection(t *testing.T) {
	matcher := NewMatcher(testIndex(t, lifeTiers()))
	item := ObservedItem{TradeId: "t1"}

	result := matcher.MatchLine(item, "+25 to maximum Life", []float64{25}, false)
	require.Equal(t, MatchOk, result.Kind)
	require.Equal(t, 1, result.Definition.Tier)

	result = matcher.MatchLine(item, "+35 to maximum Life", []float64{35}, false)
	require.Equal(t, MatchOk, result.Kind)
	require.Equal(t, 2, result.Definition.Tier)
}

func TestMatchLineOutOfRange(t *testing.T) {
	matcher := NewMatcher(testIndex(t, lifeTiers()))

	result := matcher.MatchLine(ObservedItem{}, "+99 to maximum Life", []float64{99}, false)
	require.Equal(t, MatchOutOfRange, result.Kind)
	require.NotEmpty(t, result.Candidates)
}

func TestMatchLineNoMatch(t *testing.T) {
	matcher := NewMatcher(testIndex(t, lifeTiers()))

	// a stat line with no catalog template never attaches to another
	// modifier's counts
	result := matcher.MatchLine(ObservedItem{}, "+15 to Strength", []float64{15}, false)
	require.Equal(t, MatchNone, result.Kind)
	require.Empty(t, result.Candidates)
}

func TestMatchLineCraftedDisambiguation(t *testing.T) {
	defs := []catalog.ModifierDefinition{
		{
			Name:  "#% increased Attack Speed",
			Tier:  1,
			Rolls: []catalog.RollRange{{Min: 8, Max: 16}},
		},
		{
			Name:    "#% Increased Attack Speed",
			Tier:    1,
			Rolls:   []catalog.RollRange{{Min: 8, Max: 16}},
			Crafted: true,
		},
	}
	matcher := NewMatcher(testIndex(t, defs))

	result := matcher.MatchLine(ObservedItem{}, "12% increased Attack Speed", []float64{12}, true)
	require.Equal(t, MatchOk, result.Kind)
	require.True(t, result.Definition.Crafted)

	result = matcher.MatchLine(ObservedItem{}, "12% increased Attack Speed", []float64{12}, false)
	require.Equal(t, MatchOk, result.Kind)
	require.False(t, result.Definition.Crafted)
}

func TestMatchLineStatRequirementDisambiguation(t *testing.T) {
	defs := []catalog.ModifierDefinition{
		{
			Name:             "+# to Accuracy Rating",
			Tier:             1,
			Rolls:            []catalog.RollRange{{Min: 50, Max: 100}},
			StatRequirements: catalog.StatRequirements{catalog.Dexterity: 150},
		},
		{
			Name:  "+# to Accuracy rating",
			Tier:  1,
			Rolls: []catalog.RollRange{{Min: 50, Max: 100}},
		},
	}
	matcher := NewMatcher(testIndex(t, defs))

	item := ObservedItem{AttributeValues: map[catalog.Attribute]int{catalog.Dexterity: 40}}
	result := matcher.MatchLine(item, "+80 to Accuracy Rating", []float64{80}, false)
	require.Equal(t, MatchOk, result.Kind)
	require.Empty(t, result.Definition.StatRequirements)
}

func TestMatchLineAmbiguous(t *testing.T) {
	defs := []catalog.ModifierDefinition{
		{
			Name:  "+# to Evasion Rating",
			Tier:  1,
			Rolls: []catalog.RollRange{{Min: 10, Max: 50}},
		},
		{
			Name:  "+# to Evasion rating",
			Tier:  1,
			Rolls: []catalog.RollRange{{Min: 10, Max: 50}},
		},
	}
	matcher := NewMatcher(testIndex(t, defs))

	result := matcher.MatchLine(ObservedItem{}, "+30 to Evasion Rating", []float64{30}, false)
	require.Equal(t, MatchAmbiguous, result.Kind)
	require.Len(t, result.Candidates, 2)
}

func TestMatchLineAttributeScaling(t *testing.T) {
	defs := []catalog.ModifierDefinition{
		{
			Name:             "+# to Armour",
			Tier:             1,
			Rolls:            []catalog.RollRange{{Min: 10, Max: 20}},
			AttributeScaling: map[catalog.Attribute]float64{catalog.Strength: 2},
		},
	}
	matcher := NewMatcher(testIndex(t, defs))

	// 30 displayed = 15 base roll after the strength coefficient
	item := ObservedItem{AttributeValues: map[catalog.Attribute]int{catalog.Strength: 120}}
	result := matcher.MatchLine(item, "+30 to Armour", []float64{30}, false)
	require.Equal(t, MatchOk, result.Kind)
}

func TestMatchItemRollContainment(t *testing.T) {
	matcher := NewMatcher(testIndex(t, lifeTiers()))

	item := ObservedItem{
		TradeId: "t1",
		Stats: map[string][]float64{
			"+25 to maximum Life": {25},
			"+99 to maximum Life": {99},
			"+15 to Strength":     {15},
		},
	}
	matched, results := matcher.MatchItem(item)
	require.Len(t, matched, 1)
	require.Len(t, results, 3)

	// every matched instance lies inside its own tier's bounds
	for _, m := range matched {
		require.True(t, m.Definition.ContainsRolls(m.Values))
	}
}
