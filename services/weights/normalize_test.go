package weights

import (
	"testing"

	"poeweights/services/catalog"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		PriceBands: []PriceBand{
			{UpperBound: 10, Overrepresentation: 2},
			{UpperBound: 0, Overrepresentation: 1},
		},
		PriceCurrency:    "chaos",
		ReferenceWeight:  1000,
		MediumSampleSize: 30,
		HighSampleSize:   200,
		CategoryFloor:    50,
	}
}

func lifeIndex(t *testing.T) *catalog.Index {
	ix, err := catalog.NewIndex(
		[]catalog.BaseItem{
			{Name: "Iron Ring", Category: catalog.CategoryAccessory},
			{Name: "Gold Ring", Category: catalog.CategoryAccessory},
		},
		[]catalog.ModifierDefinition{
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
		},
	)
	require.NoError(t, err)
	return ix
}

func pricedCell(base string, tier, count int, price float64) *Cell {
	cell := &Cell{
		Key:      CellKey{BaseItem: base, Modifier: "+# to maximum Life", Tier: tier},
		Category: catalog.CategoryAccessory,
		Count:    count,
	}
	for i := 0; i < count; i++ {
		cell.Prices = append(cell.Prices, price)
	}
	return cell
}

func estimateFor(t *testing.T, result Result, base string, tier int) Estimate {
	for _, e := range result.Estimates {
		if e.BaseItem == base && e.Tier == tier {
			return e
		}
	}
	t.Fatalf("no estimate for %s tier %d", base, tier)
	return Estimate{}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.NoError(t, testConfig().Validate())
	require.NoError(t, Config{}.Validate())

	descending := testConfig()
	descending.PriceBands = []PriceBand{
		{UpperBound: 50, Overrepresentation: 2},
		{UpperBound: 5, Overrepresentation: 1.25},
		{UpperBound: 0, Overrepresentation: 1},
	}
	require.ErrorContains(t, descending.Validate(), "must ascend")

	bounded := testConfig()
	bounded.PriceBands = []PriceBand{
		{UpperBound: 5, Overrepresentation: 2},
		{UpperBound: 50, Overrepresentation: 1},
	}
	require.ErrorContains(t, bounded.Validate(), "unbounded")

	negative := testConfig()
	negative.PriceBands[0].Overrepresentation = -1
	require.ErrorContains(t, negative.Validate(), "non-positive")
}

func TestNormalizeBiasCorrection(t *testing.T) {
	// 80 cheap tier 1 listings against 5 expensive tier 2 listings:
	// the corrected ratio must stay above 1 but land well under the
	// naive 16:1
	cells := []*Cell{
		pricedCell("Iron Ring", 1, 80, 3),
		pricedCell("Iron Ring", 2, 5, 150),
	}

	result := Normalize(cells, lifeIndex(t), testConfig())
	require.Len(t, result.Estimates, 2)

	tier1 := estimateFor(t, result, "Iron Ring", 1)
	tier2 := estimateFor(t, result, "Iron Ring", 2)

	require.Greater(t, tier1.Weight, tier2.Weight)
	ratio := tier1.Weight / tier2.Weight
	require.Less(t, ratio, 16.0)

	// tier 2 never shows up cheap, so its factor is unknowable
	require.Contains(t, tier2.Flags, FlagHighValueBias)
	require.Empty(t, tier1.Flags)
}

func TestNormalizeMonotonicity(t *testing.T) {
	cells := []*Cell{
		pricedCell("Iron Ring", 1, 80, 3),
		pricedCell("Iron Ring", 2, 5, 150),
		pricedCell("Gold Ring", 2, 12, 8),
	}

	result := Normalize(cells, lifeIndex(t), testConfig())

	maxWeight := 0.0
	for _, e := range result.Estimates {
		require.LessOrEqual(t, e.Weight, 1000.0)
		if e.Weight > maxWeight {
			maxWeight = e.Weight
		}
	}
	require.InDelta(t, 1000.0, maxWeight, 1e-9)
}

func TestNormalizePoolsExactDefinitionsOnly(t *testing.T) {
	// Gold Ring's sparse tier 1 pools with Iron Ring's well-sampled
	// tier 1; tier 2 has different rolls and must stay separate
	cells := []*Cell{
		pricedCell("Iron Ring", 1, 90, 3),
		pricedCell("Gold Ring", 1, 10, 3),
		pricedCell("Iron Ring", 2, 40, 3),
	}

	result := Normalize(cells, lifeIndex(t), testConfig())

	ironTier1 := estimateFor(t, result, "Iron Ring", 1)
	goldTier1 := estimateFor(t, result, "Gold Ring", 1)
	ironTier2 := estimateFor(t, result, "Iron Ring", 2)

	require.InDelta(t, ironTier1.Weight, goldTier1.Weight, 1e-9)
	require.NotEqual(t, ironTier1.Weight, ironTier2.Weight)
}

func TestNormalizeInsufficientCategory(t *testing.T) {
	cells := []*Cell{
		pricedCell("Iron Ring", 1, 10, 3),
	}

	result := Normalize(cells, lifeIndex(t), testConfig())
	require.Equal(t, 10, result.InsufficientCategories[catalog.CategoryAccessory])

	for _, e := range result.Estimates {
		require.NotEqual(t, ConfidenceHigh, e.Confidence)
		require.Contains(t, e.Flags, FlagInsufficientSample)
	}
}

func TestNormalizeConfidenceBands(t *testing.T) {
	cells := []*Cell{
		pricedCell("Iron Ring", 1, 10, 3),
		pricedCell("Iron Ring", 2, 60, 3),
		pricedCell("Gold Ring", 2, 250, 3),
	}

	result := Normalize(cells, lifeIndex(t), testConfig())
	require.Equal(t, ConfidenceLow, estimateFor(t, result, "Iron Ring", 1).Confidence)
	require.Equal(t, ConfidenceMedium, estimateFor(t, result, "Iron Ring", 2).Confidence)
	require.Equal(t, ConfidenceHigh, estimateFor(t, result, "Gold Ring", 2).Confidence)
}
