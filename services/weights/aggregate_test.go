package weights

import (
	"context"
	"math/rand"
	"testing"

	"poeweights/lib/testutil"
	"poeweights/services/catalog"
	"poeweights/services/collector"

	"github.com/stretchr/testify/require"
)

func record(base string, tier int, price float64) collector.MatchRecord {
	r := collector.MatchRecord{
		BaseItem:     base,
		Category:     catalog.CategoryAccessory,
		ModifierName: "+# to maximum Life",
		Tier:         tier,
		Values:       []float64{25},
	}
	if price > 0 {
		r.Price = &collector.Price{Amount: price, Currency: "chaos"}
	}
	return r
}

func TestAggregationAdd(t *testing.T) {
	agg := NewAggregation("chaos")
	agg.Add(record("Iron Ring", 1, 3))
	agg.Add(record("Iron Ring", 1, 0))
	agg.Add(record("Iron Ring", 2, 100))

	cells := agg.Cells()
	require.Len(t, cells, 2)

	tier1 := cells[0]
	require.Equal(t, CellKey{BaseItem: "Iron Ring", Modifier: "+# to maximum Life", Tier: 1}, tier1.Key)
	require.Equal(t, 2, tier1.Count)
	require.Equal(t, []float64{3}, tier1.Prices)
	require.Equal(t, 1, tier1.Unpriced)
}

func TestAggregationCurrencyFilter(t *testing.T) {
	agg := NewAggregation("chaos")
	r := record("Iron Ring", 1, 0)
	r.Price = &collector.Price{Amount: 2, Currency: "divine"}
	agg.Add(r)

	cells := agg.Cells()
	require.Len(t, cells, 1)
	require.Empty(t, cells[0].Prices)
	require.Equal(t, 1, cells[0].Unpriced)
}

func TestAggregationMerge(t *testing.T) {
	a := NewAggregation("chaos")
	a.Add(record("Iron Ring", 1, 3))
	b := NewAggregation("chaos")
	b.Add(record("Iron Ring", 1, 7))
	b.Add(record("Gold Ring", 1, 2))

	a.Merge(b)
	cells := a.Cells()
	require.Len(t, cells, 2)

	ironRing := cells[1]
	require.Equal(t, "Iron Ring", ironRing.Key.BaseItem)
	require.Equal(t, 2, ironRing.Count)
	require.ElementsMatch(t, []float64{3, 7}, ironRing.Prices)
}

func TestAggregateParallelMatchesSequential(t *testing.T) {
	rndm := rand.New(rand.NewSource(4))
	tierSwitch := testutil.RandomSwitch(7, 3)

	var records []collector.MatchRecord
	for i := 0; i < 200; i++ {
		records = append(records, record("Iron Ring", 1+tierSwitch(rndm), float64(i%10)))
	}

	sequential := NewAggregation("chaos")
	for _, r := range records {
		sequential.Add(r)
	}

	parallel, err := Aggregate(context.Background(), 8, "chaos", records)
	require.NoError(t, err)

	want := sequential.Cells()
	got := parallel.Cells()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Key, got[i].Key)
		require.Equal(t, want[i].Count, got[i].Count)
		require.Equal(t, want[i].Unpriced, got[i].Unpriced)
		require.ElementsMatch(t, want[i].Prices, got[i].Prices)
	}
}
