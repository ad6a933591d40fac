package weights

import (
	"context"
	"testing"

	"poeweights/lib/testutil"
	"poeweights/services/catalog"
	catalogdb "poeweights/services/catalog/db"
	"poeweights/services/collector"
	"poeweights/services/weights/db"

	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) Service {
	catalogResult, catalogCleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "weights:catalog",
		DbSchema: catalogdb.Schema,
	})
	t.Cleanup(catalogCleanup)

	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "weights",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	store := catalog.NewStore(catalogResult.DB)
	ctx := context.Background()
	require.NoError(t, store.SaveBaseItem(ctx, catalog.BaseItem{
		Name:     "Iron Ring",
		Category: catalog.CategoryAccessory,
	}))
	require.NoError(t, store.SaveModifier(ctx, catalog.ModifierDefinition{
		Name:  "+# to maximum Life",
		Tier:  1,
		Rolls: []catalog.RollRange{{Min: 20, Max: 29}},
	}))

	return NewService(result.DB, store, testConfig(), 2)
}

func TestServiceRunPersistsEstimates(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	var records []collector.MatchRecord
	for i := 0; i < 60; i++ {
		records = append(records, collector.MatchRecord{
			TradeId:      "t1",
			BaseItem:     "Iron Ring",
			Category:     catalog.CategoryAccessory,
			ModifierName: "+# to maximum Life",
			Tier:         1,
			Values:       []float64{25},
			Price:        &collector.Price{Amount: 3, Currency: "chaos"},
		})
	}

	result, err := svc.Run(ctx, records, "")
	require.NoError(t, err)
	require.Len(t, result.Estimates, 1)
	require.InDelta(t, 1000.0, result.Estimates[0].Weight, 1e-9)

	// re-running replaces rather than duplicates
	_, err = svc.Run(ctx, records, "")
	require.NoError(t, err)

	stored, err := svc.ListEstimates(ctx, catalog.CategoryAccessory)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "Iron Ring", stored[0].BaseItem)
	require.Equal(t, 60, stored[0].RawCount)
	require.Equal(t, ConfidenceMedium, stored[0].Confidence)
	require.Empty(t, stored[0].Flags)

	none, err := svc.ListEstimates(ctx, catalog.CategoryWeapon)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestServiceRunRejectsBadBands(t *testing.T) {
	svc := setupService(t)
	svc.config.PriceBands = []PriceBand{
		{UpperBound: 50, Overrepresentation: 1.25},
		{UpperBound: 5, Overrepresentation: 2},
		{UpperBound: 0, Overrepresentation: 1},
	}

	_, err := svc.Run(context.Background(), nil, "")
	require.ErrorContains(t, err, "must ascend")
}

func TestServiceRunDropsAbsentCells(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	life := func(tier int, category catalog.Category, base string) collector.MatchRecord {
		return collector.MatchRecord{
			BaseItem:     base,
			Category:     category,
			ModifierName: "+# to maximum Life",
			Tier:         tier,
			Values:       []float64{25},
		}
	}

	_, err := svc.Run(ctx, []collector.MatchRecord{
		life(1, catalog.CategoryAccessory, "Iron Ring"),
		life(2, catalog.CategoryAccessory, "Iron Ring"),
		life(1, catalog.CategoryWeapon, "Rusted Sword"),
	}, "")
	require.NoError(t, err)

	stored, err := svc.ListEstimates(ctx, "")
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// a category-scoped run replaces that category's table; cells the
	// run no longer produces must not linger
	_, err = svc.Run(ctx, []collector.MatchRecord{
		life(1, catalog.CategoryAccessory, "Iron Ring"),
	}, catalog.CategoryAccessory)
	require.NoError(t, err)

	accessory, err := svc.ListEstimates(ctx, catalog.CategoryAccessory)
	require.NoError(t, err)
	require.Len(t, accessory, 1)
	require.Equal(t, 1, accessory[0].Tier)

	weapon, err := svc.ListEstimates(ctx, catalog.CategoryWeapon)
	require.NoError(t, err)
	require.Len(t, weapon, 1)

	// an unscoped run replaces everything
	_, err = svc.Run(ctx, []collector.MatchRecord{
		life(2, catalog.CategoryAccessory, "Iron Ring"),
	}, "")
	require.NoError(t, err)

	stored, err = svc.ListEstimates(ctx, "")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, 2, stored[0].Tier)
}

func TestServiceRunCategoryFilter(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	records := []collector.MatchRecord{
		{
			BaseItem:     "Iron Ring",
			Category:     catalog.CategoryAccessory,
			ModifierName: "+# to maximum Life",
			Tier:         1,
		},
		{
			BaseItem:     "Rusted Sword",
			Category:     catalog.CategoryWeapon,
			ModifierName: "+# to maximum Life",
			Tier:         1,
		},
	}

	result, err := svc.Run(ctx, records, catalog.CategoryAccessory)
	require.NoError(t, err)
	require.Len(t, result.Estimates, 1)
	require.Equal(t, catalog.CategoryAccessory, result.Estimates[0].Category)
}
