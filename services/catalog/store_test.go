package catalog

import (
	"context"
	"testing"

	"poeweights/lib/testutil"
	"poeweights/services/catalog/db"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) Store {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "catalog",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	return NewStore(result.DB)
}

func TestStoreBaseItemRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	item := BaseItem{
		Name:              "Vaal Regalia",
		Category:          CategoryArmour,
		StatRequirements:  StatRequirements{Intelligence: 194},
		ImplicitModifiers: []string{"#% increased Energy Shield"},
		BaseLevel:         68,
		Tags:              []string{"alias:Sacred Regalia"},
	}
	require.NoError(t, store.SaveBaseItem(ctx, item))

	// upserts replace rather than duplicate
	item.BaseLevel = 70
	require.NoError(t, store.SaveBaseItem(ctx, item))

	items, err := store.ListBaseItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	if diff := cmp.Diff(item, items[0]); diff != "" {
		t.Fatal(diff)
	}
}

func TestStoreModifierRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	defs := []ModifierDefinition{
		{
			Name:  "+# to maximum Life",
			Tier:  1,
			Rolls: []RollRange{{Min: 120, Max: 129}},
		},
		{
			Name:             "+# to maximum Life",
			Tier:             2,
			Rolls:            []RollRange{{Min: 100, Max: 119}},
			StatRequirements: StatRequirements{Strength: 80},
		},
		{
			Name:    "Can have up to 3 Crafted Modifiers",
			Crafted: true,
		},
	}
	for _, def := range defs {
		require.NoError(t, store.SaveModifier(ctx, def))
	}
	// same (name, tier) upserts in place
	require.NoError(t, store.SaveModifier(ctx, defs[0]))

	got, err := store.ListModifiers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	byKey := make(map[string]ModifierDefinition, len(got))
	for _, def := range got {
		byKey[def.Key()] = def
	}
	for _, want := range defs {
		if diff := cmp.Diff(want, byKey[want.Key()]); diff != "" {
			t.Fatal(diff)
		}
	}
}

func TestStoreLoadIndex(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBaseItem(ctx, BaseItem{
		Name:     "Iron Ring",
		Category: CategoryAccessory,
	}))
	require.NoError(t, store.SaveModifier(ctx, ModifierDefinition{
		Name:  "+# to maximum Life",
		Tier:  1,
		Rolls: []RollRange{{Min: 120, Max: 129}},
	}))

	ix, err := store.LoadIndex(ctx)
	require.NoError(t, err)

	_, ok := ix.ResolveBase("Iron Ring")
	require.True(t, ok)
	require.Len(t, ix.Candidates("+# to maximum life"), 1)
}
