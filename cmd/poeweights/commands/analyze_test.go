package commands

import (
	"testing"

	"poeweights/services/weights"

	"github.com/stretchr/testify/require"
	"github.com/titanous/json5"
)

func TestAnalysisOverridesApply(t *testing.T) {
	var overrides analysisOverrides
	err := json5.Unmarshal([]byte(`{
		// explicit zeros are deliberate, not "use the default"
		category_floor: 0,
		price_bands: [],
		price_currency: "divine",
	}`), &overrides)
	require.NoError(t, err)

	cfg := overrides.apply(weights.DefaultConfig())
	require.Equal(t, 0, cfg.CategoryFloor)
	require.Empty(t, cfg.PriceBands)
	require.NotNil(t, cfg.PriceBands)
	require.Equal(t, "divine", cfg.PriceCurrency)

	// keys absent from the file keep their defaults
	defaults := weights.DefaultConfig()
	require.Equal(t, defaults.ReferenceWeight, cfg.ReferenceWeight)
	require.Equal(t, defaults.MediumSampleSize, cfg.MediumSampleSize)
	require.Equal(t, defaults.HighSampleSize, cfg.HighSampleSize)
}

func TestAnalysisOverridesEmpty(t *testing.T) {
	var overrides analysisOverrides
	require.NoError(t, json5.Unmarshal([]byte(`{}`), &overrides))
	require.Equal(t, weights.DefaultConfig(), overrides.apply(weights.DefaultConfig()))
}
