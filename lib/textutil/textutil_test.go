package textutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTemplatize(t *testing.T) {
	testCases := []struct {
		line     string
		expected string
	}{
		{"+15 to maximum Life", "+# to maximum life"},
		{"+27 to maximum Life", "+# to maximum life"},
		{"12% increased Attack Speed", "#% increased attack speed"},
		{"Adds 4 to 9 Physical Damage", "adds # to # physical damage"},
		{"-7 to Mana Cost of Skills", "# to mana cost of skills"},
		{"0.4% of Physical Damage Leeched as Life", "#% of physical damage leeched as life"},
		{"  Gain   Onslaught  ", "gain onslaught"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Templatize(test.line), test.line)
	}
}

func TestTemplatizeCollision(t *testing.T) {
	// different rolls of the same modifier must collide, different
	// modifiers must not
	require.Equal(t, Templatize("+20 to Strength"), Templatize("+32 to Strength"))
	require.NotEqual(t, Templatize("+20 to Strength"), Templatize("+20 to Dexterity"))
}

func TestExtractValues(t *testing.T) {
	testCases := []struct {
		line     string
		expected []float64
	}{
		{"+15 to maximum Life", []float64{15}},
		{"Adds 4 to 9 Physical Damage", []float64{4, 9}},
		{"-7 to Mana Cost of Skills", []float64{-7}},
		{"0.4% of Physical Damage Leeched as Life", []float64{0.4}},
		{"Gain Onslaught on Kill", nil},
	}

	for _, test := range testCases {
		diff := cmp.Diff(test.expected, ExtractValues(test.line))
		if diff != "" {
			t.Fatalf("%s: %s", test.line, diff)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "ironring", NormalizeName(" Iron  Ring \n"))
}
