package catalog

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const tierTableHtml = `
<table class="mod-table">
  <tbody>
    <tr>
      <td class="mod-name">+# to maximum Life</td>
      <td class="mod-tier">T1</td>
      <td class="mod-range">120-129</td>
      <td class="mod-crafted"></td>
    </tr>
    <tr>
      <td class="mod-name">Adds # to # Physical Damage</td>
      <td class="mod-tier">T2</td>
      <td class="mod-range">(11-14), (22-27)</td>
      <td class="mod-crafted"></td>
    </tr>
    <tr>
      <td class="mod-name">#% increased Attack Speed</td>
      <td class="mod-tier">T1</td>
      <td class="mod-range">8-16</td>
      <td class="mod-crafted">crafted</td>
    </tr>
    <tr>
      <td class="mod-name">Corrupted</td>
      <td class="mod-tier">-</td>
      <td class="mod-range">-</td>
      <td class="mod-crafted"></td>
    </tr>
  </tbody>
</table>
`

func parseRows(t *testing.T) []ModifierDefinition {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tierTableHtml))
	require.NoError(t, err)

	var defs []ModifierDefinition
	doc.Find("table.mod-table tbody tr").Each(func(_ int, row *goquery.Selection) {
		def, ok := parseTierRow(row)
		require.True(t, ok, "row %q", row.Text())
		defs = append(defs, def)
	})
	return defs
}

func TestParseTierRows(t *testing.T) {
	defs := parseRows(t)
	require.Len(t, defs, 4)

	require.Equal(t, ModifierDefinition{
		Name:  "+# to maximum Life",
		Tier:  1,
		Rolls: []RollRange{{Min: 120, Max: 129}},
	}, defs[0])

	require.Equal(t, []RollRange{{Min: 11, Max: 14}, {Min: 22, Max: 27}}, defs[1].Rolls)
	require.True(t, defs[2].Crafted)

	// untiered rows carry neither tier nor ranges
	require.Equal(t, ModifierDefinition{Name: "Corrupted"}, defs[3])
}

func TestParseRollRange(t *testing.T) {
	r, ok := parseRollRange("0.4-0.6")
	require.True(t, ok)
	require.Equal(t, RollRange{Min: 0.4, Max: 0.6}, r)

	// a leading minus belongs to the lower bound
	r, ok = parseRollRange("-10--5")
	require.True(t, ok)
	require.Equal(t, RollRange{Min: -10, Max: -5}, r)

	r, ok = parseRollRange("7")
	require.True(t, ok)
	require.Equal(t, RollRange{Min: 7, Max: 7}, r)

	_, ok = parseRollRange("garbage")
	require.False(t, ok)
}
