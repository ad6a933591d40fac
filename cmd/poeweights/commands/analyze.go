package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"poeweights/lib/configutil"
	"poeweights/lib/serviceutil"
	"poeweights/services/catalog"
	"poeweights/services/weights"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var analyzeCategory *string
var analyzeSince *string

func init() {
	analyzeCategory = analyzeCmd.Flags().String(
		"category", "", "Only normalize this base item category.")
	analyzeSince = analyzeCmd.Flags().String(
		"since", "", "Only aggregate listings collected after this RFC3339 time (default: all).")
	rootCmd.AddCommand(analyzeCmd)
}

// analysisOverrides mirrors weights.Config with pointer fields so a key
// absent from the file stays distinguishable from an explicit zero
// (e.g. category_floor: 0 disables the floor rather than falling back
// to the default).
type analysisOverrides struct {
	PriceBands       *[]weights.PriceBand `json:"price_bands"`
	PriceCurrency    *string              `json:"price_currency"`
	ReferenceWeight  *float64             `json:"reference_weight"`
	MediumSampleSize *int                 `json:"medium_sample_size"`
	HighSampleSize   *int                 `json:"high_sample_size"`
	CategoryFloor    *int                 `json:"category_floor"`
}

func (o analysisOverrides) apply(cfg weights.Config) weights.Config {
	if o.PriceBands != nil {
		cfg.PriceBands = *o.PriceBands
	}
	if o.PriceCurrency != nil {
		cfg.PriceCurrency = *o.PriceCurrency
	}
	if o.ReferenceWeight != nil {
		cfg.ReferenceWeight = *o.ReferenceWeight
	}
	if o.MediumSampleSize != nil {
		cfg.MediumSampleSize = *o.MediumSampleSize
	}
	if o.HighSampleSize != nil {
		cfg.HighSampleSize = *o.HighSampleSize
	}
	if o.CategoryFloor != nil {
		cfg.CategoryFloor = *o.CategoryFloor
	}
	return cfg
}

func readAnalysisConfig() weights.Config {
	overrides, err := configutil.ReadConfig[analysisOverrides]("analysis.json5")
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read analysis.json5, using defaults", "err", err)
		}
		return weights.DefaultConfig()
	}
	return overrides.apply(weights.DefaultConfig())
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [--category <category>] [--since <rfc3339>]",
	Short: "Aggregates matched modifiers and normalizes them into relative weights.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		store, catalogDb := openCatalog(cfg)
		defer catalogDb.Close()
		collectorSvc, collectorDb := openCollector(cfg, store)
		defer collectorDb.Close()
		weightsSvc, weightsDb := openWeights(cfg, store, readAnalysisConfig())
		defer weightsDb.Close()

		records, err := collectorSvc.ListMatchRecords(cmd.Context(), parseSince(*analyzeSince))
		if err != nil {
			serviceutil.Fatal("failed to load match records", err)
		}

		result, err := weightsSvc.Run(
			cmd.Context(), records, catalog.Category(*analyzeCategory))
		if err != nil {
			serviceutil.Fatal("normalization failed", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Category", "Base Item", "Modifier", "Tier", "Count", "Weight", "Confidence", "Flags"})

		for _, e := range result.Estimates {
			t.AppendRow(table.Row{
				e.Category,
				e.BaseItem,
				e.Modifier,
				e.Tier,
				e.RawCount,
				fmt.Sprintf("%.1f", e.Weight),
				e.Confidence,
				strings.Join(e.Flags, ","),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()

		for category, total := range result.InsufficientCategories {
			slog.Warn("insufficient samples for category",
				"category", category, "total", total)
		}
	},
}
