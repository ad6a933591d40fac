package commands

import (
	"log/slog"
	"time"

	"poeweights/lib/serviceutil"

	"github.com/spf13/cobra"
)

var matchSince *string

func init() {
	matchSince = matchCmd.Flags().String(
		"since", "", "Only match listings collected after this RFC3339 time (default: all).")
	rootCmd.AddCommand(matchCmd)
}

func parseSince(raw string) time.Time {
	if raw == "" {
		return time.Unix(0, 0)
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		serviceutil.Fatal("failed to parse --since", err)
	}
	return since
}

var matchCmd = &cobra.Command{
	Use:   "match [--since <rfc3339>]",
	Short: "Matches collected stat lines against the modifier catalog.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		store, catalogDb := openCatalog(cfg)
		defer catalogDb.Close()
		svc, collectorDb := openCollector(cfg, store)
		defer collectorDb.Close()

		report, err := svc.Match(cmd.Context(), parseSince(*matchSince))
		if err != nil {
			serviceutil.Fatal("matching failed", err)
		}

		slog.Info("matching finished",
			"processed", report.Processed,
			"matched_lines", report.MatchedLines)
		for kind, count := range report.Skipped {
			slog.Info("skipped lines", "kind", kind, "count", count)
		}
		for _, failure := range report.Failures {
			slog.Warn("unmatched line",
				"trade_id", failure.TradeId,
				"line", failure.Line,
				"kind", failure.Kind,
				"candidates", failure.Candidates)
		}
	},
}
