package commands

import (
	"log/slog"
	"time"

	"poeweights/lib/scrapers/poetrade"
	"poeweights/lib/serviceutil"
	"poeweights/services/collector"

	"github.com/spf13/cobra"
)

var collectCategory *string
var collectLimit *int
var collectStratify *bool

func init() {
	collectCategory = collectCmd.Flags().String(
		"category", "", "Trade site category option to restrict the search to, e.g. accessory.ring.")
	collectLimit = collectCmd.Flags().Int(
		"limit", 100, "Maximum number of listings to fetch (per stratum when stratifying).")
	collectStratify = collectCmd.Flags().Bool(
		"stratify", false, "Run one search per attribute and requirement range instead of a single search.")
	rootCmd.AddCommand(collectCmd)
}

var collectCmd = &cobra.Command{
	Use:   "collect [--category <option>] [--limit <n>] [--stratify]",
	Short: "Searches the trade site and ingests the listings it returns.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		store, catalogDb := openCatalog(cfg)
		defer catalogDb.Close()
		svc, collectorDb := openCollector(cfg, store)
		defer collectorDb.Close()

		client, err := poetrade.NewClient(cmd.Context(), poetrade.ClientOptions{
			BaseUrl:           cfg.BaseUrl,
			League:            cfg.League,
			SessionId:         cfg.SessionId,
			RateLimitInterval: time.Duration(cfg.RateLimitMs) * time.Millisecond,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize trade client", err)
		}

		query := poetrade.SearchRequest{
			Query: poetrade.Query{
				Status: poetrade.StatusFilter{Option: "online"},
			},
			Sort: poetrade.Sort{"price": "asc"},
		}
		if *collectCategory != "" {
			query.Query.Filters.TypeFilters.Filters.Category.Option = *collectCategory
		}

		t1 := time.Now()
		var report collector.IngestReport
		if *collectStratify {
			report, err = svc.CollectStratified(cmd.Context(), client, query, cfg.Strata, *collectLimit)
		} else {
			report, err = svc.Collect(cmd.Context(), client, query, *collectLimit)
		}
		if err != nil {
			serviceutil.Fatal("collection failed", err)
		}

		slog.Info("collection finished",
			"received", report.Received,
			"ingested", report.Ingested,
			"skipped_unknown", report.SkippedUnknown,
			"skipped_stale", report.SkippedStale,
			"seconds", time.Since(t1).Seconds())

		matchReport, err := svc.Match(cmd.Context(), time.Unix(0, 0))
		if err != nil {
			serviceutil.Fatal("matching failed", err)
		}
		slog.Info("matching finished",
			"processed", matchReport.Processed,
			"matched_lines", matchReport.MatchedLines)
	},
}
