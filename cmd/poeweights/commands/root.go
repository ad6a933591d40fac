package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"poeweights/lib/configutil"
	"poeweights/lib/serviceutil"
	"poeweights/lib/sqliteutil"
	"poeweights/services/catalog"
	catalogdb "poeweights/services/catalog/db"
	"poeweights/services/collector"
	collectordb "poeweights/services/collector/db"
	"poeweights/services/weights"
	weightsdb "poeweights/services/weights/db"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "poeweights",
	Short: "poeweights estimates hidden modifier weights from scraped trade listings.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	League    string `json:"league"`
	SessionId string `json:"session_id"`
	BaseUrl   string `json:"base_url"`

	CatalogDb   string `json:"catalog_db"`
	CollectorDb string `json:"collector_db"`
	WeightsDb   string `json:"weights_db"`

	RateLimitMs int `json:"rate_limit_ms"`
	Workers     int `json:"workers"`

	// Attribute-requirement strata for collect --stratify. Empty means
	// collector.DefaultThresholdRanges.
	Strata []collector.ThresholdRange `json:"strata"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.CatalogDb == "" {
		cfg.CatalogDb = "catalog.db"
	}
	if cfg.CollectorDb == "" {
		cfg.CollectorDb = "collected.db"
	}
	if cfg.WeightsDb == "" {
		cfg.WeightsDb = "weights.db"
	}
	return cfg
}

func openCatalog(cfg Config) (catalog.Store, *sql.DB) {
	database, err := sqliteutil.OpenDB(catalogdb.Schema, cfg.CatalogDb)
	if err != nil {
		serviceutil.Fatal("failed to open catalog db", err)
	}
	return catalog.NewStore(database), database
}

func openCollector(cfg Config, store catalog.Store) (collector.Service, *sql.DB) {
	database, err := sqliteutil.OpenDB(collectordb.Schema, cfg.CollectorDb)
	if err != nil {
		serviceutil.Fatal("failed to open collector db", err)
	}
	return collector.NewService(database, store, cfg.Workers), database
}

func openWeights(cfg Config, store catalog.Store, analysis weights.Config) (weights.Service, *sql.DB) {
	database, err := sqliteutil.OpenDB(weightsdb.Schema, cfg.WeightsDb)
	if err != nil {
		serviceutil.Fatal("failed to open weights db", err)
	}
	return weights.NewService(database, store, analysis, cfg.Workers), database
}
