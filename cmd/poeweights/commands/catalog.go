package commands

import (
	"log/slog"

	"poeweights/lib/serviceutil"
	"poeweights/services/catalog"

	"github.com/spf13/cobra"
)

var catalogTiersPage *string

func init() {
	catalogTiersPage = catalogImportCmd.Flags().String(
		"tiers", "", "Path of an HTML tier reference page to import modifiers from.")
	catalogCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the base item and modifier catalog.",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import [--tiers <path>]",
	Short: "Imports base items from the trade site, and optionally modifier tiers.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		store, database := openCatalog(cfg)
		defer database.Close()

		baseUrl := cfg.BaseUrl
		if baseUrl == "" {
			baseUrl = "https://www.pathofexile.com"
		}
		importer := catalog.NewImporter(store, baseUrl)

		count, err := importer.ImportBaseItems(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to import base items", err)
		}
		slog.Info("base items imported", "count", count)

		if *catalogTiersPage != "" {
			count, err = importer.ImportModifierTiers(cmd.Context(), *catalogTiersPage)
			if err != nil {
				serviceutil.Fatal("failed to import modifier tiers", err)
			}
			slog.Info("modifier tiers imported", "count", count)
		}

		mods, err := store.ListModifiers(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list modifiers", err)
		}
		err = catalog.Validate(mods)
		if err != nil {
			serviceutil.Fatal("catalog validation failed", err)
		}
	},
}
