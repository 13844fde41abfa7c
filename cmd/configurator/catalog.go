package main

import (
	"fmt"
	"log/slog"

	"github.com/reliant/configurator/internal/cli"
	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/adapters/loam"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Work with the page catalog",
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Copy the current catalog into a Loam markdown repository",
	Long: `Reads every product and page from the configured source (for example PocketBase)
and writes one markdown document per id into dir, ready to be served with --source loam.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		catalog, _, err := cli.OpenCatalog(cfg, nopLogger())
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		products, pages, err := loadAll(ctx, catalog)
		if err != nil {
			return err
		}
		if err := loam.Export(ctx, args[0], products, pages); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products and %d pages to %s\n", len(products), len(pages), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogExportCmd)
}

func nopLogger() *slog.Logger {
	return logging.NewNop()
}
