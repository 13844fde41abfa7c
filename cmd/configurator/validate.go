package main

import (
	"fmt"

	"github.com/reliant/configurator/internal/cli"
	"github.com/reliant/configurator/internal/presentation/tui"
	"github.com/reliant/configurator/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for consistency",
	Long:  `Crawls every page reachable from the products and reports missing pages, malformed pages and cycles.`,
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
		products, err := catalog.ListProducts(ctx)
		if err != nil {
			return err
		}
		report, err := validator.Validate(ctx, catalog, products)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, w := range report.Warnings {
			fmt.Fprintln(out, tui.Warn(out, "warning: "+w))
		}
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(out, "Catalog is valid: %d products.\n", len(products))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
