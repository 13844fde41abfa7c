package main

import (
	"context"
	"fmt"

	"github.com/reliant/configurator/internal/cli"
	"github.com/reliant/configurator/internal/presentation/graph"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the catalog as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of products and pages. With --session the pages the
session has visited and its current page are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		var (
			catalog cli.Catalog
			overlay *graph.Overlay
		)
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			app, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			flow, err := app.Flow(ctx, sessionID)
			if err != nil {
				return err
			}
			catalog, overlay = app.Catalog, graph.OverlayFromFlow(flow)
		} else {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if catalog, _, err = cli.OpenCatalog(cfg, nopLogger()); err != nil {
				return err
			}
		}

		products, pages, err := loadAll(ctx, catalog)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(products, pages, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the path of a stored session")
}

func loadAll(ctx context.Context, catalog cli.Catalog) ([]domain.Product, []domain.Page, error) {
	products, err := catalog.ListProducts(ctx)
	if err != nil {
		return nil, nil, err
	}
	ids, err := catalog.ListPages(ctx)
	if err != nil {
		return nil, nil, err
	}
	pages := make([]domain.Page, 0, len(ids))
	for _, id := range ids {
		p, err := catalog.GetPage(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		pages = append(pages, *p)
	}
	return products, pages, nil
}
