package main

import (
	"fmt"
	"io"
	"os"

	"github.com/reliant/configurator/pkg/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export carts and quotations as Excel workbooks",
}

var exportCartCmd = &cobra.Command{
	Use:   "cart <cart-id>",
	Short: "Write the configured products of a cart to an xlsx file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		items, err := app.Cart().Items(cmdContext(cmd), args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("cart %s is empty", args[0])
		}
		return writeOutput(cmd, "cart-"+args[0]+".xlsx", func(w io.Writer) error {
			return export.WriteCart(w, items)
		})
	},
}

var exportQuotationCmd = &cobra.Command{
	Use:   "quotation <quotation-id>",
	Short: "Write a quotation with its customer to an xlsx file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmdContext(cmd)
		q, err := app.Cart().Quotation(ctx, args[0])
		if err != nil {
			return err
		}
		products, err := app.Products(ctx)
		if err != nil {
			return err
		}
		labels, err := export.CatalogLabels(ctx, products, app.Catalog)
		if err != nil {
			return err
		}
		return writeOutput(cmd, "quotation-"+args[0]+".xlsx", func(w io.Writer) error {
			return export.WriteQuotation(w, *q, labels)
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportCartCmd, exportQuotationCmd)
	exportCmd.PersistentFlags().StringP("output", "o", "", "Output file (default <kind>-<id>.xlsx)")
}

func writeOutput(cmd *cobra.Command, fallback string, write func(io.Writer) error) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		path = fallback
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
