package main

import (
	"os"

	"github.com/reliant/configurator/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [product-id]",
	Short: "Configure a product interactively",
	Long:  `Walks through the product's pages in the terminal and adds the result to a cart.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.RunOptions{In: os.Stdin, Out: cmd.OutOrStdout()}
		if len(args) > 0 {
			opts.ProductID = args[0]
		}
		opts.CartID, _ = cmd.Flags().GetString("cart")
		opts.JSON, _ = cmd.Flags().GetBool("json")

		_, err = cli.RunSession(cmdContext(cmd), app, opts)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("cart", "", "Cart that receives the configured product")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
}
