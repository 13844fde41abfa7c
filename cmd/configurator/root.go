package main

import (
	"context"
	"fmt"
	"os"

	"github.com/reliant/configurator/internal/cli"
	"github.com/reliant/configurator/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "configurator",
	Short: "Configure made-to-order products page by page",
	Long: `Configurator walks customers through a catalog of pages to configure windows,
doors and other made-to-order products, then turns their cart into a quotation.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("catalog", "catalog.yaml", "Catalog file (file source) or directory (loam source)")
	rootCmd.PersistentFlags().String("source", config.SourceFile, "Catalog source: file, loam or pocketbase")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file named by --config with flags taking precedence.
func loadConfig(cmd *cobra.Command, extra ...config.Option) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	opts := []config.Option{
		config.WithFlag("catalog.path", cmd.Flags().Lookup("catalog")),
		config.WithFlag("catalog.source", cmd.Flags().Lookup("source")),
		config.WithFlag("log.level", cmd.Flags().Lookup("log-level")),
	}
	return config.Load(path, append(opts, extra...)...)
}

// buildApp loads the config and wires the configurator.
func buildApp(cmd *cobra.Command, extra ...config.Option) (*cli.App, config.Config, error) {
	cfg, err := loadConfig(cmd, extra...)
	if err != nil {
		return nil, cfg, err
	}
	app, err := cli.Build(cmdContext(cmd), cfg)
	return app, cfg, err
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
