package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "landing",
	Short: "Wedding suit landing page service",
	Long:  "Serves the Hochzeitsanzug landing page, screens contact-form submissions for bots and forwards qualified leads to Pipedrive with email fallback.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
