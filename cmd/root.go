package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tpscan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tpscan",
	Short: "Transfer-pricing scan of Luxembourg annual accounts",
	Long:  "Extracts intercompany positions from statutory annual accounts, parses note breakdowns, and flags transfer-pricing opportunities with full source provenance.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
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
