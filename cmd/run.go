package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/pipeline"
)

var (
	runFile     string
	runName     string
	runRCS      string
	runAssets   float64
	runEquity   float64
	runCurrency string
	runNoSave   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan a single filing",
	Long:  "Runs the full extraction, note-parsing, and validation pipeline on one linearised document text file and prints the result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, err := os.ReadFile(runFile)
		if err != nil {
			return eris.Wrapf(err, "read document %s", runFile)
		}

		lib, err := cfg.LoadLibrary()
		if err != nil {
			return err
		}

		filing := model.Filing{
			ID:   filepath.Base(runFile),
			Text: string(text),
			Company: model.CompanyContext{
				Name:           runName,
				RegistryNumber: runRCS,
				TotalAssets:    runAssets,
				TotalEquity:    runEquity,
				Currency:       runCurrency,
			},
		}

		outcome := pipeline.New(lib).Run(filing)

		zap.L().Info("scan complete",
			zap.String("file", runFile),
			zap.String("company", outcome.Company.Name),
			zap.String("confidence", string(outcome.Validation.Quality.OverallConfidence)),
			zap.Int("errors", len(outcome.Validation.Errors)),
			zap.Int("flags", len(outcome.Validation.Flags)),
		)

		if !runNoSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}

			run, err := st.CreateRun(ctx, filing.ID, filing.Company)
			if err != nil {
				return eris.Wrap(err, "create run")
			}
			if err := st.SaveOutcome(ctx, run.ID, outcome); err != nil {
				return eris.Wrap(err, "save outcome")
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFile, "file", "", "path to linearised document text (required)")
	runCmd.Flags().StringVar(&runName, "name", "", "company name")
	runCmd.Flags().StringVar(&runRCS, "rcs", "", "RCS registry number")
	runCmd.Flags().Float64Var(&runAssets, "total-assets", 0, "total assets from the filing index")
	runCmd.Flags().Float64Var(&runEquity, "total-equity", 0, "total equity from the filing index")
	runCmd.Flags().StringVar(&runCurrency, "currency", "", "reporting currency")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "skip persisting the run to the store")
	_ = runCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(runCmd)
}
