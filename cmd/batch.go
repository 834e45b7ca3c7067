package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/pipeline"
	"github.com/sells-group/tpscan/internal/register"
	"github.com/sells-group/tpscan/internal/store"
)

var (
	batchRegister string
	batchLimit    int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scan filings listed in an XLSX register",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		entries, err := register.Read(batchRegister)
		if err != nil {
			return err
		}

		lib, err := cfg.LoadLibrary()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p := pipeline.New(lib)
		return processBatch(ctx, entries, batchLimit, cfg.Batch.MaxConcurrentFilings, st, func(entry register.Entry) (*model.RunOutcome, error) {
			text, err := os.ReadFile(entry.Path)
			if err != nil {
				return nil, eris.Wrapf(err, "read document %s", entry.Path)
			}
			return p.Run(model.Filing{
				ID:      filepath.Base(entry.Path),
				Text:    string(text),
				Company: entry.Company,
			}), nil
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchRegister, "register", "", "path to XLSX filing register (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of filings to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("register")
	rootCmd.AddCommand(batchCmd)
}

// scanFunc is the callback signature for scanning one register entry.
type scanFunc func(entry register.Entry) (*model.RunOutcome, error)

// processBatch applies limit, then scans entries concurrently. An
// individual failure is recorded against its run and does not abort
// the batch.
func processBatch(ctx context.Context, entries []register.Entry, limit, concurrency int, st store.Store, scan scanFunc) error {
	if len(entries) == 0 {
		zap.L().Info("register is empty, nothing to do")
		return nil
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing register",
		zap.Int("filings", len(entries)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, entry := range entries {
		g.Go(func() error {
			log := zap.L().With(zap.String("document", entry.Path))

			run, err := st.CreateRun(gctx, filepath.Base(entry.Path), entry.Company)
			if err != nil {
				return eris.Wrap(err, "create run")
			}

			outcome, err := scan(entry)
			if err != nil {
				failed.Add(1)
				log.Error("scan failed", zap.Error(err))
				if mErr := st.UpdateRunStatus(gctx, run.ID, model.RunStatusFailed); mErr != nil {
					log.Warn("failed to mark run failed", zap.Error(mErr))
				}
				return nil // keep going
			}

			if err := st.SaveOutcome(gctx, run.ID, outcome); err != nil {
				return eris.Wrap(err, "save outcome")
			}

			succeeded.Add(1)
			log.Info("scan complete",
				zap.String("run_id", run.ID),
				zap.String("confidence", string(outcome.Validation.Quality.OverallConfidence)),
				zap.Int("flags", len(outcome.Validation.Flags)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
