package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/pipeline"
	"github.com/sells-group/tpscan/internal/store"
)

var workerOnce bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process queued extraction jobs",
	Long:  "Polls the job queue, reads each job's document text from the configured document directory, runs the pipeline, and persists the outcome.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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

		interval := time.Duration(cfg.Worker.PollIntervalSecs) * time.Second
		if interval <= 0 {
			interval = 3 * time.Second
		}

		zap.L().Info("worker started",
			zap.Duration("poll_interval", interval),
			zap.String("document_dir", cfg.Worker.DocumentDir),
		)

		limiter := rate.NewLimiter(rate.Every(interval), 1)
		p := pipeline.New(lib)

		for {
			if err := limiter.Wait(ctx); err != nil {
				zap.L().Info("worker stopping")
				return nil
			}

			job, err := st.DequeueJob(ctx)
			if err != nil {
				zap.L().Error("dequeue failed", zap.Error(err))
				continue
			}
			if job == nil {
				if workerOnce {
					return nil
				}
				continue
			}

			processJob(ctx, st, p, job)
		}
	},
}

func init() {
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "exit when the queue is empty")
	rootCmd.AddCommand(workerCmd)
}

func processJob(ctx context.Context, st store.Store, p *pipeline.Pipeline, job *model.Job) {
	log := zap.L().With(
		zap.String("job_id", job.ID),
		zap.String("storage_path", job.StoragePath),
	)
	log.Info("processing job")

	path := job.StoragePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Worker.DocumentDir, path)
	}

	text, err := os.ReadFile(path)
	if err != nil {
		log.Error("read document failed", zap.Error(err))
		markJob(ctx, st, job.ID, model.RunStatusFailed, eris.Wrap(err, "read document").Error())
		return
	}

	outcome := p.Run(model.Filing{
		ID:   job.FilingID,
		Text: string(text),
	})

	run, err := st.CreateRun(ctx, job.FilingID, model.CompanyContext{Name: outcome.Company.Name})
	if err != nil {
		log.Error("create run failed", zap.Error(err))
		markJob(ctx, st, job.ID, model.RunStatusFailed, err.Error())
		return
	}
	if err := st.SaveOutcome(ctx, run.ID, outcome); err != nil {
		log.Error("save outcome failed", zap.Error(err))
		markJob(ctx, st, job.ID, model.RunStatusFailed, err.Error())
		return
	}

	markJob(ctx, st, job.ID, model.RunStatusSucceeded, "")
	log.Info("job complete",
		zap.String("run_id", run.ID),
		zap.String("confidence", string(outcome.Validation.Quality.OverallConfidence)),
	)
}

func markJob(ctx context.Context, st store.Store, jobID string, status model.RunStatus, errMsg string) {
	if err := st.MarkJob(ctx, jobID, status, errMsg); err != nil {
		zap.L().Warn("mark job failed",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}
