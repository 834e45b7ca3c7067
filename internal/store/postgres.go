package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/tpscan/internal/db"
	"github.com/sells-group/tpscan/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	filing_id  TEXT NOT NULL DEFAULT '',
	company    JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	outcome    JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	storage_path TEXT NOT NULL,
	filing_id    TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS breakdown_items (
	run_id       TEXT NOT NULL,
	note_number  TEXT NOT NULL,
	description  TEXT NOT NULL,
	amount       DOUBLE PRECISION NOT NULL,
	counterparty TEXT,
	source_text  TEXT NOT NULL,
	keyword      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs(status, created_at);
CREATE INDEX IF NOT EXISTS idx_breakdown_items_run ON breakdown_items(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, filingID string, company model.CompanyContext) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	companyJSON, err := json.Marshal(company)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal company")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, filing_id, company, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, filingID, companyJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		FilingID:  filingID,
		Company:   company,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	return eris.Wrap(err, "postgres: update run status")
}

// SaveOutcome stores the outcome document on the run and bulk-inserts
// the confirmed intercompany breakdown items for direct querying.
func (s *PostgresStore) SaveOutcome(ctx context.Context, runID string, outcome *model.RunOutcome) error {
	outcomeJSON, err := json.Marshal(outcome)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal outcome")
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE runs SET outcome = $1, status = $2, updated_at = $3 WHERE id = $4`,
		outcomeJSON, string(model.RunStatusSucceeded), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: save outcome")
	}

	var rows [][]any
	for _, note := range outcome.Notes {
		if note.ICBreakdown == nil {
			continue
		}
		for _, item := range note.ICBreakdown.Items {
			rows = append(rows, []any{
				runID, note.NoteNumber, item.Description, item.Amount,
				item.CounterpartyName, item.SourceText, item.MatchedKeyword,
			})
		}
	}
	_, err = db.CopyFrom(ctx, s.pool, "breakdown_items",
		[]string{"run_id", "note_number", "description", "amount", "counterparty", "source_text", "keyword"},
		rows,
	)
	return eris.Wrap(err, "postgres: insert breakdown items")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, filing_id, company, status, outcome, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	return scanPGRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, filing_id, company, status, outcome, error, created_at, updated_at FROM runs`
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPGRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs")
}

func (s *PostgresStore) EnqueueJob(ctx context.Context, storagePath, filingID string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, storage_path, filing_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, storagePath, filingID, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: enqueue job")
	}
	return &model.Job{
		ID:          id,
		StoragePath: storagePath,
		FilingID:    filingID,
		Status:      model.RunStatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// DequeueJob claims the oldest queued job with FOR UPDATE SKIP LOCKED
// so multiple workers can poll the same queue without contention.
// Returns nil when the queue is empty.
func (s *PostgresStore) DequeueJob(ctx context.Context) (*model.Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin dequeue")
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT id, storage_path, filing_id, created_at, updated_at FROM jobs
		 WHERE status = $1 ORDER BY created_at LIMIT 1 FOR UPDATE SKIP LOCKED`,
		string(model.RunStatusQueued),
	)

	var job model.Job
	err = row.Scan(&job.ID, &job.StoragePath, &job.FilingID, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: dequeue scan")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(model.RunStatusProcessing), time.Now().UTC(), job.ID,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: claim job")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit dequeue")
	}

	job.Status = model.RunStatusProcessing
	return &job, nil
}

func (s *PostgresStore) MarkJob(ctx context.Context, jobID string, status model.RunStatus, errMsg string) error {
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errVal, time.Now().UTC(), jobID,
	)
	return eris.Wrap(err, "postgres: mark job")
}

func scanPGRun(row pgx.Row) (*model.Run, error) {
	var (
		run         model.Run
		companyJSON []byte
		outcomeJSON []byte
		errMsg      *string
		status      string
	)
	err := row.Scan(&run.ID, &run.FilingID, &companyJSON, &status, &outcomeJSON, &errMsg, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("store: run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	run.Status = model.RunStatus(status)
	if err := json.Unmarshal(companyJSON, &run.Company); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal company")
	}
	if len(outcomeJSON) > 0 {
		var outcome model.RunOutcome
		if err := json.Unmarshal(outcomeJSON, &outcome); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal outcome")
		}
		run.Outcome = &outcome
	}
	if errMsg != nil {
		run.Error = *errMsg
	}
	return &run, nil
}
