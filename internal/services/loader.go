package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/pgload/internal/transform"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// LoadService implements the pgload.Loader interface: it streams a tabular source
// into one table batch by batch, replacing the table at the start of the run.
//
// Thread-Safety: NOT safe for concurrent Load() calls on the same instance.
// Create separate instances for concurrent loads.
type LoadService struct {
	sessions   pgload.SessionOpener
	openSource pgload.SourceOpener
	tables     pgload.TableManager
	logger     pgload.Logger
}

// NewLoadService creates a new LoadService with all dependencies injected.
//
// Panics on nil dependencies: these are programmer errors that should fail loudly
// at startup. Runtime conditions (bad input, unreachable database, rejected rows)
// are returned as errors.
func NewLoadService(
	sessions pgload.SessionOpener,
	openSource pgload.SourceOpener,
	tables pgload.TableManager,
	logger pgload.Logger,
) *LoadService {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if openSource == nil {
		panic("openSource cannot be nil")
	}
	if tables == nil {
		panic("tables cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &LoadService{
		sessions:   sessions,
		openSource: openSource,
		tables:     tables,
		logger:     logger,
	}
}

// Load runs one load. The first batch fixes the schema; the table is dropped and
// recreated in the same transaction as the first write, so a concurrent reader
// never sees a half-created table. Every error aborts the run and rolls back the
// open transaction.
func (s *LoadService) Load(ctx context.Context, config pgload.LoadConfig) (*pgload.LoadResult, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	run := &loadRun{
		svc:    s,
		config: config,
		result: &pgload.LoadResult{
			RunID:  uuid.New(),
			Table:  config.TableName,
			Policy: config.CommitPolicy,
		},
		started: time.Now(),
	}

	s.logger.Verbose("Run %s: loading %s into table %q (chunk size %d, commit policy %s)",
		run.result.RunID, config.SourcePath, config.TableName, config.ChunkSize, config.CommitPolicy)
	if config.CommitPolicy == pgload.CommitPerBatch {
		s.logger.Info("! Commit policy per-batch: a failed run leaves the batches committed before it in %q", config.TableName)
	}

	src, err := s.openSource(config.SourcePath, config.ChunkSize)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	session, err := s.sessions.OpenSession(ctx, config)
	if err != nil {
		return nil, err
	}
	defer session.Close()
	run.conn = session.Conn()
	defer run.rollback(ctx)

	if err := run.execute(ctx, src); err != nil {
		return nil, err
	}
	return run.result, nil
}

// loadRun carries the state of one Load call.
type loadRun struct {
	svc     *LoadService
	config  pgload.LoadConfig
	conn    pgload.DBConnection
	tx      pgload.Tx
	schema  pgload.Schema
	result  *pgload.LoadResult
	started time.Time
}

func (r *loadRun) execute(ctx context.Context, src pgload.BatchSource) error {
	logger := r.svc.logger

	if _, err := r.conn.Exec(ctx, "SELECT set_config('application_name', $1, false)", applicationName(r.result.RunID)); err != nil {
		return fmt.Errorf("failed to tag session: %w", err)
	}

	if !src.Next() {
		if err := src.Err(); err != nil {
			return err
		}
		return &pgload.SourceError{Location: r.config.SourcePath, Err: pgload.ErrEmptySource}
	}

	first := src.Batch()
	schema, err := transform.InferSchema(first, r.config.TimestampColumns)
	if err != nil {
		return err
	}
	r.schema = schema
	r.result.Schema = schema
	logger.Verbose("Inferred %d columns from the first %d rows", len(schema), first.Len())

	batch, err := r.convert(first)
	if err != nil {
		return err
	}

	if err := r.begin(ctx); err != nil {
		return err
	}
	existed, err := r.svc.tables.Exists(ctx, r.tx, r.config.TableName)
	if err != nil {
		return err
	}
	if existed {
		logger.Verbose("Replacing existing table `%s`", r.config.TableName)
	}
	if err := r.svc.tables.Replace(ctx, r.tx, r.config.TableName, schema); err != nil {
		return err
	}
	logger.Info("✓ Table `%s` created", r.config.TableName)

	if err := r.write(ctx, batch); err != nil {
		return err
	}

	for src.Next() {
		batch, err := r.convert(src.Batch())
		if err != nil {
			return err
		}
		if err := r.write(ctx, batch); err != nil {
			return err
		}
	}
	if err := src.Err(); err != nil {
		return err
	}

	if r.tx != nil {
		if err := r.commit(ctx, r.lastBatch()); err != nil {
			return err
		}
	}

	r.result.Elapsed = time.Since(r.started)
	logger.Info("✓ Loaded %d rows in %d batches into `%s` (%.3f sec)",
		r.result.TotalRows, len(r.result.Batches), r.config.TableName, r.result.Elapsed.Seconds())
	return nil
}

// convert types a raw batch against the schema. Cells that do not fit a non-timestamp
// column are reported as the batch being rejected.
func (r *loadRun) convert(raw pgload.RawBatch) (pgload.Batch, error) {
	batch, err := transform.Convert(raw, r.schema)
	if err != nil {
		if errors.Is(err, transform.ErrValueMismatch) {
			return pgload.Batch{}, &pgload.AppendError{Table: r.config.TableName, Batch: raw.Index, Err: err}
		}
		return pgload.Batch{}, err
	}
	return batch, nil
}

// write appends one batch inside the open transaction. Under the per-batch policy
// the batch is committed before write returns.
func (r *loadRun) write(ctx context.Context, batch pgload.Batch) error {
	if r.tx == nil {
		if err := r.begin(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	n, err := r.svc.tables.Append(ctx, r.tx, r.config.TableName, batch)
	if err != nil {
		return &pgload.AppendError{Table: r.config.TableName, Batch: batch.Index, Err: err}
	}

	if r.config.CommitPolicy == pgload.CommitPerBatch {
		if err := r.commit(ctx, batch.Index); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	r.result.Batches = append(r.result.Batches, pgload.BatchReport{Index: batch.Index, Rows: n, Elapsed: elapsed})
	r.result.TotalRows += n
	r.svc.logger.Info("✓ Inserted batch %d: %d rows in %.3f sec", batch.Index, n, elapsed.Seconds())
	return nil
}

func (r *loadRun) begin(ctx context.Context) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	r.tx = tx
	return nil
}

// commit ends the open transaction. A rejected commit means the rows never landed,
// so it is reported against the last batch written in it.
func (r *loadRun) commit(ctx context.Context, batchIndex int) error {
	tx := r.tx
	r.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return &pgload.AppendError{Table: r.config.TableName, Batch: batchIndex, Err: fmt.Errorf("commit failed: %w", err)}
	}
	return nil
}

// rollback aborts the open transaction, if any. It runs on every exit path and
// still reaches the server after ctx is canceled.
func (r *loadRun) rollback(ctx context.Context) {
	if r.tx == nil {
		return
	}
	tx := r.tx
	r.tx = nil
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		r.svc.logger.Verbose("Rollback failed: %v", err)
		return
	}
	r.svc.logger.Verbose("Rolled back open transaction")
}

func (r *loadRun) lastBatch() int {
	if len(r.result.Batches) == 0 {
		return 0
	}
	return r.result.Batches[len(r.result.Batches)-1].Index
}

// applicationName identifies the run in pg_stat_activity.
func applicationName(runID uuid.UUID) string {
	return fmt.Sprintf("%s-%s", pgload.DefaultAppName, runID.String()[:8])
}

var _ pgload.Loader = (*LoadService)(nil)
