// Package trace persists phase transitions to a SQLite database so runs
// can be inspected after the fact.
package trace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"lightsync/internal/core"
)

const defaultBatchSize = 64

// ErrNotTrace is returned by OpenExisting for a database that holds no
// transition table.
var ErrNotTrace = errors.New("not a lightsync trace")

const schema = `
create table if not exists transitions
(
	run_id            text    not null,
	frame             integer not null,
	wall_time         text    not null,
	from_phase        text    not null,
	to_phase          text    not null,
	simulated_seconds real    not null,
	phase_duration    real    not null,
	latency           real    not null,
	total_latency     real    not null
);
create index if not exists transitions_run_id_index on transitions (run_id, frame);
`

// DefaultPath returns a fresh trace file name in the working directory.
func DefaultPath() string {
	return "lightsync_trace_" + xid.New().String() + ".sqlite3"
}

// Recorder is a core.Reporter that buffers transitions and writes them to
// SQLite in batches. Safe for concurrent use.
type Recorder struct {
	db        *sql.DB
	logger    *zap.Logger
	batchSize int

	mu      sync.Mutex
	pending  []core.Event
	closed   bool
	readOnly bool
}

// Open opens (creating if needed) the trace database at path.
func Open(path string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating trace schema: %w", err)
	}

	logger.Debug("opened trace database", zap.String("path", path))
	return &Recorder{
		db:        db,
		logger:    logger,
		batchSize: defaultBatchSize,
	}, nil
}

// OpenExisting opens a trace written earlier for reading. Unlike Open it
// never creates a file or schema: a missing path yields an error wrapping
// os.ErrNotExist, and a database without a transitions table yields
// ErrNotTrace. Events reported to the returned Recorder are discarded.
func OpenExisting(path string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening trace %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening trace database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	var tables int
	err = db.QueryRow(`select count(*) from sqlite_master where type = 'table' and name = 'transitions'`).Scan(&tables)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading trace %s: %w", path, err)
	}
	if tables == 0 {
		db.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotTrace, path)
	}

	logger.Debug("opened trace database read-only", zap.String("path", path))
	return &Recorder{
		db:        db,
		logger:    logger,
		batchSize: defaultBatchSize,
		readOnly:  true,
	}, nil
}

// Report queues e and writes the queue once it reaches the batch size.
// Write failures are logged; the frame loop is never interrupted.
func (r *Recorder) Report(e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.readOnly {
		return
	}
	r.pending = append(r.pending, e)
	if len(r.pending) < r.batchSize {
		return
	}
	if err := r.flushLocked(); err != nil {
		r.logger.Error("writing trace batch", zap.Error(err))
	}
}

// Flush writes all queued events.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning trace transaction: %w", err)
	}
	stmt, err := tx.Prepare(`insert into transitions
		(run_id, frame, wall_time, from_phase, to_phase, simulated_seconds, phase_duration, latency, total_latency)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing trace insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.pending {
		_, err := stmt.Exec(e.RunID, e.Frame, e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.From.String(), e.To.String(), e.SimulatedSeconds, e.PhaseDuration, e.Latency, e.TotalLatency)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting trace row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing trace batch: %w", err)
	}

	r.pending = r.pending[:0]
	return nil
}

// Close flushes queued events and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	flushErr := r.flushLocked()
	if err := r.db.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("closing trace database: %w", err)
	}
	return flushErr
}

// Runs lists the run IDs stored in the trace, oldest first.
func (r *Recorder) Runs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`select run_id from transitions group by run_id order by min(rowid)`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning run id: %w", err)
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

// Events reads back the transitions of one run in frame order.
func (r *Recorder) Events(ctx context.Context, runID string) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx, `select frame, wall_time, from_phase, to_phase,
		simulated_seconds, phase_duration, latency, total_latency
		from transitions where run_id = ? order by frame`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		var (
			e        = core.Event{RunID: runID}
			wall     string
			from, to string
		)
		if err := rows.Scan(&e.Frame, &wall, &from, &to,
			&e.SimulatedSeconds, &e.PhaseDuration, &e.Latency, &e.TotalLatency); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, wall); err != nil {
			return nil, fmt.Errorf("parsing wall time %q: %w", wall, err)
		}
		if err := e.From.UnmarshalText([]byte(from)); err != nil {
			return nil, err
		}
		if err := e.To.UnmarshalText([]byte(to)); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

var _ core.Reporter = (*Recorder)(nil)
