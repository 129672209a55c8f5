// Package history records the aggregate of every run so that trends can be inspected without baselines.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/netbench/benchrun/internal/benchrun/metrics"
)

type Entry struct {
	RunId     string
	StartedAt time.Time
	Scenario  string
	Topology  string
	Mode      string
	Aggregate metrics.Aggregate
	// BlockedEvents is nil when there was no proxy or the probe failed.
	BlockedEvents *int64
}

type Store interface {
	Record(ctx context.Context, e Entry) error
	// Recent returns up to limit entries, newest first. Empty filters match everything.
	Recent(ctx context.Context, scenario, topology string, limit int) ([]Entry, error)
}

// SQLiteStore persists entries to a sqlite database file.
type SQLiteStore struct {
	db   *sql.DB
	lock sync.Mutex
	log  *log.Entry
}

// Open opens, and if needed creates, the database at path.
func Open(ctx context.Context, path string, logger *log.Entry) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not make directory for sqlite db %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening sqlite db %s", path)
	}
	s := &SQLiteStore{db: db, log: logger}
	if err := s.setup(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) setup(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return errors.WithStack(err)
	}
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			RunId TEXT,
			StartedAt INT,
			Scenario TEXT,
			Topology TEXT,
			Mode TEXT,
			AvgMainRps REAL,
			Total REAL,
			Ok REAL,
			ConnectFail REAL,
			HttpFail REAL,
			OtherFail REAL,
			OkRate REAL,
			BlockedEvents INT,
			PRIMARY KEY(RunId))`)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_runs_scenario_topology ON runs (Scenario, Topology, StartedAt)`)
	return errors.WithStack(err)
}

func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	var blocked sql.NullInt64
	if e.BlockedEvents != nil {
		blocked = sql.NullInt64{Int64: *e.BlockedEvents, Valid: true}
	}
	a := e.Aggregate
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (RunId, StartedAt, Scenario, Topology, Mode, AvgMainRps, Total, Ok, ConnectFail, HttpFail, OtherFail, OkRate, BlockedEvents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunId, e.StartedAt.UnixNano(), e.Scenario, e.Topology, e.Mode,
		a.AvgMainRps, a.Total, a.Ok, a.ConnectFail, a.HttpFail, a.OtherFail, a.OkRate, blocked)
	if err != nil {
		return errors.Wrapf(err, "recording run %s", e.RunId)
	}
	s.log.WithField("run", e.RunId).Debug("recorded run in history")
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, scenario, topology string, limit int) ([]Entry, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT RunId, StartedAt, Scenario, Topology, Mode, AvgMainRps, Total, Ok, ConnectFail, HttpFail, OtherFail, OkRate, BlockedEvents
		FROM runs
		WHERE (? = '' OR Scenario = ?) AND (? = '' OR Topology = ?)
		ORDER BY StartedAt DESC
		LIMIT ?`,
		scenario, scenario, topology, topology, limit)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt int64
		var blocked sql.NullInt64
		a := &e.Aggregate
		if err := rows.Scan(&e.RunId, &startedAt, &e.Scenario, &e.Topology, &e.Mode,
			&a.AvgMainRps, &a.Total, &a.Ok, &a.ConnectFail, &a.HttpFail, &a.OtherFail, &a.OkRate, &blocked); err != nil {
			return nil, errors.WithStack(err)
		}
		e.StartedAt = time.Unix(0, startedAt)
		if blocked.Valid {
			n := blocked.Int64
			e.BlockedEvents = &n
		}
		entries = append(entries, e)
	}
	return entries, errors.WithStack(rows.Err())
}

func (s *SQLiteStore) Close() error {
	return errors.WithStack(s.db.Close())
}
