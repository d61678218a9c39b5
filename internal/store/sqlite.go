package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/psc-mapa/psc-cli/internal/pointset"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ingest_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	accepted    INTEGER NOT NULL DEFAULT 0,
	rejected    INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS points (
	source_id TEXT NOT NULL,
	code      TEXT NOT NULL,
	lon       REAL NOT NULL,
	lat       REAL NOT NULL,
	run_id    TEXT NOT NULL REFERENCES ingest_runs(id)
);

CREATE INDEX IF NOT EXISTS idx_points_code ON points(code);
CREATE INDEX IF NOT EXISTS idx_points_run_id ON points(run_id);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) BeginRun(ctx context.Context, source string) (*IngestRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source, status, started_at) VALUES (?, ?, ?, ?)`,
		id, source, string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert ingest run")
	}

	return &IngestRun{
		ID:        id,
		Source:    source,
		Status:    RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, accepted, rejected int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, accepted = ?, rejected = ?, finished_at = ? WHERE id = ?`,
		string(RunStatusComplete), accepted, rejected, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "ingest run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "ingest run", runID)
}

// InsertPoints writes a batch of points in one transaction.
func (s *SQLiteStore) InsertPoints(ctx context.Context, runID string, pts []pointset.Point) error {
	if len(pts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert points")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (source_id, code, lon, lat, run_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert points")
	}
	defer stmt.Close()

	for _, p := range pts {
		if _, err := stmt.ExecContext(ctx, p.SourceID, p.Code, p.Lon, p.Lat, runID); err != nil {
			return eris.Wrapf(err, "sqlite: insert point %s", p.SourceID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit insert points")
}

// LoadPoints returns every stored point ordered by code then source id.
func (s *SQLiteStore) LoadPoints(ctx context.Context) ([]pointset.Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, code, lon, lat FROM points ORDER BY code, source_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load points")
	}
	defer rows.Close()

	var pts []pointset.Point
	for rows.Next() {
		var p pointset.Point
		if err := rows.Scan(&p.SourceID, &p.Code, &p.Lon, &p.Lat); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan point")
		}
		pts = append(pts, p)
	}
	return pts, eris.Wrap(rows.Err(), "sqlite: load points iterate")
}

// Clear removes all points, keeping the run history.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM points`)
	return eris.Wrap(err, "sqlite: clear points")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT code),
		        COALESCE(MIN(lon), 0), COALESCE(MIN(lat), 0),
		        COALESCE(MAX(lon), 0), COALESCE(MAX(lat), 0)
		 FROM points`)
	if err := row.Scan(&st.Points, &st.Codes, &st.MinLon, &st.MinLat, &st.MaxLon, &st.MaxLat); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}

	last, err := s.lastRun(ctx)
	if err != nil {
		return nil, err
	}
	st.LastRun = last
	return st, nil
}

func (s *SQLiteStore) lastRun(ctx context.Context) (*IngestRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, accepted, rejected, COALESCE(error, ''), started_at, finished_at
		 FROM ingest_runs ORDER BY started_at DESC LIMIT 1`)

	var r IngestRun
	var finished sql.NullTime
	err := row.Scan(&r.ID, &r.Source, &r.Status, &r.Accepted, &r.Rejected, &r.Error, &r.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan ingest run")
	}
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return &r, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
