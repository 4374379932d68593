package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	filename       TEXT NOT NULL,
	state          TEXT NOT NULL,
	active         INTEGER NOT NULL DEFAULT 0,
	raw_text       TEXT NOT NULL DEFAULT '',
	processed      TEXT NOT NULL DEFAULT '',
	translated     TEXT NOT NULL DEFAULT '',
	audio_location TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at DESC);
`

const runColumns = `id, filename, state, active, raw_text, processed, translated, audio_location, error, created_at, updated_at`

type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time keeps sqlite out of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, run model.Run) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (`+runColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	filename = excluded.filename,
	state = excluded.state,
	active = excluded.active,
	raw_text = excluded.raw_text,
	processed = excluded.processed,
	translated = excluded.translated,
	audio_location = excluded.audio_location,
	error = excluded.error,
	updated_at = excluded.updated_at`,
		run.ID, run.Filename, string(run.State), run.Active,
		run.RawText, run.Processed, run.Translated, run.AudioLocation, run.Error,
		run.CreatedAt.UnixNano(), run.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (model.Run, error) {
	var (
		run              model.Run
		state            string
		created, updated int64
	)
	err := sc.Scan(&run.ID, &run.Filename, &state, &run.Active,
		&run.RawText, &run.Processed, &run.Translated, &run.AudioLocation, &run.Error,
		&created, &updated)
	if err != nil {
		return model.Run{}, err
	}
	run.State = model.State(state)
	run.CreatedAt = time.Unix(0, created).UTC()
	run.UpdatedAt = time.Unix(0, updated).UTC()
	return run, nil
}
