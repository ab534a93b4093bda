package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/mutker/thermalctl/internal/errors"
	"codeberg.org/mutker/thermalctl/internal/logger"
	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

type Repository interface {
	Store(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// sqliteRepository journals snapshots keyed by a per-process run id, so
// successive runs stay distinguishable in one database file.
type sqliteRepository struct {
	db    *sql.DB
	runID string
	mu    sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()
	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing telemetry repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db:    db,
		runID: uuid.New().String(),
	}, nil
}

func (r *sqliteRepository) Store(ctx context.Context, snapshot *Snapshot) error {
	errFactory := errors.New()
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO thermal_log (
            run_id, timestamp,
            status, headroom,
            current_tier, target_tier, average_fps,
            hint_sessions_open, target_duration_ns
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		r.runID,
		snapshot.Timestamp.UnixNano(),
		int(snapshot.Thermal.Status),
		snapshot.Thermal.Headroom,
		snapshot.Quality.CurrentTier,
		snapshot.Quality.TargetTier,
		snapshot.Quality.AverageFPS,
		boolToInt(snapshot.Hints.SessionsOpen),
		snapshot.Hints.TargetDurationNs,
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	errFactory := errors.New()
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}
	return nil
}
