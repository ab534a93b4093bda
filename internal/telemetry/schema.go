package telemetry

import (
	"database/sql"

	"codeberg.org/mutker/thermalctl/internal/errors"
)

// initSchema initializes the database schema for the thermal log
func initSchema(db *sql.DB) error {
	errFactory := errors.New()
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS thermal_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            run_id TEXT NOT NULL,
            timestamp INTEGER NOT NULL,
            status INTEGER,
            headroom REAL,
            current_tier INTEGER,
            target_tier INTEGER,
            average_fps REAL,
            hint_sessions_open INTEGER,
            target_duration_ns INTEGER
        );
        CREATE INDEX IF NOT EXISTS idx_thermal_log_run
            ON thermal_log (run_id, timestamp)
    `)
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	return nil
}
