package blocking

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"stitch/internal/config"
)

// OpenDatabase connects the relational backend according to configuration.
// The sqlite driver defaults to a file under the output directory when no
// DSN is given. The returned dialect feeds placeholder rendering.
func OpenDatabase(ctx context.Context, dbCfg *config.Database, outputDir string) (*sql.DB, string, error) {
	if dbCfg == nil {
		return nil, "", fmt.Errorf("no database configured")
	}

	switch dbCfg.Driver {
	case "sqlite":
		dsn := dbCfg.DSN
		if dsn == "" {
			dsn = filepath.Join(outputDir, "blocking.db")
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite db: %w", err)
		}
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				db.Close()
				return nil, "", fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
		return db, "sqlite", nil
	case "postgres":
		db, err := sql.Open("postgres", dbCfg.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres db: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("ping postgres db: %w", err)
		}
		return db, "postgres", nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}
}
