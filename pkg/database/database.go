package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/securityronin/nameback/pkg/config"
)

type key int

const ctxKey key = 0

// WithLogging marks a context so queries issued under it are logged at debug
// level when database debugging is enabled.
func WithLogging(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey, true)
}

type logQueryHook struct {
	log logger.Logger
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	enabled, ok := ctx.Value(ctxKey).(bool)
	if !ok || !enabled {
		return
	}

	qh.log.Debug(event.Query)
}

// DefaultCachePath is where the analysis cache database lives when the
// config does not override it.
func DefaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.WithStack(err)
	}
	return filepath.Join(dir, "nameback", "cache.db"), nil
}

// New opens the SQLite analysis cache at path, creating parent directories
// as needed. The connection is wrapped with busy-retry handling and tuned
// for concurrent worker access (WAL, busy_timeout).
func New(cfg *config.Config, path string) (*bun.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WithStack(err)
	}

	drv := sqliteshim.Driver()
	drvCtx, ok := drv.(interface {
		OpenConnector(name string) (driver.Connector, error)
	})
	if !ok {
		return nil, errors.New("sqlite driver does not support OpenConnector")
	}
	connector, err := drvCtx.OpenConnector(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sqldb := sql.OpenDB(newRetryConnector(connector, cfg.DatabaseMaxRetries))
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if cfg.DatabaseDebug {
		db.AddQueryHook(&logQueryHook{logger.NewWithLevel("debug")})
	}

	// The file may be held briefly by a previous run; retry the first probe.
	for i := 0; i < cfg.DatabaseConnectRetryCount; i++ {
		_, err = db.Exec("SELECT 1")
		if err == nil {
			break
		}
		time.Sleep(cfg.DatabaseConnectRetryDelay)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// WAL allows the worker pool to read while one goroutine writes.
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}
	if _, err = db.Exec("PRAGMA busy_timeout=?", cfg.DatabaseBusyTimeout.Milliseconds()); err != nil {
		return nil, errors.Wrap(err, "failed to set busy_timeout")
	}

	return db, nil
}
