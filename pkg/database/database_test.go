package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securityronin/nameback/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		DatabaseConnectRetryCount: 3,
		DatabaseConnectRetryDelay: 10 * time.Millisecond,
		DatabaseMaxRetries:        3,
		DatabaseBusyTimeout:       time.Second,
	}
}

func TestIsBusyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"database is locked", errors.New("database is locked"), true},
		{"table locked", errors.New("database table is locked"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"SQLITE_LOCKED", errors.New("SQLITE_LOCKED"), true},
		{"code 5", errors.New("error (5): database busy"), true},
		{"code 6", errors.New("error (6): database locked"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBusyError(tt.err))
		})
	}
}

func TestRetryWithBackoffSucceedsAfterBusy(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffNonBusyFailsFast(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		return errors.New("syntax error")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 2, func() error {
		calls++
		return errors.New("SQLITE_BUSY")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestNewOpensAndConfigures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	db, err := New(testConfig(), path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNewCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")

	db, err := New(testConfig(), path)
	require.NoError(t, err)
	defer db.Close()
}

func TestConcurrentWrites(t *testing.T) {
	db, err := New(testConfig(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE writes_test (id INTEGER PRIMARY KEY AUTOINCREMENT, value TEXT NOT NULL)`)
	require.NoError(t, err)

	const workers = 8
	const writesPerWorker = 20

	var wg sync.WaitGroup
	var failures atomic.Int32
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < writesPerWorker; i++ {
				if _, err := db.Exec("INSERT INTO writes_test (value) VALUES (?)", "x"); err != nil {
					failures.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, failures.Load())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM writes_test").Scan(&count))
	assert.Equal(t, workers*writesPerWorker, count)
}
