package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("NAMEBACK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := New()
	require.NoError(t, err)

	assert.False(t, cfg.DryRun)
	assert.True(t, cfg.IncludeLocation)
	assert.True(t, cfg.IncludeTimestamp)
	assert.True(t, cfg.Geocode)
	assert.True(t, cfg.MultiframeVideo)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 4, cfg.WorkerProcesses)
	assert.InDelta(t, 2.0, cfg.Scoring.LengthWeight, 0.0001)
	assert.InDelta(t, 2.0, cfg.Scoring.MinAcceptableScore, 0.0001)
	assert.Equal(t, 5, cfg.Scoring.WordCap)
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("worker_processes: 8\nscoring:\n  word_cap: 3\n  min_acceptable_score: 1.5\n")
	require.NoError(t, os.WriteFile(path, content, 0644))
	t.Setenv("NAMEBACK_CONFIG", path)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.WorkerProcesses)
	assert.Equal(t, 3, cfg.Scoring.WordCap)
	assert.InDelta(t, 1.5, cfg.Scoring.MinAcceptableScore, 0.0001)
	// Untouched values keep their defaults.
	assert.InDelta(t, 0.5, cfg.Scoring.WordBonus, 0.0001)
}

func TestNewEnvOverrides(t *testing.T) {
	t.Setenv("NAMEBACK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NAMEBACK_WORKER_PROCESSES", "2")
	t.Setenv("NAMEBACK_SCORING__WORD_CAP", "4")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.WorkerProcesses)
	assert.Equal(t, 4, cfg.Scoring.WordCap)
}

func TestNewRejectsInvalid(t *testing.T) {
	t.Setenv("NAMEBACK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NAMEBACK_WORKER_PROCESSES", "0")

	_, err := New()
	assert.Error(t, err)
}
