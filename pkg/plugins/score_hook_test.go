package plugins

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "score.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoadScoreHookMissingFile(t *testing.T) {
	_, err := LoadScoreHook("/nonexistent/score.js")
	require.Error(t, err)
}

func TestLoadScoreHookNoPluginGlobal(t *testing.T) {
	path := writeScript(t, `var x = 1;`)
	_, err := LoadScoreHook(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin")
}

func TestLoadScoreHookNoAdjustScore(t *testing.T) {
	path := writeScript(t, `plugin = {};`)
	_, err := LoadScoreHook(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adjustScore")
}

func TestLoadScoreHookSyntaxError(t *testing.T) {
	path := writeScript(t, `plugin = {`)
	_, err := LoadScoreHook(path)
	require.Error(t, err)
}

func TestAdjustReplacesScore(t *testing.T) {
	path := writeScript(t, `plugin = {
		adjustScore: function (c) {
			if (c.source === "filename_stem") return c.score * 0.5;
			return undefined;
		},
	};`)
	hook, err := LoadScoreHook(path)
	require.NoError(t, err)

	adj, err := hook.Adjust(Candidate{Text: "report", Source: "filename_stem", Score: 4.0})
	require.NoError(t, err)
	assert.True(t, adj.Changed)
	assert.InDelta(t, 2.0, adj.Score, 0.001)
	assert.False(t, adj.Veto)
}

func TestAdjustLeavesUntouched(t *testing.T) {
	path := writeScript(t, `plugin = {
		adjustScore: function (c) { return undefined; },
	};`)
	hook, err := LoadScoreHook(path)
	require.NoError(t, err)

	adj, err := hook.Adjust(Candidate{Text: "report", Score: 4.0})
	require.NoError(t, err)
	assert.False(t, adj.Changed)
	assert.False(t, adj.Veto)
}

func TestAdjustVeto(t *testing.T) {
	path := writeScript(t, `plugin = {
		adjustScore: function (c) {
			if (c.text === "confidential") return false;
			return undefined;
		},
	};`)
	hook, err := LoadScoreHook(path)
	require.NoError(t, err)

	adj, err := hook.Adjust(Candidate{Text: "confidential", Score: 9.0})
	require.NoError(t, err)
	assert.True(t, adj.Veto)

	adj, err = hook.Adjust(Candidate{Text: "report", Score: 4.0})
	require.NoError(t, err)
	assert.False(t, adj.Veto)
}

func TestAdjustTrueMeansUnchanged(t *testing.T) {
	path := writeScript(t, `plugin = {
		adjustScore: function (c) { return true; },
	};`)
	hook, err := LoadScoreHook(path)
	require.NoError(t, err)

	adj, err := hook.Adjust(Candidate{Text: "report", Score: 4.0})
	require.NoError(t, err)
	assert.False(t, adj.Changed)
	assert.False(t, adj.Veto)
}

func TestAdjustIntegerReturn(t *testing.T) {
	path := writeScript(t, `plugin = {
		adjustScore: function (c) { return 7; },
	};`)
	hook, err := LoadScoreHook(path)
	require.NoError(t, err)

	adj, err := hook.Adjust(Candidate{Text: "report", Score: 4.0})
	require.NoError(t, err)
	assert.True(t, adj.Changed)
	assert.InDelta(t, 7.0, adj.Score, 0.001)
}

func TestAdjustScriptError(t *testing.T) {
	path := writeScript(t, `plugin = {
		adjustScore: function (c) { throw new Error("boom"); },
	};`)
	hook, err := LoadScoreHook(path)
	require.NoError(t, err)

	_, err = hook.Adjust(Candidate{Text: "report"})
	require.Error(t, err)
}

func TestAdjustUnsupportedReturn(t *testing.T) {
	path := writeScript(t, `plugin = {
		adjustScore: function (c) { return "nope"; },
	};`)
	hook, err := LoadScoreHook(path)
	require.NoError(t, err)

	_, err = hook.Adjust(Candidate{Text: "report"})
	require.Error(t, err)
}

func TestAdjustConcurrent(t *testing.T) {
	path := writeScript(t, `plugin = {
		adjustScore: function (c) { return c.score + 1; },
	};`)
	hook, err := LoadScoreHook(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				adj, err := hook.Adjust(Candidate{Text: "report", Score: 1.0})
				assert.NoError(t, err)
				assert.InDelta(t, 2.0, adj.Score, 0.001)
			}
		}()
	}
	wg.Wait()
}
