package plugins

import (
	"os"
	"sync"

	"github.com/dop251/goja"
	"github.com/pkg/errors"
)

// Candidate is the shape handed to the scoring hook. Score carries the value
// the built-in formula produced; the hook sees it alongside the candidate's
// provenance so it can reweight by source.
type Candidate struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Kind     string  `json:"kind"`
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

// Adjustment is the hook's verdict for one candidate.
type Adjustment struct {
	// Score replaces the built-in score when Changed is true.
	Score   float64
	Changed bool
	// Veto removes the candidate from consideration entirely.
	Veto bool
}

// ScoreHook wraps a goja VM running a user-supplied score.js. The script must
// define a `plugin` global with an `adjustScore(candidate)` function:
//
//	plugin = {
//	    adjustScore: function (c) {
//	        if (c.source === "filename_stem") return c.score * 0.5;
//	        if (c.text === "confidential") return false;
//	        return undefined;
//	    },
//	};
//
// Returning a number replaces the score, false vetoes the candidate, and
// undefined or null leaves it untouched.
type ScoreHook struct {
	// goja VMs are not goroutine safe; the worker pool serializes on mu.
	mu     sync.Mutex
	vm     *goja.Runtime
	adjust goja.Callable
}

// LoadScoreHook reads and executes the script at path and extracts the
// adjustScore hook.
func LoadScoreHook(path string) (*ScoreHook, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scoring plugin")
	}

	vm := goja.New()
	if _, err := vm.RunString(string(src)); err != nil {
		return nil, errors.Wrap(err, "failed to execute scoring plugin")
	}

	pluginVal := vm.Get("plugin")
	if pluginVal == nil || goja.IsUndefined(pluginVal) || goja.IsNull(pluginVal) {
		return nil, errors.New("scoring plugin did not define a 'plugin' global")
	}

	pluginObj := pluginVal.ToObject(vm)
	adjustVal := pluginObj.Get("adjustScore")
	if adjustVal == nil || goja.IsUndefined(adjustVal) || goja.IsNull(adjustVal) {
		return nil, errors.New("scoring plugin does not export 'adjustScore'")
	}

	adjustFn, ok := goja.AssertFunction(adjustVal)
	if !ok {
		return nil, errors.New("'adjustScore' is not a function")
	}

	return &ScoreHook{vm: vm, adjust: adjustFn}, nil
}

// Adjust runs the hook for one candidate. A script error fails the call; the
// caller decides whether to treat that as fatal or fall back to the built-in
// score.
func (h *ScoreHook) Adjust(c Candidate) (Adjustment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	arg := h.vm.NewObject()
	_ = arg.Set("text", c.Text)
	_ = arg.Set("source", c.Source)
	_ = arg.Set("kind", c.Kind)
	_ = arg.Set("language", c.Language)
	_ = arg.Set("score", c.Score)

	result, err := h.adjust(goja.Undefined(), arg)
	if err != nil {
		return Adjustment{}, errors.Wrap(err, "adjustScore failed")
	}

	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return Adjustment{}, nil
	}

	exported := result.Export()
	switch v := exported.(type) {
	case bool:
		if !v {
			return Adjustment{Veto: true}, nil
		}
		return Adjustment{}, nil
	case int64:
		return Adjustment{Score: float64(v), Changed: true}, nil
	case float64:
		return Adjustment{Score: v, Changed: true}, nil
	default:
		return Adjustment{}, errors.Errorf("adjustScore returned unsupported type %T", exported)
	}
}
