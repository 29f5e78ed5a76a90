package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Scoring holds the tunable constants of the candidate quality formula. The
// shape of the formula (additive quality terms, multiplicative penalties) is
// fixed; these knobs only move the weights.
type Scoring struct {
	LengthWeight       float64 `koanf:"length_weight" default:"2.0" validate:"gt=0"`
	WordBonus          float64 `koanf:"word_bonus" default:"0.5" validate:"gte=0"`
	WordCap            int     `koanf:"word_cap" default:"5" validate:"gte=1"`
	DiversityWeight    float64 `koanf:"diversity_weight" default:"1.5" validate:"gte=0"`
	DateOnlyPenalty    float64 `koanf:"date_only_penalty" default:"0.3" validate:"gt=0,lte=1"`
	ErrorPenalty       float64 `koanf:"error_penalty" default:"0.2" validate:"gt=0,lte=1"`
	TechnicalIDPenalty float64 `koanf:"technical_id_penalty" default:"0.3" validate:"gt=0,lte=1"`
	InstallerPenalty   float64 `koanf:"installer_penalty" default:"0.2" validate:"gt=0,lte=1"`
	NumericPenalty     float64 `koanf:"numeric_penalty" default:"0.5" validate:"gt=0,lte=1"`
	SymbolPenalty      float64 `koanf:"symbol_penalty" default:"0.5" validate:"gt=0,lte=1"`
	MinAcceptableScore float64 `koanf:"min_acceptable_score" default:"2.0" validate:"gt=0"`
}

type Config struct {
	DryRun           bool `koanf:"dry_run"`
	SkipHidden       bool `koanf:"skip_hidden"`
	IncludeLocation  bool `koanf:"include_location" default:"true"`
	IncludeTimestamp bool `koanf:"include_timestamp" default:"true"`
	Geocode          bool `koanf:"geocode" default:"true"`
	MultiframeVideo  bool `koanf:"multiframe_video" default:"true"`
	Verbose          bool `koanf:"verbose"`

	WorkerProcesses int `koanf:"worker_processes" default:"4" validate:"gte=1,lte=64"`

	CacheEnabled bool   `koanf:"cache_enabled" default:"true"`
	CachePath    string `koanf:"cache_path"`

	// PluginPath points at an optional score.js scoring hook.
	PluginPath string `koanf:"plugin_path"`

	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5" validate:"gte=0"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5" validate:"gte=0"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseDebug             bool          `koanf:"database_debug"`

	Scoring Scoring `koanf:"scoring"`
}

const envPrefix = "NAMEBACK_"

// New builds the configuration from defaults, then an optional YAML config
// file, then NAMEBACK_* environment variables. CLI flags are applied on top by
// the caller.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	if path := configFilePath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file: %s", path)
		}
	}

	// NAMEBACK_SCORING__WORD_CAP=3 maps to scoring.word_cap.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// configFilePath returns the config file to load, or "" when none exists.
// NAMEBACK_CONFIG overrides the default XDG location.
func configFilePath() string {
	if path := os.Getenv("NAMEBACK_CONFIG"); path != "" {
		return path
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	path := filepath.Join(configDir, "nameback", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
