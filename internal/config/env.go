package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// MetricsConfig controls where run metrics are exported. Both sinks are
// optional; empty values disable them.
type MetricsConfig struct {
	Textfile       string
	PushgatewayURL string
	Job            string
	PushTimeout    time.Duration
}

// RunnerConfig carries workflow identifiers used as log and metric context.
type RunnerConfig struct {
	Repository string
	Workflow   string
	RunID      string
	Job        string
	Debug      bool
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Metrics MetricsConfig
	Runner  RunnerConfig
}

// Load reads an optional dotenv file and builds the configuration from the
// environment, falling back to the file's values. The file is parsed into a
// map only; the process environment is never modified, so nothing read
// through the runner (inputs, the credentials path) can come from it.
// A missing file is ignored. On a parse error the environment-only config is
// returned together with the error.
func Load(dotenvPath string) (Config, error) {
	if dotenvPath == "" {
		return FromEnv(), nil
	}
	file, err := godotenv.Read(dotenvPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FromEnv(), nil
		}
		return FromEnv(), fmt.Errorf("load %s: %w", dotenvPath, err)
	}
	return fromLookup(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return file[key]
	}), nil
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config { return fromLookup(os.Getenv) }

func fromLookup(lookup func(string) string) Config {
	getEnv := func(key, def string) string {
		if v := lookup(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{}

	cfg.Runner = RunnerConfig{
		Repository: getEnv("GITHUB_REPOSITORY", ""),
		Workflow:   getEnv("GITHUB_WORKFLOW", ""),
		RunID:      getEnv("GITHUB_RUN_ID", ""),
		Job:        getEnv("GITHUB_JOB", ""),
		Debug:      parseBool(getEnv("RUNNER_DEBUG", "0")),
	}

	// Logging defaults
	defLevel := "info"
	if cfg.Runner.Debug {
		defLevel = "debug"
	}
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", defLevel),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty(lookup("ENVIRONMENT")))),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "10"), 10),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "3"), 3),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "7"), 7),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_auth_post",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "2s"), 2*time.Second),
	}

	// Metrics defaults
	cfg.Metrics = MetricsConfig{
		Textfile:       getEnv("METRICS_TEXTFILE", ""),
		PushgatewayURL: getEnv("METRICS_PUSHGATEWAY_URL", ""),
		Job:            getEnv("METRICS_JOB", "auth_post"),
		PushTimeout:    parseDuration(getEnv("METRICS_PUSH_TIMEOUT", "5s"), 5*time.Second),
	}

	return cfg
}

// Helpers
func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty(environment string) string {
	env := strings.ToLower(environment)
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
