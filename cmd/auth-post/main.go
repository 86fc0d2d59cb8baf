package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/authpost/internal/cleanup"
	cfgpkg "github.com/local/authpost/internal/config"
	"github.com/local/authpost/internal/fsutil"
	logpkg "github.com/local/authpost/internal/logger"
	"github.com/local/authpost/internal/metrics"
	"github.com/local/authpost/internal/runner"
)

// envFileVar optionally points at a dotenv file for local runs.
const envFileVar = "AUTH_POST_ENV_FILE"

func main() {
	os.Exit(run(context.Background(), os.Stdout, os.Stderr))
}

func run(ctx context.Context, stdout, stderr io.Writer) int {
	rn := runner.New(runner.Options{Out: stdout})

	// A broken dotenv file only loses optional settings; the cleanup still runs.
	cfg, cfgErr := cfgpkg.Load(os.Getenv(envFileVar))

	// Init logging
	runID := uuid.NewString()
	if err := logpkg.Init(logpkg.Options{
		Level:      cfg.Logging.Level,
		Pretty:     cfg.Logging.Pretty,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		Console:    stderr,
		Fields: map[string]string{
			"run_id":     runID,
			"repository": cfg.Runner.Repository,
			"workflow":   cfg.Runner.Workflow,
			"gh_run_id":  cfg.Runner.RunID,
			"gh_job":     cfg.Runner.Job,
		},
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	}); err != nil {
		log.Warn().Err(err).Msg("logger init failed, using defaults")
	}
	defer logpkg.Close()
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Str("file", os.Getenv(envFileVar)).Msg("env file ignored, using environment only")
	}

	metrics.Init()
	ctx = logpkg.Get().WithContext(ctx)

	dec := cleanup.New(cleanup.Dependencies{
		Inputs: rn,
		Logger: rn,
		Remove: fsutil.ForceRemove,
	})

	start := time.Now()
	outcome, err := decide(ctx, dec)
	observe(outcome, err, time.Since(start))
	cleanup.Report(rn, err)

	exportMetrics(ctx, cfg)
	return rn.ExitCode()
}

type decider interface {
	Run(ctx context.Context) (cleanup.Outcome, error)
}

// decide converts a panic in the decider into an error so it is reported
// through the same failure signal as any other error.
func decide(ctx context.Context, d decider) (outcome cleanup.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected panic: %v", r)
			outcome = cleanup.Outcome{Kind: cleanup.OutcomeFailed, Message: cleanup.FailureMessage(err)}
		}
	}()
	return d.Run(ctx)
}

func observe(outcome cleanup.Outcome, err error, dur time.Duration) {
	metrics.ObserveRun(string(outcome.Kind), string(outcome.Reason), dur)

	if err != nil {
		ev := log.Error().Err(err).Str("outcome", string(outcome.Kind))
		var re *fsutil.RemoveError
		if errors.As(err, &re) {
			class := fsutil.Classify(re.Err)
			metrics.IncRemovalError(class)
			ev = ev.Str("path", re.Path).Str("class", class)
		}
		ev.Msg("credential cleanup failed")
		return
	}

	log.Info().
		Str("outcome", string(outcome.Kind)).
		Str("reason", string(outcome.Reason)).
		Str("path", outcome.Path).
		Dur("duration", dur).
		Msg("credential cleanup finished")
}

// exportMetrics never affects the exit code; sinks are best-effort.
func exportMetrics(ctx context.Context, cfg cfgpkg.Config) {
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Str("file", cfg.Metrics.Textfile).Msg("metrics textfile export failed")
		}
	}
	if cfg.Metrics.PushgatewayURL != "" {
		pctx, cancel := context.WithTimeout(ctx, cfg.Metrics.PushTimeout)
		defer cancel()
		grouping := map[string]string{
			"repository": cfg.Runner.Repository,
			"workflow":   cfg.Runner.Workflow,
			"gh_job":     cfg.Runner.Job,
		}
		if err := metrics.Push(pctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, grouping); err != nil {
			log.Warn().Err(err).Str("url", cfg.Metrics.PushgatewayURL).Msg("metrics push failed")
		}
	}
}
