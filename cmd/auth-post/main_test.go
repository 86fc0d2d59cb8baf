package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/authpost/internal/cleanup"
)

func setupEnv(t *testing.T, create, cleanup, credsPath string) {
	t.Helper()
	for _, k := range []string{
		envFileVar, "LOG_LEVEL", "LOG_FILE", "LOG_PRETTY", "ENVIRONMENT", "RUNNER_DEBUG", "SEND_LOGS_TO_AXIOM",
		"METRICS_TEXTFILE", "METRICS_PUSHGATEWAY_URL",
		"GOOGLE_APPLICATION_CREDENTIALS",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("INPUT_CREATE_CREDENTIALS_FILE", create)
	t.Setenv("INPUT_CLEANUP_CREDENTIALS", cleanup)
	t.Setenv("GOOGLE_GHA_CREDS_PATH", credsPath)
}

func TestRun_RemovesCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds-123.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	setupEnv(t, "true", "true", path)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.NoFileExists(t, path)
	assert.Contains(t, stdout.String(), fmt.Sprintf("Removed exported credentials at %q.", path))
	assert.NotContains(t, stdout.String(), "::error::")
	assert.Contains(t, stderr.String(), `"outcome":"removed"`)
}

func TestRun_SkipLeavesUserCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user-creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	setupEnv(t, "true", "true", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.FileExists(t, path)
	assert.Contains(t, stdout.String(), "Skipping credential cleanup - $GOOGLE_GHA_CREDS_PATH is not set.")
}

func TestRun_CleanupDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	setupEnv(t, "true", "false", path)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.FileExists(t, path)
}

func TestRun_InvalidInputFails(t *testing.T) {
	setupEnv(t, "yes", "true", "/tmp/creds.json")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), `::error::google-github-actions/auth post failed with: input does not meet YAML 1.2 "Core Schema" specification: create_credentials_file`)
}

func TestRun_WritesMetricsTextfile(t *testing.T) {
	setupEnv(t, "false", "true", "")
	prom := filepath.Join(t.TempDir(), "auth_post.prom")
	t.Setenv("METRICS_TEXTFILE", prom)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 0, code)
	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `auth_post_runs_total{outcome="skipped",reason="create_credentials_file_false"}`)
}

func TestRun_MetricsFailureKeepsSuccess(t *testing.T) {
	setupEnv(t, "false", "true", "")
	t.Setenv("METRICS_TEXTFILE", filepath.Join(t.TempDir(), "missing", "auth_post.prom"))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "metrics textfile export failed")
}

func TestRun_EnvFileCannotSupplyCredentialsPath(t *testing.T) {
	dir := t.TempDir()
	userCreds := filepath.Join(dir, "user-managed.json")
	require.NoError(t, os.WriteFile(userCreds, []byte("{}"), 0o600))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"GOOGLE_GHA_CREDS_PATH="+userCreds+"\n"+
			"INPUT_CREATE_CREDENTIALS_FILE=true\n"+
			"INPUT_CLEANUP_CREDENTIALS=true\n"), 0o600))
	setupEnv(t, "true", "true", "")
	require.NoError(t, os.Unsetenv("GOOGLE_GHA_CREDS_PATH"))
	t.Setenv(envFileVar, envFile)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.FileExists(t, userCreds)
	assert.Contains(t, stdout.String(), "Skipping credential cleanup - $GOOGLE_GHA_CREDS_PATH is not set.")
	_, ok := os.LookupEnv("GOOGLE_GHA_CREDS_PATH")
	assert.False(t, ok)
}

func TestRun_BadEnvFileStillRemovesCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds-123.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	setupEnv(t, "true", "true", path)
	t.Setenv(envFileVar, t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.NoFileExists(t, path)
	assert.NotContains(t, stdout.String(), "::error::")
	assert.Contains(t, stderr.String(), "env file ignored")
}

func TestRun_RemoveFailureFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("errno mapping differs on windows")
	}
	dir := filepath.Join(t.TempDir(), "creds")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o600))
	setupEnv(t, "true", "true", dir)
	prom := filepath.Join(t.TempDir(), "auth_post.prom")
	t.Setenv("METRICS_TEXTFILE", prom)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.DirExists(t, dir)
	assert.Contains(t, stdout.String(), fmt.Sprintf("::error::google-github-actions/auth post failed with: failed to remove %q", dir))
	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `auth_post_removal_errors_total{class="not_empty"}`)
	assert.Contains(t, string(data), `auth_post_runs_total{outcome="failed",reason=""}`)
}

type panickingDecider struct{}

func (panickingDecider) Run(context.Context) (cleanup.Outcome, error) { panic("boom") }

func TestDecide_PanicBecomesFailure(t *testing.T) {
	outcome, err := decide(context.Background(), panickingDecider{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected panic: boom")
	assert.Equal(t, cleanup.OutcomeFailed, outcome.Kind)
	assert.Equal(t, "google-github-actions/auth post failed with: unexpected panic: boom", outcome.Message)
}
