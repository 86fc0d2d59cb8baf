package runner

import (
	"io"
	"sync"

	"github.com/sethvargo/go-githubactions"
)

// Runner is the slice of the GitHub Actions toolkit the post step needs:
// typed input retrieval, env lookup, plain log lines and the failure signal.
type Runner struct {
	action *githubactions.Action

	mu     sync.Mutex
	failed bool
}

// Options configures the Runner. Zero values fall back to the process
// environment and stdout.
type Options struct {
	Out    io.Writer
	Getenv func(key string) string
}

// New creates a Runner on top of a go-githubactions Action.
func New(opts Options) *Runner {
	var aopts []githubactions.Option
	if opts.Out != nil {
		aopts = append(aopts, githubactions.WithWriter(opts.Out))
	}
	if opts.Getenv != nil {
		aopts = append(aopts, githubactions.WithGetenv(opts.Getenv))
	}
	return &Runner{action: githubactions.New(aopts...)}
}

// BoolInput parses an action input as a YAML 1.2 core schema boolean.
func (r *Runner) BoolInput(name string) (bool, error) {
	return ParseBool(name, r.action.GetInput(name))
}

// Getenv reads an environment variable through the action's lookup.
func (r *Runner) Getenv(key string) string { return r.action.Getenv(key) }

// Infof writes a log line to the runner output.
func (r *Runner) Infof(format string, args ...any) { r.action.Infof(format, args...) }

// SetFailed emits an error command and marks the step failed. The caller is
// expected to exit non-zero once Failed reports true.
func (r *Runner) SetFailed(msg string) {
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()
	r.action.Errorf("%s", msg)
}

// Failed reports whether SetFailed was called.
func (r *Runner) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// ExitCode maps the failure state to a process exit code.
func (r *Runner) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}
