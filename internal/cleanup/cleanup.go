package cleanup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	// InputCreateCredentials gates the whole step.
	InputCreateCredentials = "create_credentials_file"
	// InputCleanupCredentials opts out of removal while still creating the file.
	InputCleanupCredentials = "cleanup_credentials"
	// CredentialsPathEnv is exported by the auth step when it writes the file.
	// It is the only variable consulted; GOOGLE_APPLICATION_CREDENTIALS and
	// friends may point at files the user manages and must never be removed.
	CredentialsPathEnv = "GOOGLE_GHA_CREDS_PATH"
)

// Inputs models the runner capabilities the decider reads from.
type Inputs interface {
	BoolInput(name string) (bool, error)
	Getenv(key string) string
}

// Logger receives the human readable lines shown in the job log.
type Logger interface {
	Infof(format string, args ...any)
}

// RemoveFunc deletes a single path, treating an absent path as success.
type RemoveFunc func(path string) error

// Dependencies bundles the collaborators of a Decider.
type Dependencies struct {
	Inputs Inputs
	Logger Logger
	Remove RemoveFunc
}

// Decider runs the guarded removal of the exported credentials file.
type Decider struct {
	inputs Inputs
	logger Logger
	remove RemoveFunc
}

// New creates a Decider.
func New(deps Dependencies) *Decider {
	return &Decider{inputs: deps.Inputs, logger: deps.Logger, remove: deps.Remove}
}

// Run evaluates the guards in order and removes the credentials file when all
// of them hold. Skips are not errors. Any returned error means the step failed.
func (d *Decider) Run(ctx context.Context) (Outcome, error) {
	createCredentials, err := d.inputs.BoolInput(InputCreateCredentials)
	if err != nil {
		return failed(err)
	}
	if !createCredentials {
		return d.skip(ReasonCreateDisabled, fmt.Sprintf("Skipping credential cleanup - %q is false.", InputCreateCredentials))
	}

	cleanupCredentials, err := d.inputs.BoolInput(InputCleanupCredentials)
	if err != nil {
		return failed(err)
	}
	if !cleanupCredentials {
		return d.skip(ReasonCleanupDisabled, fmt.Sprintf("Skipping credential cleanup - %q is false.", InputCleanupCredentials))
	}

	credentialsPath := d.inputs.Getenv(CredentialsPathEnv)
	if credentialsPath == "" {
		return d.skip(ReasonPathUnset, fmt.Sprintf("Skipping credential cleanup - $%s is not set.", CredentialsPathEnv))
	}

	log.Ctx(ctx).Debug().Str("path", credentialsPath).Msg("removing exported credentials")
	if err := d.remove(credentialsPath); err != nil {
		return failed(err)
	}

	d.logger.Infof("Removed exported credentials at %q.", credentialsPath)
	return Outcome{Kind: OutcomeRemoved, Path: credentialsPath}, nil
}

func (d *Decider) skip(reason Reason, msg string) (Outcome, error) {
	d.logger.Infof("%s", msg)
	return Outcome{Kind: OutcomeSkipped, Reason: reason, Message: msg}, nil
}

func failed(err error) (Outcome, error) {
	return Outcome{Kind: OutcomeFailed, Message: FailureMessage(err)}, err
}
