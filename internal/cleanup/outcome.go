package cleanup

// OutcomeKind is the terminal state of a run.
type OutcomeKind string

const (
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeRemoved OutcomeKind = "removed"
	OutcomeFailed  OutcomeKind = "failed"
)

// Reason explains a skipped run.
type Reason string

const (
	ReasonCreateDisabled  Reason = "create_credentials_file_false"
	ReasonCleanupDisabled Reason = "cleanup_credentials_false"
	ReasonPathUnset       Reason = "creds_path_unset"
)

// Outcome describes what a run did.
type Outcome struct {
	Kind    OutcomeKind
	Reason  Reason
	Path    string // set when removed
	Message string // skip line or failure message
}
