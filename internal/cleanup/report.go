package cleanup

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FailurePrefix identifies the action family in failure messages.
const FailurePrefix = "google-github-actions/auth post failed with: "

// Failer is the runner's failure signal.
type Failer interface {
	SetFailed(msg string)
}

// Report maps the result of Run to the runner. It is the only place a
// failure is signaled.
func Report(f Failer, err error) {
	if err == nil {
		return
	}
	f.SetFailed(FailureMessage(err))
}

// FailureMessage builds the single line shown when the step fails.
func FailureMessage(err error) string {
	return FailurePrefix + ErrorMessage(err)
}

// ErrorMessage normalizes an error for display: trimmed, without a leading
// "Error: " and with a lower-cased first letter.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimSpace(strings.Replace(msg, "Error: ", "", 1))
	if msg == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(msg)
	if len(msg) > size {
		msg = string(unicode.ToLower(r)) + msg[size:]
	}
	return msg
}
