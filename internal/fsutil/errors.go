package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// RemoveError represents a removal that failed for a reason other than the
// path being absent
type RemoveError struct {
	Path string
	Err  error
}

func (e *RemoveError) Error() string {
	return fmt.Sprintf("failed to remove %q: %v", e.Path, e.Err)
}

func (e *RemoveError) Unwrap() error { return e.Err }

// Error classes used as metric labels.
const (
	ClassNone       = "none"
	ClassNotFound   = "not_found"
	ClassPermission = "permission"
	ClassBusy       = "busy"
	ClassNotEmpty   = "not_empty"
	ClassIO         = "io"
	ClassOther      = "other"
)

// Classify buckets a removal error into a coarse class
func Classify(err error) string {
	if err == nil {
		return ClassNone
	}

	if errors.Is(err, fs.ErrNotExist) {
		return ClassNotFound
	}
	if errors.Is(err, fs.ErrPermission) {
		return ClassPermission
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EBUSY, syscall.ETXTBSY:
			return ClassBusy
		case syscall.ENOTEMPTY, syscall.EEXIST:
			return ClassNotEmpty
		case syscall.EIO, syscall.EROFS:
			return ClassIO
		}
	}

	// Fallback on message keywords for wrapped errors from other sources
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "permission denied") || strings.Contains(errStr, "access is denied"):
		return ClassPermission
	case strings.Contains(errStr, "directory not empty"):
		return ClassNotEmpty
	case strings.Contains(errStr, "read-only file system") || strings.Contains(errStr, "input/output error"):
		return ClassIO
	}

	return ClassOther
}
