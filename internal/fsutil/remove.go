package fsutil

import (
	"errors"
	"io/fs"
	"os"
)

// ForceRemove deletes a single path. A path that is already gone counts as
// removed. Directories are not walked: a non-empty directory is an error.
func ForceRemove(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &RemoveError{Path: path, Err: unwrapPathError(err)}
	}
	return nil
}

// os.Remove reports *PathError with the path baked into the message; drop it
// so RemoveError does not print the path twice.
func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
