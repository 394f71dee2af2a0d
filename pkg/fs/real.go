package fs

import (
	"os"
)

// Real implements [FS] against the real filesystem. Every method is a
// thin passthrough to [os], with the single exception of [Real.Exists],
// which turns a [os.Stat] call into a plain boolean.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// Open is a passthrough wrapper for [os.Open].
func (r *Real) Open(path string) (File, error) {
	return os.Open(path)
}

// OpenFile is a passthrough wrapper for [os.OpenFile].
func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

// Exists checks whether path exists using [os.Stat].
// Returns (true, nil) if it exists, (false, nil) if it does not, or
// (false, err) for any other stat error.
func (r *Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

var _ FS = (*Real)(nil)
