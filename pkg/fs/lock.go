package fs

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock indicates a non-blocking lock attempt found the file
// already locked by another holder.
var ErrWouldBlock = errors.New("fs: lock would block")

// Locker grants advisory, non-blocking exclusive locks on lock files.
//
// A Locker locks only the files it is asked to lock: no table-opening path
// (rowfile.Open, table.Open, table.Attach, kvset.Open) takes such a lock,
// so opening the same table file twice is not detected. Nothing here makes
// concurrent writers from two processes safe to run together.
type Locker struct {
	fs FS
}

// NewLocker returns a Locker that opens lock files through fsys.
func NewLocker(fsys FS) *Locker {
	if fsys == nil {
		panic("fs is nil")
	}
	return &Locker{fs: fsys}
}

// Lock is a held advisory lock. Close releases it.
type Lock struct {
	file File
	path string
}

// TryLock attempts to acquire an exclusive, non-blocking lock on path,
// creating the file if necessary. It returns ErrWouldBlock if another
// holder already has the lock.
func (l *Locker) TryLock(path string) (*Lock, error) {
	f, err := l.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fs: open lock file %q: %w", path, err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return nil, ErrWouldBlock
		}
		return nil, fmt.Errorf("fs: flock %q: %w", path, err)
	}

	return &Lock{file: f, path: path}, nil
}

// Close releases the lock and closes the underlying file handle.
func (lk *Lock) Close() error {
	if lk == nil || lk.file == nil {
		return nil
	}
	err := unix.Flock(int(lk.file.Fd()), unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil
	if err != nil {
		return fmt.Errorf("fs: unlock %q: %w", lk.path, err)
	}
	return closeErr
}
