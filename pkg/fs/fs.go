// Package fs provides the narrow filesystem seam the row file layout
// manager (pkg/rowfile) and the advisory file [Locker] open their handles
// through, so the filesystem implementation can be swapped. Two things
// bypass it: a new table file's initial preamble is written by
// github.com/natefinch/atomic straight to the path, and [Locker] flocks the
// OS descriptor returned by [File.Fd].
//
// The surface is deliberately small: rowdb only ever opens a table file
// (creating it if missing), tests for its existence before deciding
// whether to create or verify a preamble, and performs ordinary
// random-access reads/writes/truncates against the open handle plus the
// raw file descriptor a flock needs. Nothing in this module walks a
// directory tree, renames a file, or deletes one through this seam, so
// those operations have no home here.
package fs

import (
	"io"
	"os"
)

// File is an open file handle, satisfied by [os.File]. Fd is needed only
// by [Locker], which flocks the descriptor directly; everything else in
// this module reads, writes, seeks, truncates, and closes through the
// embedded io interfaces.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the OS file descriptor, valid for syscalls such as
	// [golang.org/x/sys/unix.Flock] until the file is closed.
	Fd() uintptr

	// Truncate changes the size of the file. Used by the row file layout
	// manager to shrink the row region after swap-with-last removal.
	Truncate(size int64) error
}

// FS is the filesystem dependency the row file layout manager and
// [Locker] are built against. [Real] is the only implementation in this
// module; any other type that implements this interface can be supplied.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with the given flags and permissions,
	// creating it if [os.O_CREATE] is set. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)
}

var _ File = (*os.File)(nil)
