package download

import (
	"fmt"
	"os"
	"path/filepath"
)

// Filesystem is the local I/O capability the Fetcher consumes (spec.md §6).
// The os-backed osFilesystem returned by NewOSFilesystem is the only
// implementation in this package; production code and the tests both use it.
type Filesystem interface {
	Exists(path string) bool
	MkdirAll(path string) error
	Rename(src, dst string) error
	Remove(path string) error
	Create(path string) (WriteAtCloser, error)
}

// WriteAtCloser is the minimal file handle the Fetcher writes through.
// *os.File satisfies it; it is also what
// aws-sdk-go-v2/feature/s3/manager.Downloader requires as its
// destination (io.WriterAt), which is why FetchToFile/ObjectFetcher take
// this exact shape rather than io.Writer.
type WriteAtCloser interface {
	WriteAt(p []byte, off int64) (int, error)
	Close() error
	Name() string
}

// osFilesystem is the production Filesystem backed by the standard
// library, wrapping every error with errFilesystem so classify can
// recognize it as ErrFilesystem regardless of the underlying os error
// shape.
type osFilesystem struct{}

// NewOSFilesystem returns the default, os-backed Filesystem.
func NewOSFilesystem() Filesystem { return osFilesystem{} }

func (osFilesystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFilesystem) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w: %w", path, errFilesystem, err)
	}
	return nil
}

func (osFilesystem) Rename(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename %s -> %s: %w: %w", src, dst, errFilesystem, err)
	}
	return nil
}

func (osFilesystem) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w: %w", path, errFilesystem, err)
	}
	return nil
}

func (osFilesystem) Create(path string) (WriteAtCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w: %w", path, errFilesystem, err)
	}
	return f, nil
}

// ResolveExistingDir validates that root names an already-existing
// directory, per the Coordinator's validation step (spec.md §4.6 step 1).
// A relative root is accepted and resolved against the working directory
// with filepath.Abs before the check.
func ResolveExistingDir(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve %s: %w: %w", root, errFilesystem, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat %s: %w: %w", abs, errFilesystem, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w: not a directory", abs, errFilesystem)
	}
	return nil
}
