package local

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Ning0612/jutil/internal/domain"
)

// Entry is a local file or directory visited by the mirror
type Entry struct {
	// Path as passed in or joined from its parent directory
	Path string
	Name string
	// IsDir follows symbolic links: a link to a directory is a directory
	IsDir bool
	// Size in bytes (0 for directories)
	Size int64
}

// Source gives read-only access to the local tree being uploaded
type Source struct {
	fs afero.Fs
}

// New creates a source over the real filesystem
func New() *Source {
	return NewWithFs(afero.NewOsFs())
}

// NewWithFs creates a source over any afero filesystem
func NewWithFs(fs afero.Fs) *Source {
	return &Source{fs: fs}
}

// Stat returns the entry for path, following symbolic links
func (s *Source) Stat(path string) (Entry, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return Entry{}, mapError(err)
	}
	return entryFromInfo(path, info), nil
}

// ReadDir lists the immediate children of dir. Children that are symbolic
// links are resolved so IsDir and Size describe the link target.
func (s *Source) ReadDir(dir string) ([]Entry, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, mapError(err)
	}

	result := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entryPath := filepath.Join(dir, info.Name())
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := s.fs.Stat(entryPath)
			if err == nil {
				info = target
			}
			// A dangling link stays a non-directory; opening it fails
			// later with the real error.
		}
		result = append(result, entryFromInfo(entryPath, info))
	}

	return result, nil
}

// Open opens a file for reading
// Caller is responsible for closing the reader
func (s *Source) Open(path string) (io.ReadCloser, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

// Canonical returns an identity for dir that is equal for every path
// reaching the same directory. On the OS filesystem symbolic links are
// resolved; other filesystems have no links, so the cleaned absolute path
// is enough.
func (s *Source) Canonical(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if _, ok := s.fs.(*afero.OsFs); ok {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", mapError(err)
		}
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}

func entryFromInfo(path string, info os.FileInfo) Entry {
	e := Entry{
		Path:  path,
		Name:  BaseName(path),
		IsDir: info.IsDir(),
	}
	if !e.IsDir {
		e.Size = info.Size()
	}
	return e
}

// mapError converts OS errors to domain errors, keeping the original
// *os.PathError in the chain
func mapError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
	}
	return err
}

// BaseName returns the last element of path. Paths such as "." or "dir/.."
// are resolved first so the name is the directory's real name.
func BaseName(path string) string {
	name := filepath.Base(path)
	if name == "." || name == ".." {
		if abs, err := filepath.Abs(path); err == nil {
			name = filepath.Base(abs)
		}
	}
	return name
}
