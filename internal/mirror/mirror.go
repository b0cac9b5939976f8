// Package mirror reproduces local directory trees inside a remote store.
//
// Folders are matched by name under their parent and created only when
// missing, so repeated runs reuse the same folder hierarchy. Files are always
// uploaded as new entries; a second run leaves duplicate files next to the
// first copies.
//
// Traversal is depth-first and sequential, with an explicit stack instead of
// recursion. A failure stops the run where it happened: folders and files
// already created stay in the store.
package mirror

import (
	"context"
	"fmt"

	"github.com/Ning0612/jutil/internal/domain"
	"github.com/Ning0612/jutil/internal/local"
	"github.com/Ning0612/jutil/internal/logger"
	"github.com/Ning0612/jutil/internal/progress"
	"github.com/Ning0612/jutil/internal/remote"
)

// TopLevelDesc labels the progress batch over the requested paths
const TopLevelDesc = "Uploading file/dir lists"

// Mirror drives a whole upload run
type Mirror struct {
	source   *local.Source
	resolver *Resolver
	uploader *Uploader
	reporter progress.Reporter
	log      logger.Logger
	stats    domain.Stats
}

// New creates a mirror reading from source and writing to store
func New(store remote.Store, source *local.Source, reporter progress.Reporter, log logger.Logger) *Mirror {
	if reporter == nil {
		reporter = progress.NullReporter{}
	}
	if log == nil {
		log = &logger.NullLogger{}
	}

	m := &Mirror{
		source:   source,
		resolver: NewResolver(store, log),
		uploader: NewUploader(store, source, reporter, log),
		reporter: reporter,
		log:      log,
	}
	m.resolver.stats = &m.stats
	m.uploader.stats = &m.stats
	return m
}

// Stats returns the counters accumulated so far
func (m *Mirror) Stats() domain.Stats {
	return m.stats
}

// Resolver returns the folder resolver used by the mirror
func (m *Mirror) Resolver() *Resolver {
	return m.resolver
}

// Run resolves (creating if needed) destName under the store root, then
// mirrors every path into it. Directories get a folder named after them;
// plain files land directly in the destination folder.
//
// The returned stats cover the work done, also when err is non-nil.
func (m *Mirror) Run(ctx context.Context, destName string, paths []string) (domain.Stats, error) {
	destID, _, err := m.resolver.FolderID(ctx, destName, remote.RootID, true)
	if err != nil {
		return m.stats, fmt.Errorf("resolve destination %s: %w", destName, err)
	}

	m.reporter.BeginBatch(TopLevelDesc, len(paths))
	defer m.reporter.EndBatch()

	for _, path := range paths {
		entry, err := m.source.Stat(path)
		if err != nil {
			return m.stats, fmt.Errorf("stat %s: %w", path, err)
		}

		if entry.IsDir {
			err = m.MirrorDir(ctx, destID, path)
		} else {
			_, err = m.uploader.Upload(ctx, destID, path)
		}
		if err != nil {
			return m.stats, err
		}
		m.reporter.Advance()
	}

	return m.stats, nil
}

// frame is one directory being mirrored: its resolved remote folder, its
// enumerated children and how far through them the walk is
type frame struct {
	path      string
	canonical string
	folderID  string
	entries   []local.Entry
	next      int
}

// MirrorDir ensures a folder named after dir exists under parentID and
// mirrors dir's content into it, descending into subdirectories.
//
// A subdirectory that resolves to a directory already on the current path
// (a symbolic link cycle) is logged, counted in Stats.SkippedCycles and not
// descended into.
func (m *Mirror) MirrorDir(ctx context.Context, parentID, dir string) error {
	root, err := m.enter(ctx, parentID, dir, "")
	if err != nil {
		return err
	}

	stack := []*frame{root}
	active := map[string]bool{root.canonical: true}
	defer func() {
		// frames still open after a failure
		for range stack {
			m.reporter.EndBatch()
		}
	}()

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.next == len(top.entries) {
			m.reporter.EndBatch()
			m.log.Info("uploaded directory", "path", top.path)
			delete(active, top.canonical)
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				m.reporter.Advance()
			}
			continue
		}

		entry := top.entries[top.next]
		top.next++

		if !entry.IsDir {
			if _, err := m.uploader.Upload(ctx, top.folderID, entry.Path); err != nil {
				return err
			}
			m.reporter.Advance()
			continue
		}

		canonical, err := m.source.Canonical(entry.Path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", entry.Path, err)
		}
		if active[canonical] {
			m.log.Warn("skipping symlink cycle", "path", entry.Path, "target", canonical)
			m.stats.SkippedCycles++
			m.reporter.Advance()
			continue
		}

		child, err := m.enter(ctx, top.folderID, entry.Path, canonical)
		if err != nil {
			return err
		}
		active[canonical] = true
		stack = append(stack, child)
	}

	return nil
}

// enter resolves the remote folder for dir and enumerates its children.
// canonical may be empty, in which case it is computed.
func (m *Mirror) enter(ctx context.Context, parentID, dir, canonical string) (*frame, error) {
	if canonical == "" {
		c, err := m.source.Canonical(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", dir, err)
		}
		canonical = c
	}

	folderID, _, err := m.resolver.FolderID(ctx, local.BaseName(dir), parentID, true)
	if err != nil {
		return nil, fmt.Errorf("mirror %s: %w", dir, err)
	}

	entries, err := m.source.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("mirror %s: %w", dir, err)
	}

	m.reporter.BeginBatch("Uploading "+dir, len(entries))
	return &frame{
		path:      dir,
		canonical: canonical,
		folderID:  folderID,
		entries:   entries,
		next:      0,
	}, nil
}
