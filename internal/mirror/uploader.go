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

// Uploader pushes single local files into a remote folder
type Uploader struct {
	store    remote.Store
	source   *local.Source
	reporter progress.Reporter
	log      logger.Logger
	stats    *domain.Stats
}

// NewUploader creates an uploader reading from source
func NewUploader(store remote.Store, source *local.Source, reporter progress.Reporter, log logger.Logger) *Uploader {
	if reporter == nil {
		reporter = progress.NullReporter{}
	}
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Uploader{store: store, source: source, reporter: reporter, log: log}
}

// Upload creates a new remote file named after path's base name under
// parentID and streams the file's content into it in one request.
//
// Existing remote files with the same name are not looked up: uploading the
// same file twice leaves two copies. The caller must pass a regular file.
func (u *Uploader) Upload(ctx context.Context, parentID, path string) (remote.Item, error) {
	entry, err := u.source.Stat(path)
	if err != nil {
		return remote.Item{}, fmt.Errorf("upload %s: %w", path, err)
	}

	f, err := u.source.Open(path)
	if err != nil {
		return remote.Item{}, fmt.Errorf("upload %s: %w", path, err)
	}
	defer f.Close()

	u.reporter.Start(path, entry.Size)
	pr := progress.NewProgressReader(f, u.reporter)

	item, err := u.store.CreateFile(ctx, entry.Name, parentID, pr)
	if err != nil {
		u.reporter.Error(err)
		return remote.Item{}, fmt.Errorf("upload %s: %w", path, err)
	}
	u.reporter.Complete()

	if u.stats != nil {
		u.stats.FilesUploaded++
		u.stats.BytesUploaded += pr.Transferred()
	}
	u.log.Info("uploaded", "path", path, "size", progress.FormatBytes(pr.Transferred()), "id", item.ID)
	return item, nil
}
