package remote

import (
	"context"
	"io"
)

const (
	// RootID is the sentinel id of the store's top-level folder
	RootID = "root"
	// MimeTypeFolder marks an item as a folder
	MimeTypeFolder = "application/vnd.google-apps.folder"
)

// Item is a file or folder as reported by the store
type Item struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

// IsFolder returns true if the item carries the folder type marker
func (i Item) IsFolder() bool {
	return i.MimeType == MimeTypeFolder
}

// Store defines the capabilities the uploader needs from a hierarchical
// remote store. Items are addressed by opaque ids; names are not unique.
// Implementations return domain-level errors for consistent handling.
type Store interface {
	// ListChildren returns every non-trashed immediate child of parentID,
	// in the order the store reports them
	// Returns domain.ErrNotFound if parentID doesn't exist
	ListChildren(ctx context.Context, parentID string) ([]Item, error)

	// CreateFolder creates a folder named name under parentID
	// It never reuses an existing folder; callers look up first
	CreateFolder(ctx context.Context, name, parentID string) (Item, error)

	// CreateFile creates a new file under parentID with the content of r
	// Existing files with the same name are left alone
	CreateFile(ctx context.Context, name, parentID string, r io.Reader) (Item, error)

	// Close releases any resources held by the store
	Close() error
}
