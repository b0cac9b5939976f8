package mirror

import (
	"context"
	"fmt"

	"github.com/Ning0612/jutil/internal/domain"
	"github.com/Ning0612/jutil/internal/logger"
	"github.com/Ning0612/jutil/internal/remote"
)

// Resolver maps (folder name, parent id) pairs to remote folder ids.
//
// Lookups are not cached: every call lists the parent again, so a run costs
// one listing per visited directory plus one create per missing folder.
// Sibling order is whatever the store returns, so when several children
// share the name the first listed wins and the choice is not stable across
// stores.
type Resolver struct {
	store remote.Store
	log   logger.Logger
	stats *domain.Stats
}

// NewResolver creates a resolver over store
func NewResolver(store remote.Store, log logger.Logger) *Resolver {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Resolver{store: store, log: log}
}

// FolderID returns the id of the first child of parentID named name. An
// empty parentID means the store root.
//
// When no child matches and create is set, a folder is created and its id
// returned. When create is not set, ok is false and id is empty; this is
// not an error.
func (r *Resolver) FolderID(ctx context.Context, name, parentID string, create bool) (id string, ok bool, err error) {
	if name == "" {
		return "", false, domain.ErrInvalidName
	}
	if parentID == "" {
		parentID = remote.RootID
	}

	children, err := r.store.ListChildren(ctx, parentID)
	if err != nil {
		return "", false, fmt.Errorf("list %s: %w", parentID, err)
	}

	for _, child := range children {
		if child.Name == name {
			if r.stats != nil {
				r.stats.FoldersReused++
			}
			return child.ID, true, nil
		}
	}

	if !create {
		r.log.Warn("folder not found", "name", name, "parent", parentID)
		return "", false, nil
	}

	r.log.Info("creating folder", "name", name, "parent", parentID)
	folder, err := r.store.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", false, fmt.Errorf("create folder %s: %w", name, err)
	}
	if r.stats != nil {
		r.stats.FoldersCreated++
	}
	return folder.ID, true, nil
}
