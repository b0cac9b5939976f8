// Package memstore is an in-memory remote.Store. It keeps children in
// creation order and allows duplicate names, like Drive does. The uploader
// tests run against it, and `jutil upload --dry-run` uses it to show what a
// run would create without touching the real store.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Ning0612/jutil/internal/domain"
	"github.com/Ning0612/jutil/internal/remote"
)

// Calls counts store operations by kind
type Calls struct {
	List         int
	CreateFolder int
	CreateFile   int
}

type node struct {
	item     remote.Item
	children []string
	content  []byte
}

// Store implements remote.Store in memory
type Store struct {
	mu          sync.Mutex
	nodes       map[string]*node
	nextID      int
	keepContent bool
	calls       Calls

	// FailOn, when set, is consulted before every mutating call; a non-nil
	// result is returned instead of performing the call
	FailOn func(op, name, parentID string) error
}

// Option configures a Store
type Option func(*Store)

// WithContent keeps uploaded bytes so tests can read them back. Without it
// only sizes are recorded.
func WithContent() Option {
	return func(s *Store) { s.keepContent = true }
}

// New creates an empty store holding only the root folder
func New(opts ...Option) *Store {
	s := &Store{nodes: make(map[string]*node)}
	s.nodes[remote.RootID] = &node{item: remote.Item{
		ID:       remote.RootID,
		MimeType: remote.MimeTypeFolder,
	}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListChildren returns the children of parentID in creation order
func (s *Store) ListChildren(ctx context.Context, parentID string) ([]remote.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.List++

	parent, err := s.folder(parentID)
	if err != nil {
		return nil, err
	}

	items := make([]remote.Item, 0, len(parent.children))
	for _, id := range parent.children {
		items = append(items, s.nodes[id].item)
	}
	return items, nil
}

// CreateFolder adds a folder under parentID
func (s *Store) CreateFolder(ctx context.Context, name, parentID string) (remote.Item, error) {
	if err := s.precheck(ctx, "create_folder", name, parentID); err != nil {
		return remote.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.CreateFolder++

	return s.add(name, parentID, remote.MimeTypeFolder, nil, 0)
}

// CreateFile reads r to the end and adds a file under parentID
func (s *Store) CreateFile(ctx context.Context, name, parentID string, r io.Reader) (remote.Item, error) {
	if err := s.precheck(ctx, "create_file", name, parentID); err != nil {
		return remote.Item{}, err
	}

	var buf bytes.Buffer
	var w io.Writer = io.Discard
	if s.keepContent {
		w = &buf
	}
	size, err := io.Copy(w, r)
	if err != nil {
		return remote.Item{}, fmt.Errorf("read content for %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.CreateFile++

	var content []byte
	if s.keepContent {
		content = buf.Bytes()
	}
	return s.add(name, parentID, "application/octet-stream", content, size)
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// AddFolder seeds a folder without counting it as a call; used to set up
// pre-existing remote state in tests
func (s *Store) AddFolder(name, parentID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.add(name, parentID, remote.MimeTypeFolder, nil, 0)
	if err != nil {
		panic(err)
	}
	return item.ID
}

// Calls returns the number of operations performed so far
func (s *Store) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Content returns the bytes stored for a file id (requires WithContent)
func (s *Store) Content(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok || n.item.IsFolder() {
		return nil, false
	}
	return n.content, true
}

// Lookup walks names from root and returns every item matching the final
// name under the first match of each intermediate folder
func (s *Store) Lookup(names ...string) []remote.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := remote.RootID
	for i, name := range names {
		var matches []remote.Item
		for _, id := range s.nodes[current].children {
			if s.nodes[id].item.Name == name {
				matches = append(matches, s.nodes[id].item)
			}
		}
		if i == len(names)-1 || len(matches) == 0 {
			return matches
		}
		current = matches[0].ID
	}
	return nil
}

// Tree renders the store as an indented listing, children sorted by name,
// folders suffixed with "/"
func (s *Store) Tree() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	s.render(&b, remote.RootID, 0)
	return b.String()
}

func (s *Store) render(b *strings.Builder, id string, depth int) {
	children := append([]string(nil), s.nodes[id].children...)
	sort.SliceStable(children, func(i, j int) bool {
		return s.nodes[children[i]].item.Name < s.nodes[children[j]].item.Name
	})
	for _, childID := range children {
		child := s.nodes[childID]
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(child.item.Name)
		if child.item.IsFolder() {
			b.WriteString("/\n")
			s.render(b, childID, depth+1)
			continue
		}
		b.WriteString("\n")
	}
}

func (s *Store) precheck(ctx context.Context, op, name, parentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return domain.ErrInvalidName
	}
	if s.FailOn != nil {
		if err := s.FailOn(op, name, parentID); err != nil {
			return err
		}
	}
	return nil
}

// folder must be called with mu held
func (s *Store) folder(id string) (*node, error) {
	if id == "" {
		id = remote.RootID
	}
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: folder %s", domain.ErrNotFound, id)
	}
	if !n.item.IsFolder() {
		return nil, fmt.Errorf("%w: %s is not a folder", domain.ErrNotDirectory, id)
	}
	return n, nil
}

// add must be called with mu held
func (s *Store) add(name, parentID, mimeType string, content []byte, size int64) (remote.Item, error) {
	parent, err := s.folder(parentID)
	if err != nil {
		return remote.Item{}, err
	}

	s.nextID++
	item := remote.Item{
		ID:       fmt.Sprintf("mem-%d", s.nextID),
		Name:     name,
		MimeType: mimeType,
		Size:     size,
	}
	s.nodes[item.ID] = &node{item: item, content: content}
	parent.children = append(parent.children, item.ID)
	return item, nil
}

var _ remote.Store = (*Store)(nil)
