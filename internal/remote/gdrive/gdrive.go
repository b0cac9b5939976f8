package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Ning0612/jutil/internal/domain"
	"github.com/Ning0612/jutil/internal/remote"
)

const (
	// PageSize is the number of files to fetch per request
	PageSize = 100

	itemFields = "id, name, mimeType, size"
)

// Options configures a Drive store
type Options struct {
	ClientID     string
	ClientSecret string
	TokenPath    string
}

// Store implements remote.Store for Google Drive
type Store struct {
	service *drive.Service
}

// New creates a Drive store authenticated with the token saved by
// Authenticator.Authenticate
func New(ctx context.Context, opts Options) (*Store, error) {
	auth := NewAuthenticator(opts.ClientID, opts.ClientSecret, opts.TokenPath)

	token, err := auth.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	return NewWithClient(ctx, auth.Config().Client(ctx, token))
}

// NewWithClient creates a Drive store on top of an already authenticated
// HTTP client. Extra options are passed to the Drive service (tests point
// option.WithEndpoint at a fake server).
func NewWithClient(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*Store, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Store{service: service}, nil
}

// ListChildren returns all non-trashed children of parentID across pages
func (s *Store) ListChildren(ctx context.Context, parentID string) ([]remote.Item, error) {
	if parentID == "" {
		parentID = remote.RootID
	}

	var result []remote.Item
	pageToken := ""
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryString(parentID))

	for {
		call := s.service.Files.List().
			Q(query).
			PageSize(PageSize).
			Fields("nextPageToken, files(" + itemFields + ")")

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		fileList, err := call.Context(ctx).Do()
		if err != nil {
			return nil, mapError(err)
		}

		for _, f := range fileList.Files {
			result = append(result, itemFromDrive(f))
		}

		pageToken = fileList.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return result, nil
}

// CreateFolder creates a folder under parentID
func (s *Store) CreateFolder(ctx context.Context, name, parentID string) (remote.Item, error) {
	if name == "" {
		return remote.Item{}, domain.ErrInvalidName
	}
	folder := &drive.File{
		Name:     name,
		MimeType: remote.MimeTypeFolder,
		Parents:  []string{parentOrRoot(parentID)},
	}
	created, err := s.service.Files.Create(folder).
		Fields(itemFields).
		Context(ctx).Do()
	if err != nil {
		return remote.Item{}, mapError(err)
	}
	return itemFromDrive(created), nil
}

// CreateFile uploads r as a new file under parentID in a single request
func (s *Store) CreateFile(ctx context.Context, name, parentID string, r io.Reader) (remote.Item, error) {
	if name == "" {
		return remote.Item{}, domain.ErrInvalidName
	}
	file := &drive.File{
		Name:    name,
		Parents: []string{parentOrRoot(parentID)},
	}
	created, err := s.service.Files.Create(file).
		Media(r).
		Fields(itemFields).
		Context(ctx).Do()
	if err != nil {
		return remote.Item{}, mapError(err)
	}
	return itemFromDrive(created), nil
}

// Close releases any resources
func (s *Store) Close() error {
	return nil
}

func parentOrRoot(parentID string) string {
	if parentID == "" {
		return remote.RootID
	}
	return parentID
}

// escapeQueryString escapes special characters in Drive query strings
func escapeQueryString(s string) string {
	// Escape backslash first, then single quote
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	return s
}

func itemFromDrive(f *drive.File) remote.Item {
	return remote.Item{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.Size,
	}
}

// mapError converts Google API errors to domain errors, keeping the
// original error in the chain
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		case http.StatusForbidden:
			for _, item := range apiErr.Errors {
				switch item.Reason {
				case "storageQuotaExceeded", "quotaExceeded":
					return fmt.Errorf("%w: %w", domain.ErrQuotaExceeded, err)
				case "rateLimitExceeded", "userRateLimitExceeded":
					return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
				}
			}
			return fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
		case http.StatusConflict:
			return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
		}
		return err
	}

	// Fallback to string matching for non-googleapi errors
	if strings.Contains(err.Error(), "notFound") {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	return err
}

var _ remote.Store = (*Store)(nil)
