package gdrive

import (
	"errors"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/Ning0612/jutil/internal/domain"
)

// TestMapError tests error mapping from Google API errors to domain errors
func TestMapError(t *testing.T) {
	tests := []struct {
		name  string
		input error
		want  error // nil means the input must come back unchanged
	}{
		{
			name:  "404 not found",
			input: &googleapi.Error{Code: 404},
			want:  domain.ErrNotFound,
		},
		{
			name:  "403 permission denied",
			input: &googleapi.Error{Code: 403},
			want:  domain.ErrPermissionDenied,
		},
		{
			name:  "403 storage quota",
			input: &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "storageQuotaExceeded"}}},
			want:  domain.ErrQuotaExceeded,
		},
		{
			name:  "403 user rate limit",
			input: &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			want:  domain.ErrRateLimited,
		},
		{
			name:  "409 already exists",
			input: &googleapi.Error{Code: 409},
			want:  domain.ErrAlreadyExists,
		},
		{
			name:  "429 rate limit",
			input: &googleapi.Error{Code: 429},
			want:  domain.ErrRateLimited,
		},
		{
			name:  "401 unauthorized",
			input: &googleapi.Error{Code: 401},
			want:  domain.ErrNotAuthenticated,
		},
		{
			name:  "non-googleapi error with notFound string",
			input: errors.New("file notFound in drive"),
			want:  domain.ErrNotFound,
		},
		{
			name:  "500 passthrough",
			input: &googleapi.Error{Code: 500, Message: "server error"},
		},
		{
			name:  "generic passthrough",
			input: errors.New("generic error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.input)

			if tt.want == nil {
				if got != tt.input {
					t.Errorf("mapError() = %v, want original error %v", got, tt.input)
				}
				return
			}

			if !errors.Is(got, tt.want) {
				t.Errorf("mapError() = %v, want %v", got, tt.want)
			}
			// The original error must stay reachable for diagnostics
			if !errors.Is(got, tt.input) {
				t.Errorf("mapError() dropped the original error: %v", got)
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if err := mapError(nil); err != nil {
		t.Errorf("mapError(nil) = %v, want nil", err)
	}
}
