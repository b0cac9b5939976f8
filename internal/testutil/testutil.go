// Package testutil holds helpers shared by jutil's tests
package testutil

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// WriteTree creates files (path -> content) on fs, making parent
// directories as needed
func WriteTree(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()

	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create test file %s: %v", path, err)
		}
	}
}

// WriteSizedFile creates a file of the given size filled with random bytes
// and returns the content
func WriteSizedFile(t *testing.T, fs afero.Fs, path string, size int64) []byte {
	t.Helper()

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}

	data := make([]byte, size)
	rand.Read(data)
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		t.Fatalf("failed to write test file %s: %v", path, err)
	}
	return data
}

// RandomString generates a random alphanumeric string
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
