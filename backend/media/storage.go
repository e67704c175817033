// Package media stores uploaded course images and lecture videos.
package media

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Storage saves uploaded files and returns the reference kept on the model.
type Storage interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	// Delete removes a stored file. Unknown references are ignored.
	Delete(ctx context.Context, ref string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectName builds a collision-free file name keeping the original extension.
func objectName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "-")
	if base == "" || base == "." || base == "-" {
		base = "file"
	}
	return uuid.NewString() + "-" + base
}
