package media

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// URLPrefix is the route local files are served from.
const URLPrefix = "uploads"

// Local keeps files on disk under dir. References look like "uploads/<name>".
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	file := objectName(name)
	if err := os.WriteFile(filepath.Join(l.dir, file), data, 0o644); err != nil {
		return "", errors.Wrap(err, "write upload")
	}
	return path.Join(URLPrefix, file), nil
}

func (l *Local) Delete(_ context.Context, ref string) error {
	file := strings.TrimPrefix(ref, URLPrefix+"/")
	if ref == "" || file == ref || strings.Contains(file, "/") || strings.Contains(file, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(l.dir, file))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove upload")
	}
	return nil
}
