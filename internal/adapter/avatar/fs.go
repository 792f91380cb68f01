package avatar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// FSStore writes avatars to a local directory served as static files.
type FSStore struct {
	dir       string
	publicURL string
	clock     clockwork.Clock

	mkdirOnce sync.Once
	mkdirErr  error
}

func NewFSStore(dir, publicURL string, clock clockwork.Clock) *FSStore {
	return &FSStore{
		dir:       dir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		clock:     clock,
	}
}

func (s *FSStore) Save(_ context.Context, accountID uuid.UUID, ext string, data []byte) (string, error) {
	ext, err := NormalizeExtension(ext)
	if err != nil {
		return "", err
	}

	s.mkdirOnce.Do(func() {
		s.mkdirErr = os.MkdirAll(s.dir, 0o755)
	})
	if s.mkdirErr != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", s.mkdirErr)
	}

	name := objectName(accountID, ext, s.clock.Now())
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}

	return s.publicURL + "/" + name, nil
}
