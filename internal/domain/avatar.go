package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// AvatarStore persists uploaded avatar images and returns the public URL
// where the stored image can be fetched.
type AvatarStore interface {
	Save(ctx context.Context, accountID uuid.UUID, ext string, data []byte) (string, error)
}

// allowedAvatarExts is the upload allow-set. Everything else is rejected
// before touching storage.
var allowedAvatarExts = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeAvatarExt lowercases ext, strips a leading dot, and validates
// it against the allow-set.
func NormalizeAvatarExt(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if _, ok := allowedAvatarExts[ext]; !ok {
		return "", ErrUnsupportedAvatarExt
	}
	return ext, nil
}
