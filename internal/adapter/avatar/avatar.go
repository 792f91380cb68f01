// Package avatar stores uploaded profile images on local disk or S3.
package avatar

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
	"github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

// NormalizeExtension validates ext against the domain allow-set and turns
// a rejection into the 415 error type the HTTP layer expects.
func NormalizeExtension(ext string) (string, error) {
	normalized, err := domain.NormalizeAvatarExt(ext)
	if err != nil {
		return "", errors.UnsupportedMediaError("avatar must be a jpg, jpeg or png image").
			WithField("extension", ext)
	}
	return normalized, nil
}

// objectName builds a unique storage name per upload. The timestamp makes
// re-uploads produce fresh URLs so stale CDN or browser caches never pin
// an old avatar.
func objectName(accountID uuid.UUID, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%d.%s", accountID, now.UnixNano(), ext)
}
