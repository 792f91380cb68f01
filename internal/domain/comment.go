package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Comment carries the author's current username and avatar joined in at
// read time, so renames and avatar changes show up on old comments.
type Comment struct {
	ID              int64
	AccountID       uuid.UUID
	AuthorUsername  string
	AuthorAvatarURL string
	Body            string
	CreatedAt       time.Time
}

type CommentRepository interface {
	Create(ctx context.Context, accountID uuid.UUID, body string) (*Comment, error)
	ListNewestFirst(ctx context.Context, limit int) ([]Comment, error)
	GetByID(ctx context.Context, commentID int64) (*Comment, error)
	Delete(ctx context.Context, commentID int64) error
}
