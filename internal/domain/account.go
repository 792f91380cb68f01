package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AccountRepository interface {
	Create(ctx context.Context, username, passwordHash string) (*Account, error)
	GetByID(ctx context.Context, accountID uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	UpdateAvatarURL(ctx context.Context, accountID uuid.UUID, avatarURL string) error
}
