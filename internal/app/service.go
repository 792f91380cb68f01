// Package app is the application layer. It orchestrates all use cases and
// is the only component that references multiple domain components.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yuchiehee/personalpage-backend/internal/auth"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
	platformerrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
	maxCommentLength  = 2000
	commentFeedLimit  = 100
)

// AvatarUpload is an optional image attached to registration or the
// avatar endpoint.
type AvatarUpload struct {
	Ext  string
	Data []byte
}

// Service wires repositories, the session store, avatar storage and the
// oracle into use cases.
type Service struct {
	accounts   domain.AccountRepository
	comments   domain.CommentRepository
	sessions   domain.SessionStore
	avatars    domain.AvatarStore
	oracle     domain.Oracle
	sessionTTL time.Duration
}

func NewService(
	accounts domain.AccountRepository,
	comments domain.CommentRepository,
	sessions domain.SessionStore,
	avatars domain.AvatarStore,
	oracle domain.Oracle,
	sessionTTL time.Duration,
) *Service {
	return &Service{
		accounts:   accounts,
		comments:   comments,
		sessions:   sessions,
		avatars:    avatars,
		oracle:     oracle,
		sessionTTL: sessionTTL,
	}
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return platformerrors.ValidationError("username must be between 3 and 32 characters")
	}
	for _, r := range username {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !isDigit && r != '_' && r != '-' {
			return platformerrors.ValidationError("username may only contain letters, digits, underscores and hyphens")
		}
	}
	return nil
}

// Register creates an account, optionally stores an initial avatar, and
// starts a session so the caller is logged in right away.
func (s *Service) Register(ctx context.Context, username, password string, avatar *AvatarUpload) (*domain.Account, *domain.Session, error) {
	if err := validateUsername(username); err != nil {
		return nil, nil, err
	}
	if len(password) < minPasswordLength {
		return nil, nil, platformerrors.ValidationError("password must be at least 8 characters")
	}

	// Reject a bad avatar before the account row exists, otherwise a failed
	// registration would still consume the username.
	if avatar != nil {
		ext, err := domain.NormalizeAvatarExt(avatar.Ext)
		if err != nil {
			return nil, nil, platformerrors.UnsupportedMediaError("avatar must be a jpg, jpeg or png image").
				WithField("extension", avatar.Ext)
		}
		avatar.Ext = ext
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	account, err := s.accounts.Create(ctx, username, hash)
	if errors.Is(err, domain.ErrUsernameTaken) {
		return nil, nil, platformerrors.ConflictError("username already taken").WithField("username", username)
	}
	if err != nil {
		return nil, nil, err
	}

	if avatar != nil {
		url, err := s.avatars.Save(ctx, account.ID, avatar.Ext, avatar.Data)
		if err != nil {
			return nil, nil, err
		}
		if err := s.accounts.UpdateAvatarURL(ctx, account.ID, url); err != nil {
			return nil, nil, err
		}
		account.AvatarURL = url
	}

	session, err := s.startSession(ctx, account.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Account registered", "account_id", account.ID, "username", account.Username)
	return account, session, nil
}

// Login verifies credentials and starts a fresh session with a fresh CSRF
// token. Unknown usernames and wrong passwords are indistinguishable to
// the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.Account, *domain.Session, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil, platformerrors.UnauthorizedError("invalid username or password")
	}
	if err != nil {
		return nil, nil, err
	}

	if !auth.VerifyPassword(account.PasswordHash, password) {
		return nil, nil, platformerrors.UnauthorizedError("invalid username or password")
	}

	session, err := s.startSession(ctx, account.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Account logged in", "account_id", account.ID)
	return account, session, nil
}

func (s *Service) startSession(ctx context.Context, accountID uuid.UUID) (*domain.Session, error) {
	csrfToken, err := auth.NewCSRFToken()
	if err != nil {
		return nil, err
	}
	return s.sessions.Create(ctx, accountID, csrfToken, s.sessionTTL)
}

// Logout invalidates the server-side session. Unknown sessions are a no-op.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Identify resolves a session ID to its session and account.
func (s *Service) Identify(ctx context.Context, sessionID uuid.UUID) (*domain.Account, *domain.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil, platformerrors.UnauthorizedError("not logged in")
	}
	if err != nil {
		return nil, nil, err
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// Session outlived its account, treat as logged out
		return nil, nil, platformerrors.UnauthorizedError("not logged in")
	}
	if err != nil {
		return nil, nil, err
	}

	return account, session, nil
}

// UploadAvatar stores a new avatar image and points the account at it.
func (s *Service) UploadAvatar(ctx context.Context, accountID uuid.UUID, upload AvatarUpload) (string, error) {
	if len(upload.Data) == 0 {
		return "", platformerrors.ValidationError("avatar file is empty")
	}

	url, err := s.avatars.Save(ctx, accountID, upload.Ext, upload.Data)
	if err != nil {
		return "", err
	}

	if err := s.accounts.UpdateAvatarURL(ctx, accountID, url); err != nil {
		return "", err
	}

	slog.Info("Avatar updated", "account_id", accountID, "url", url)
	return url, nil
}

// CreateComment appends a comment to the feed.
func (s *Service) CreateComment(ctx context.Context, accountID uuid.UUID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, platformerrors.ValidationError("comment text is required")
	}
	if utf8.RuneCountInString(body) > maxCommentLength {
		return nil, platformerrors.ValidationError("comment text is too long")
	}

	return s.comments.Create(ctx, accountID, body)
}

// ListComments returns the newest comments first.
func (s *Service) ListComments(ctx context.Context) ([]domain.Comment, error) {
	return s.comments.ListNewestFirst(ctx, commentFeedLimit)
}

// DeleteComment removes a comment owned by accountID. Missing comments and
// foreign comments are reported as distinct errors.
func (s *Service) DeleteComment(ctx context.Context, accountID uuid.UUID, commentID int64) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if errors.Is(err, domain.ErrCommentNotFound) {
		return platformerrors.NotFoundError("comment not found").WithField("comment_id", commentID)
	}
	if err != nil {
		return err
	}

	if comment.AccountID != accountID {
		return platformerrors.ForbiddenError("comment belongs to another account").WithField("comment_id", commentID)
	}

	return s.comments.Delete(ctx, commentID)
}

// Generate forwards a visitor prompt to the oracle.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	return s.oracle.Generate(ctx, prompt)
}
