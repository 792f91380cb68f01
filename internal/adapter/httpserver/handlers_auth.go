package httpserver

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/yuchiehee/personalpage-backend/internal/app"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
	apperrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

func (s *Server) registerAuthRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.POST("/api/register", s.handleRegister, rateLimiter)
	s.echo.POST("/api/login", s.handleLogin, rateLimiter)
	s.echo.POST("/api/logout", s.handleLogout, s.requireAuth, s.requireCSRF)
	s.echo.GET("/api/me", s.handleMe, s.requireAuth)
}

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type accountResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type authResponse struct {
	Success   bool            `json:"success"`
	Account   accountResponse `json:"account"`
	CSRFToken string          `json:"csrfToken"`
}

func toAccountResponse(account *domain.Account) accountResponse {
	return accountResponse{
		ID:        account.ID.String(),
		Username:  account.Username,
		AvatarURL: account.AvatarURL,
	}
}

// readOptionalAvatar pulls the optional avatar file from a multipart
// registration request. JSON registrations have no file and return nil.
func readOptionalAvatar(c echo.Context) (*app.AvatarUpload, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return nil, nil
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		// No avatar part at all is fine
		return nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.ValidationError("could not read avatar file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.ValidationError("could not read avatar file")
	}

	return &app.AvatarUpload{
		Ext:  filepath.Ext(fileHeader.Filename),
		Data: data,
	}, nil
}

func (s *Server) handleRegister(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.ValidationError("username and password are required")
	}

	avatar, err := readOptionalAvatar(c)
	if err != nil {
		return err
	}

	account, session, err := s.app.Register(c.Request().Context(), req.Username, req.Password, avatar)
	if err != nil {
		return err
	}

	if err := s.saveSessionCookie(c, session.ID); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	response := authResponse{Success: true, Account: toAccountResponse(account), CSRFToken: session.CSRFToken}
	if err := c.JSON(http.StatusCreated, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.ValidationError("username and password are required")
	}

	account, session, err := s.app.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	// The fresh session ID replaces whatever the cookie held before, so a
	// pre-login session fixated by an attacker is useless afterwards.
	if err := s.saveSessionCookie(c, session.ID); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	response := authResponse{Success: true, Account: toAccountResponse(account), CSRFToken: session.CSRFToken}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	session, ok := currentSession(c)
	if !ok {
		return apperrors.UnauthorizedError("not logged in")
	}

	if err := s.app.Logout(c.Request().Context(), session.ID); err != nil {
		return apperrors.InternalError("failed to invalidate session", err)
	}

	if err := s.clearSessionCookie(c); err != nil {
		return apperrors.InternalError("failed to expire session cookie", err)
	}

	if account, ok := currentAccount(c); ok {
		slog.Info("Account logged out", "account_id", account.ID)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleMe(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return apperrors.UnauthorizedError("not logged in")
	}

	response := map[string]any{"loggedIn": true, "account": toAccountResponse(account)}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
