// Package httpserver exposes the JSON API, static avatar files and
// operational endpoints on echo.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/metrics"
	"github.com/yuchiehee/personalpage-backend/internal/app"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
	"github.com/yuchiehee/personalpage-backend/internal/platform/config"
)

type appService interface {
	Register(ctx context.Context, username, password string, avatar *app.AvatarUpload) (*domain.Account, *domain.Session, error)
	Login(ctx context.Context, username, password string) (*domain.Account, *domain.Session, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	Identify(ctx context.Context, sessionID uuid.UUID) (*domain.Account, *domain.Session, error)
	UploadAvatar(ctx context.Context, accountID uuid.UUID, upload app.AvatarUpload) (string, error)
	CreateComment(ctx context.Context, accountID uuid.UUID, body string) (*domain.Comment, error)
	ListComments(ctx context.Context) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, accountID uuid.UUID, commentID int64) error
	Generate(ctx context.Context, prompt string) (string, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService

	sessionStore  *sessions.CookieStore
	registry      *prometheus.Registry
	httpMetrics   *metrics.HTTPMetrics
	oracleMetrics *metrics.OracleMetrics
	errorMetrics  *metrics.ErrorMetrics
	healthChecks  []HealthCheck
	startTime     time.Time
}

func NewServer(cfg *config.Config, app appService, registry *prometheus.Registry, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		sessionStore: setupSessionStore(cfg),
		registry:     registry,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	if registry != nil {
		srv.httpMetrics = metrics.NewHTTPMetrics(registry)
		srv.oracleMetrics = metrics.NewOracleMetrics(registry)
		srv.errorMetrics = metrics.NewErrorMetrics(registry)
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName         = "personalpage-session"
	sessionKeySessionID = "session_id"
)

// Context keys set by requireAuth.
const (
	contextKeyAccount = "account"
	contextKeySession = "session"
)

// setupSessionStore builds the cookie store. The cookie only carries the
// opaque server-side session ID, never account data.
func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}

// saveSessionCookie binds the server-side session ID to the cookie.
func (s *Server) saveSessionCookie(c echo.Context, sessionID uuid.UUID) error {
	// New still returns a usable session when the inbound cookie fails to
	// decode, so a garbage cookie just gets replaced.
	cookie, err := s.sessionStore.New(c.Request(), sessionName)
	if err != nil {
		slog.Debug("Replacing undecodable session cookie", "error", err)
	}
	cookie.Values[sessionKeySessionID] = sessionID.String()
	if err := cookie.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

// clearSessionCookie expires the cookie in the browser.
func (s *Server) clearSessionCookie(c echo.Context) error {
	cookie, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Debug("Expiring undecodable session cookie", "error", err)
	}
	cookie.Options.MaxAge = -1
	if err := cookie.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("failed to expire session cookie: %w", err)
	}
	return nil
}

// sessionIDFromCookie extracts the session ID, if any, from the request cookie.
func (s *Server) sessionIDFromCookie(c echo.Context) (uuid.UUID, bool) {
	cookie, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := cookie.Values[sessionKeySessionID].(string)
	if !ok {
		return uuid.Nil, false
	}
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return sessionID, true
}

func currentAccount(c echo.Context) (*domain.Account, bool) {
	account, ok := c.Get(contextKeyAccount).(*domain.Account)
	return account, ok
}

func currentSession(c echo.Context) (*domain.Session, bool) {
	session, ok := c.Get(contextKeySession).(*domain.Session)
	return session, ok
}
