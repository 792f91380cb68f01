package httpserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/yuchiehee/personalpage-backend/internal/app"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
	"github.com/yuchiehee/personalpage-backend/internal/platform/config"
	apperrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

// --- Mock implementations ---

type mockAppService struct {
	registerFn      func(ctx context.Context, username, password string, avatar *app.AvatarUpload) (*domain.Account, *domain.Session, error)
	loginFn         func(ctx context.Context, username, password string) (*domain.Account, *domain.Session, error)
	logoutFn        func(ctx context.Context, sessionID uuid.UUID) error
	identifyFn      func(ctx context.Context, sessionID uuid.UUID) (*domain.Account, *domain.Session, error)
	uploadAvatarFn  func(ctx context.Context, accountID uuid.UUID, upload app.AvatarUpload) (string, error)
	createCommentFn func(ctx context.Context, accountID uuid.UUID, body string) (*domain.Comment, error)
	listCommentsFn  func(ctx context.Context) ([]domain.Comment, error)
	deleteCommentFn func(ctx context.Context, accountID uuid.UUID, commentID int64) error
	generateFn      func(ctx context.Context, prompt string) (string, error)
}

func (m *mockAppService) Register(ctx context.Context, username, password string, avatar *app.AvatarUpload) (*domain.Account, *domain.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, password, avatar)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *mockAppService) Login(ctx context.Context, username, password string) (*domain.Account, *domain.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *mockAppService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAppService) Identify(ctx context.Context, sessionID uuid.UUID) (*domain.Account, *domain.Session, error) {
	if m.identifyFn != nil {
		return m.identifyFn(ctx, sessionID)
	}
	return nil, nil, apperrors.UnauthorizedError("not logged in")
}

func (m *mockAppService) UploadAvatar(ctx context.Context, accountID uuid.UUID, upload app.AvatarUpload) (string, error) {
	if m.uploadAvatarFn != nil {
		return m.uploadAvatarFn(ctx, accountID, upload)
	}
	return "", errors.New("not implemented")
}

func (m *mockAppService) CreateComment(ctx context.Context, accountID uuid.UUID, body string) (*domain.Comment, error) {
	if m.createCommentFn != nil {
		return m.createCommentFn(ctx, accountID, body)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListComments(ctx context.Context) ([]domain.Comment, error) {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx)
	}
	return []domain.Comment{}, nil
}

func (m *mockAppService) DeleteComment(ctx context.Context, accountID uuid.UUID, commentID int64) error {
	if m.deleteCommentFn != nil {
		return m.deleteCommentFn(ctx, accountID, commentID)
	}
	return nil
}

func (m *mockAppService) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "", errors.New("not implemented")
}

// --- Test helpers ---

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:            "test",
		Port:              "8080",
		SessionSecret:     "test-secret-key-32-bytes-long!!!",
		SessionMaxAge:     time.Hour,
		AvatarBackend:     config.AvatarBackendFilesystem,
		AvatarDir:         t.TempDir(),
		UploadBodyLimit:   "4M",
		AuthRatePerSecond:   1000,
		AuthRateBurst:       1000,
		OracleRatePerSecond: 1000,
		OracleRateBurst:     1000,
	}
}

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	cfg := testConfig(t)

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
	}

	srv := &Server{
		echo:         echo.New(),
		config:       cfg,
		app:          app,
		sessionStore: store,
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware(nil)(handler)(c)
}

// setSessionID stores a session ID in the request's cookie session, the
// way a logged-in browser would present it.
func setSessionID(t *testing.T, srv *Server, req *http.Request, rec *httptest.ResponseRecorder, sessionID uuid.UUID) {
	t.Helper()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeySessionID] = sessionID.String()
	require.NoError(t, session.Save(req, rec))
}

// loggedInMock wires Identify to succeed for the given account and session.
func loggedInMock(account *domain.Account, session *domain.Session) *mockAppService {
	return &mockAppService{
		identifyFn: func(_ context.Context, sessionID uuid.UUID) (*domain.Account, *domain.Session, error) {
			if sessionID != session.ID {
				return nil, nil, apperrors.UnauthorizedError("not logged in")
			}
			return account, session, nil
		},
	}
}

// multipartBody builds a multipart form with the given fields and one file.
func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileData []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = part.Write(fileData)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func testAccount() *domain.Account {
	return &domain.Account{ID: uuid.New(), Username: "alice", AvatarURL: "/uploads/alice.png"}
}

func testSession(account *domain.Account) *domain.Session {
	return &domain.Session{ID: uuid.New(), AccountID: account.ID, CSRFToken: "csrf-token-for-tests"}
}
