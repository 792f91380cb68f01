package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// csrfTestRequest posts a comment with the given CSRF header value.
func csrfTestRequest(t *testing.T, srv *Server, sessionCookie bool, token string) int {
	t.Helper()

	account := testAccount()
	session := testSession(account)
	srv.app = loggedInMock(account, session)

	req := jsonRequest(http.MethodPost, "/api/comments", `{"content":"hi"}`)
	if token != "" {
		req.Header.Set(headerCSRFToken, token)
	}
	rec := httptest.NewRecorder()
	if sessionCookie {
		setSessionID(t, srv, req, rec, session.ID)
	}

	srv.echo.ServeHTTP(rec, req)
	return rec.Code
}

func TestCSRF_MutatingRouteRejectsMissingToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	assert.Equal(t, http.StatusForbidden, csrfTestRequest(t, srv, true, ""))
}

func TestCSRF_MutatingRouteRejectsWrongToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	assert.Equal(t, http.StatusForbidden, csrfTestRequest(t, srv, true, "wrong-token"))
}

func TestCSRF_AuthRunsBeforeTokenCheck(t *testing.T) {
	// Without a session the request is a 401, even with a token present
	srv := newTestServer(t, &mockAppService{})
	assert.Equal(t, http.StatusUnauthorized, csrfTestRequest(t, srv, false, "some-token"))
}

func TestCSRF_LogoutProtected(t *testing.T) {
	account := testAccount()
	session := testSession(account)
	srv := newTestServer(t, loggedInMock(account, session))

	req := jsonRequest(http.MethodPost, "/api/logout", ``)
	rec := httptest.NewRecorder()
	setSessionID(t, srv, req, rec, session.ID)

	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_AvatarUploadProtected(t *testing.T) {
	account := testAccount()
	session := testSession(account)
	srv := newTestServer(t, loggedInMock(account, session))

	body, contentType := multipartBody(t, nil, "avatar", "me.png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/avatar", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(headerCSRFToken, "stale-token")
	rec := httptest.NewRecorder()
	setSessionID(t, srv, req, rec, session.ID)

	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
