package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuchiehee/personalpage-backend/internal/app"
	apperrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

func TestUploadAvatar_Success(t *testing.T) {
	account := testAccount()
	session := testSession(account)

	mock := loggedInMock(account, session)
	mock.uploadAvatarFn = func(_ context.Context, accountID uuid.UUID, upload app.AvatarUpload) (string, error) {
		assert.Equal(t, account.ID, accountID)
		assert.Equal(t, ".png", upload.Ext)
		assert.Equal(t, []byte("png-bytes"), upload.Data)
		return "/uploads/new.png", nil
	}
	srv := newTestServer(t, mock)

	body, contentType := multipartBody(t, nil, "avatar", "me.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/avatar", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(headerCSRFToken, session.CSRFToken)
	rec := httptest.NewRecorder()
	setSessionID(t, srv, req, rec, session.ID)

	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success   bool   `json:"success"`
		AvatarURL string `json:"avatarUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "/uploads/new.png", resp.AvatarURL)
}

func TestUploadAvatar_WithoutSessionIs401(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	body, contentType := multipartBody(t, nil, "avatar", "me.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/avatar", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAvatar_MissingFileIs400(t *testing.T) {
	account := testAccount()
	session := testSession(account)
	srv := newTestServer(t, loggedInMock(account, session))

	body, contentType := multipartBody(t, map[string]string{"unrelated": "field"}, "other", "x.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/avatar", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(headerCSRFToken, session.CSRFToken)
	rec := httptest.NewRecorder()
	setSessionID(t, srv, req, rec, session.ID)

	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadAvatar_StoreOutageIs502(t *testing.T) {
	account := testAccount()
	session := testSession(account)

	mock := loggedInMock(account, session)
	mock.uploadAvatarFn = func(context.Context, uuid.UUID, app.AvatarUpload) (string, error) {
		return "", apperrors.ExternalError("failed to store avatar", context.DeadlineExceeded)
	}
	srv := newTestServer(t, mock)

	body, contentType := multipartBody(t, nil, "avatar", "me.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/avatar", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(headerCSRFToken, session.CSRFToken)
	rec := httptest.NewRecorder()
	setSessionID(t, srv, req, rec, session.ID)

	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUploadAvatar_RejectedExtensionIs415(t *testing.T) {
	account := testAccount()
	session := testSession(account)

	mock := loggedInMock(account, session)
	mock.uploadAvatarFn = func(context.Context, uuid.UUID, app.AvatarUpload) (string, error) {
		return "", apperrors.UnsupportedMediaError("avatar must be a jpg, jpeg or png image")
	}
	srv := newTestServer(t, mock)

	body, contentType := multipartBody(t, nil, "avatar", "evil.exe", []byte("mz"))
	req := httptest.NewRequest(http.MethodPost, "/api/avatar", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(headerCSRFToken, session.CSRFToken)
	rec := httptest.NewRecorder()
	setSessionID(t, srv, req, rec, session.ID)

	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
