package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yuchiehee/personalpage-backend/internal/app"
	apperrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

func (s *Server) registerAvatarRoutes() {
	bodyLimit := middleware.BodyLimit(s.config.UploadBodyLimit)
	s.echo.POST("/api/avatar", s.handleUploadAvatar, bodyLimit, s.requireAuth, s.requireCSRF)
}

func (s *Server) handleUploadAvatar(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return apperrors.UnauthorizedError("not logged in")
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return apperrors.ValidationError("avatar file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.ValidationError("could not read avatar file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return apperrors.ValidationError("could not read avatar file")
	}

	url, err := s.app.UploadAvatar(c.Request().Context(), account.ID, app.AvatarUpload{
		Ext:  filepath.Ext(fileHeader.Filename),
		Data: data,
	})
	if err != nil {
		return err
	}

	response := map[string]any{"success": true, "avatarUrl": url}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
