package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
	apperrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

func (s *Server) registerCommentRoutes() {
	s.echo.GET("/api/comments", s.handleListComments)
	s.echo.POST("/api/comments", s.handleCreateComment, s.requireAuth, s.requireCSRF)
	s.echo.DELETE("/api/comments/:id", s.handleDeleteComment, s.requireAuth, s.requireCSRF)
}

type createCommentRequest struct {
	Content string `json:"content" form:"content"`
}

type commentResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func toCommentResponse(comment *domain.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		Username:  comment.AuthorUsername,
		AvatarURL: comment.AuthorAvatarURL,
		Content:   comment.Body,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListComments(c echo.Context) error {
	comments, err := s.app.ListComments(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to load comments", err)
	}

	list := make([]commentResponse, 0, len(comments))
	for i := range comments {
		list = append(list, toCommentResponse(&comments[i]))
	}

	response := map[string]any{"success": true, "comments": list}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateComment(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return apperrors.UnauthorizedError("not logged in")
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	comment, err := s.app.CreateComment(c.Request().Context(), account.ID, req.Content)
	if err != nil {
		return err
	}

	response := map[string]any{"success": true, "comment": toCommentResponse(comment)}
	if err := c.JSON(http.StatusCreated, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteComment(c echo.Context) error {
	account, ok := currentAccount(c)
	if !ok {
		return apperrors.UnauthorizedError("not logged in")
	}

	idParam := c.Param("id")
	commentID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid comment id").WithField("id", idParam)
	}

	if err := s.app.DeleteComment(c.Request().Context(), account.ID, commentID); err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]any{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
