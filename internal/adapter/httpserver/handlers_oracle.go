package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/metrics"
	apperrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

// oracleFallbackReply is shown when the upstream model is unreachable,
// rate-limited or returns garbage. Upstream trouble is never a 5xx here.
const oracleFallbackReply = "The oracle is resting right now. Please try again in a moment."

func (s *Server) registerOracleRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.POST("/api/generate", s.handleGenerate, rateLimiter)
}

type generateRequest struct {
	Prompt string `json:"prompt" form:"prompt"`
}

func (s *Server) handleGenerate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	start := time.Now()
	reply, err := s.app.Generate(c.Request().Context(), req.Prompt)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		slog.Warn("Oracle generation failed, serving fallback", "error", err)
		s.oracleMetrics.ObserveRequest(metrics.OracleOutcomeFallback, elapsed)

		response := map[string]any{"success": false, "result": oracleFallbackReply}
		if err := c.JSON(http.StatusOK, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	s.oracleMetrics.ObserveRequest(metrics.OracleOutcomeSuccess, elapsed)

	response := map[string]any{"success": true, "result": reply}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
