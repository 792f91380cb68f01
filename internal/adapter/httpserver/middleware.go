package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/metrics"
	"github.com/yuchiehee/personalpage-backend/internal/auth"
	"github.com/yuchiehee/personalpage-backend/internal/platform/correlation"
	apperrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

// headerCSRFToken is the request header checked by requireCSRF.
const headerCSRFToken = "X-CSRF-Token"

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func ErrorHandlingMiddleware(errorMetrics *metrics.ErrorMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var structuredErr *apperrors.Error
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				structuredErr = WrapHTTPError(httpErr)
				logError(c, structuredErr)
				errorMetrics.ObserveError(string(structuredErr.Type))
				if err := c.JSON(httpErr.Code, structuredErr.ToResponse()); err != nil {
					return fmt.Errorf("failed to write error response: %w", err)
				}
				return nil
			}

			structuredErr = apperrors.AsStructuredError(err)
			logError(c, structuredErr)
			errorMetrics.ObserveError(string(structuredErr.Type))

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if account, ok := currentAccount(c); ok {
		attrs = append(attrs, "account_id", account.ID)
	}

	switch err.Type {
	case apperrors.TypeValidation:
		slog.Info("Validation error", attrs...)
	case apperrors.TypeUnauthorized:
		slog.Info("Unauthorized", attrs...)
	case apperrors.TypeForbidden:
		slog.Warn("Forbidden", attrs...)
	case apperrors.TypeNotFound:
		slog.Info("Not found", attrs...)
	case apperrors.TypeConflict:
		slog.Warn("Conflict", attrs...)
	case apperrors.TypeUnsupportedMedia:
		slog.Info("Unsupported media", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	case apperrors.TypeExternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("External service error", attrs...)
	default:
		slog.Error("Unknown error type", attrs...)
	}
}

// requireAuth resolves the session cookie against the session store and
// loads the account. API clients get a JSON 401, never a redirect.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, ok := s.sessionIDFromCookie(c)
		if !ok {
			return apperrors.UnauthorizedError("not logged in")
		}

		account, session, err := s.app.Identify(c.Request().Context(), sessionID)
		if err != nil {
			return err
		}

		c.Set(contextKeyAccount, account)
		c.Set(contextKeySession, session)
		return next(c)
	}
}

// requireCSRF compares the X-CSRF-Token header against the token bound to
// the session at login. Must run after requireAuth.
func (s *Server) requireCSRF(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, ok := currentSession(c)
		if !ok {
			return apperrors.UnauthorizedError("not logged in")
		}

		token := c.Request().Header.Get(headerCSRFToken)
		if !auth.TokensEqual(session.CSRFToken, token) {
			return apperrors.ForbiddenError("invalid csrf token")
		}

		return next(c)
	}
}

// WrapHTTPError converts an echo.HTTPError (body limit, route binding) to
// the structured taxonomy.
func WrapHTTPError(httpErr *echo.HTTPError) *apperrors.Error {
	message := "internal server error"
	if httpErr.Message != nil {
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}

	var errType apperrors.ErrorType
	switch httpErr.Code {
	case http.StatusBadRequest:
		errType = apperrors.TypeValidation
	case http.StatusUnauthorized:
		errType = apperrors.TypeUnauthorized
	case http.StatusForbidden:
		errType = apperrors.TypeForbidden
	case http.StatusNotFound:
		errType = apperrors.TypeNotFound
	case http.StatusConflict:
		errType = apperrors.TypeConflict
	case http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		errType = apperrors.TypeUnsupportedMedia
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		errType = apperrors.TypeExternal
	default:
		errType = apperrors.TypeInternal
	}

	err := &apperrors.Error{
		Type:    errType,
		Message: message,
		Context: make(map[string]any),
	}

	if httpErr.Internal != nil {
		err.Cause = httpErr.Internal
	}

	return err
}
