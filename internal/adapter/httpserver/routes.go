package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/metrics"
	"github.com/yuchiehee/personalpage-backend/internal/platform/config"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(ErrorHandlingMiddleware(s.errorMetrics))
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         63072000, // 2 years; only sent over HTTPS
		HSTSPreloadEnabled: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	if len(s.config.CORSAllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     s.config.CORSAllowedOrigins,
			AllowMethods:     []string{echo.GET, echo.POST, echo.DELETE},
			AllowHeaders:     []string{echo.HeaderContentType, headerCSRFToken},
			AllowCredentials: true,
		}))
	}

	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware())
	}

	// Separate stores: a visitor hammering the public oracle endpoint must
	// not burn the login/register bucket for their IP.
	authLimiter := newRateLimiter(s.config.AuthRatePerSecond, s.config.AuthRateBurst)
	oracleLimiter := newRateLimiter(s.config.OracleRatePerSecond, s.config.OracleRateBurst)

	s.registerHealthRoutes()
	s.registerAuthRoutes(authLimiter)
	s.registerCommentRoutes()
	s.registerAvatarRoutes()
	s.registerOracleRoutes(oracleLimiter)

	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	}

	// Locally stored avatars are served straight from disk. The s3 backend
	// serves from the bucket's public URL instead.
	if s.config.AvatarBackend == config.AvatarBackendFilesystem {
		s.echo.Static("/uploads", s.config.AvatarDir)
	}
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
