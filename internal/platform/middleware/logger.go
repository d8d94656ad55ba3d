package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careportal/careportal/internal/platform/auth"
)

// Logger emits one line per request. Session identity is included when
// the request carried a valid token, so a patient's booking or payment
// trail can be followed through the log.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			ctx := req.Context()
			if uid := auth.UserIDFromContext(ctx); uid != uuid.Nil {
				evt.Str("user_id", uid.String()).Str("role", auth.RoleFromContext(ctx))
			}

			evt.Msg("request")
			return err
		}
	}
}
