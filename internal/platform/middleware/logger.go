package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

// Logger emits one structured log line per request. The actor fields are
// populated when an authenticated identity is on the request context, so
// access logs can be correlated with audit entries for the same actor.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			res := c.Response()
			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			ctx := req.Context()
			if actorID := auth.UserIDFromContext(ctx); actorID != "" {
				evt = evt.
					Str("actor_id", actorID).
					Str("actor_role", auth.RoleFromContext(ctx))
			}

			evt.Msg("request")
			return err
		}
	}
}
