package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/audit"
	"github.com/hms/hms/internal/platform/auth"
)

// Audit returns middleware that appends one audit entry for every access
// attempt under /api/v1, allowed or denied. The entry is handed to the
// recorder after the handler runs so the outcome is captured; a failed
// audit write never fails the request.
//
// The X-Emergency-Access header marks the entry high risk and carries
// the override reason in the details payload.
func Audit(logger zerolog.Logger, recorder *audit.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !isAuditablePath(path) {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			ctx := req.Context()
			entry := &audit.Entry{
				ActorID:      auth.UserIDFromContext(ctx),
				ActorRole:    auth.RoleFromContext(ctx),
				Action:       httpMethodToAction(req.Method),
				ResourceType: extractResourceType(path),
				ResourceID:   c.Param("id"),
				IPAddress:    c.RealIP(),
				UserAgent:    req.UserAgent(),
				Success:      status < http.StatusBadRequest,
			}

			if reason := req.Header.Get("X-Emergency-Access"); reason != "" {
				entry.RiskLevel = audit.RiskHigh
				entry.Details = map[string]any{
					"emergency_access": true,
					"reason":           reason,
				}
			}

			recorder.Record(ctx, entry)

			evt := logger.Info()
			if !entry.Success || entry.RiskLevel == audit.RiskHigh {
				evt = logger.Warn()
			}
			evt.
				Str("type", "access_audit").
				Str("actor_id", entry.ActorID).
				Str("actor_role", entry.ActorRole).
				Str("resource_type", entry.ResourceType).
				Str("action", entry.Action).
				Str("method", req.Method).
				Str("path", path).
				Str("remote_ip", entry.IPAddress).
				Int("status", status).
				Bool("success", entry.Success).
				Msg("resource_access")

			return err
		}
	}
}

// isAuditablePath returns true for routes that touch protected resources.
func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/")
}

// httpMethodToAction maps HTTP methods to audit action codes.
func httpMethodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractResourceType parses the resource type from an API path:
// /api/v1/users/123 -> users.
func extractResourceType(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return "unknown"
}
