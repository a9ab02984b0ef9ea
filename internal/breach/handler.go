package breach

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler exposes on-demand breach checks to compliance operators.
type Handler struct {
	detector *Detector
}

// NewHandler creates a breach Handler.
func NewHandler(detector *Detector) *Handler {
	return &Handler{detector: detector}
}

// RegisterRoutes registers the breach-check route behind the supplied guard.
func (h *Handler) RegisterRoutes(api *echo.Group, guard echo.MiddlewareFunc) {
	api.POST("/breach-checks", h.Check, guard)
}

type checkRequest struct {
	ActorID       string `json:"actor_id"`
	ResourceCount *int   `json:"resource_count,omitempty"`
	WindowMinutes int    `json:"window_minutes"`
}

// Check handles POST /breach-checks. With resource_count supplied it
// evaluates the caller's own figures; without it the window is scanned
// from the audit log.
func (h *Handler) Check(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ActorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "actor_id is required")
	}
	if req.WindowMinutes <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "window_minutes must be positive")
	}

	ctx := c.Request().Context()
	window := time.Duration(req.WindowMinutes) * time.Minute

	if req.ResourceCount != nil {
		return c.JSON(http.StatusOK, h.detector.Check(ctx, req.ActorID, *req.ResourceCount, window))
	}

	signal, err := h.detector.Scan(ctx, req.ActorID, window)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "breach scan failed")
	}
	return c.JSON(http.StatusOK, signal)
}
