package retention

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler exposes the retention classifier to compliance operators.
type Handler struct {
	now func() time.Time
}

// NewHandler creates a retention Handler using the wall clock.
func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

// RegisterRoutes registers retention routes behind the supplied guard.
func (h *Handler) RegisterRoutes(api *echo.Group, guard echo.MiddlewareFunc) {
	g := api.Group("/retention", guard)
	g.GET("/policies", h.ListPolicies)
	g.GET("/classify", h.Classify)
}

// ListPolicies handles GET /retention/policies.
func (h *Handler) ListPolicies(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"periods_days": PeriodDays(),
		"default_days": DefaultPeriodDays,
	})
}

// Classify handles GET /retention/classify?resource_type=...&created_at=RFC3339.
func (h *Handler) Classify(c echo.Context) error {
	resourceType := c.QueryParam("resource_type")
	if resourceType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "resource_type is required")
	}

	createdAt, err := time.Parse(time.RFC3339, c.QueryParam("created_at"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "created_at must be RFC3339")
	}

	return c.JSON(http.StatusOK, Classify(resourceType, createdAt, h.now().UTC()))
}
