package audit

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

// Handler exposes the operator-facing audit trail: search, export,
// summary, and incident reporting. Route guards are applied by the
// caller during registration so the handler stays policy-agnostic.
type Handler struct {
	svc *Service
}

// NewHandler creates a new audit Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the audit trail routes. read is the
// middleware guarding audit-log reads; report guards incident submission.
func (h *Handler) RegisterRoutes(api *echo.Group, read, report echo.MiddlewareFunc) {
	g := api.Group("/audit-logs", read)
	g.GET("", h.Search)
	g.GET("/summary", h.Summarize)
	g.GET("/export/csv", h.ExportCSV)
	g.GET("/export/json", h.ExportJSON)
	g.GET("/:id", h.Get)

	api.POST("/incidents", h.ReportIncident, report)
}

// parseFilter extracts a Filter from query parameters. Unset fields stay
// wildcards.
func parseFilter(c echo.Context) Filter {
	filter := Filter{
		ActorID:      c.QueryParam("actor_id"),
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		PatientID:    c.QueryParam("patient_id"),
	}

	if v := c.QueryParam("success"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Success = &b
		}
	}
	if v := c.QueryParam("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Since = &t
		}
	}
	if v := c.QueryParam("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Until = &t
		}
	}

	return filter
}

// Search handles GET /audit-logs.
func (h *Handler) Search(c echo.Context) error {
	page := pagination.FromContext(c)
	result, err := h.svc.Query(c.Request().Context(), parseFilter(c), page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "audit search failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(result.Entries, result.Total, page.Limit, page.Offset))
}

// Get handles GET /audit-logs/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	entry, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "entry not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "audit lookup failed")
	}
	return c.JSON(http.StatusOK, entry)
}

// Summarize handles GET /audit-logs/summary.
func (h *Handler) Summarize(c echo.Context) error {
	summary, err := h.svc.Summarize(c.Request().Context(), parseFilter(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "audit summary failed")
	}
	return c.JSON(http.StatusOK, summary)
}

// ExportCSV handles GET /audit-logs/export/csv.
func (h *Handler) ExportCSV(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", exportFilename("csv")))
	c.Response().WriteHeader(http.StatusOK)

	return h.svc.ExportCSV(c.Request().Context(), parseFilter(c), c.Response())
}

// ExportJSON handles GET /audit-logs/export/json.
func (h *Handler) ExportJSON(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", exportFilename("json")))
	c.Response().WriteHeader(http.StatusOK)

	return h.svc.ExportJSON(c.Request().Context(), parseFilter(c), c.Response())
}

// ReportIncident handles POST /incidents.
func (h *Handler) ReportIncident(c echo.Context) error {
	var report IncidentReport
	if err := c.Bind(&report); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if report.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}

	ctx := c.Request().Context()
	h.svc.ReportIncident(ctx,
		auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), c.RealIP(), report)

	return c.JSON(http.StatusAccepted, map[string]string{"status": "recorded"})
}

func exportFilename(ext string) string {
	return fmt.Sprintf("audit_export_%s.%s", time.Now().UTC().Format("20060102_150405"), ext)
}
