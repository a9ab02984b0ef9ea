package user

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/access"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc     *Service
	checker *access.Checker
}

func NewHandler(svc *Service, checker *access.Checker) *Handler {
	return &Handler{svc: svc, checker: checker}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/users", auth.RequirePermission(h.checker, access.ResourceUsers, access.ActionRead))
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	api.POST("/users", h.Create,
		auth.RequirePermission(h.checker, access.ResourceUsers, access.ActionCreate))
	api.PUT("/users/:id/role", h.ChangeRole,
		auth.RequirePermission(h.checker, access.ResourceUsers, access.ActionUpdate))
	api.DELETE("/users/:id", h.Deactivate,
		auth.RequirePermission(h.checker, access.ResourceUsers, access.ActionDelete))
}

func actorFromContext(c echo.Context) Actor {
	ctx := c.Request().Context()
	return Actor{
		ID:   auth.UserIDFromContext(ctx),
		Role: access.Role(auth.RoleFromContext(ctx)),
		IP:   c.RealIP(),
	}
}

func (h *Handler) Create(c echo.Context) error {
	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.svc.Create(c.Request().Context(), actorFromContext(c), &u)
	switch {
	case errors.Is(err, ErrSuperAdminRequired):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUnknownRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	u, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "user lookup failed")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) List(c echo.Context) error {
	page := pagination.FromContext(c)
	users, total, err := h.svc.List(c.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "user list failed")
	}
	if users == nil {
		users = make([]*User, 0)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, page.Limit, page.Offset))
}

type changeRoleRequest struct {
	Role access.Role `json:"role"`
}

func (h *Handler) ChangeRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.ChangeRole(c.Request().Context(), actorFromContext(c), id, req.Role)
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrSuperAdminRequired), errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUnknownRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "role change failed")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err = h.svc.Deactivate(c.Request().Context(), actorFromContext(c), id)
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrSuperAdminRequired):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "deactivate failed")
	}
	return c.NoContent(http.StatusNoContent)
}
