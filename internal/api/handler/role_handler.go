package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scmportal/accounts-api/internal/api/metrics"
	"github.com/scmportal/accounts-api/internal/core/ports"
)

// RoleHandler serves the role management endpoints.
type RoleHandler struct {
	service ports.RoleService
}

func NewRoleHandler(service ports.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

// List handles GET /api/roles/.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   roleResponse
// @Failure      403  {object}  errorResponse
// @Router       /roles/ [get]
func (h *RoleHandler) List(c echo.Context) error {
	actor, err := principalFrom(c)
	if err != nil {
		return err
	}
	roles, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponses(roles))
}

// Get handles GET /api/roles/:id/.
//
// @Summary      Retrieve a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  roleResponse
// @Failure      404  {object}  errorResponse
// @Router       /roles/{id}/ [get]
func (h *RoleHandler) Get(c echo.Context) error {
	actor, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	r, err := h.service.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(r))
}

// Create handles POST /api/roles/.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRoleRequest  true  "Role details"
// @Success      201   {object}  roleResponse
// @Failure      400   {object}  errorResponse
// @Router       /roles/ [post]
func (h *RoleHandler) Create(c echo.Context) error {
	actor, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	r, err := h.service.Create(c.Request().Context(), actor, toCreateRoleInput(req))
	if err != nil {
		return err
	}
	metrics.RoleMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, toRoleResponse(r))
}

// Update handles PATCH /api/roles/:id/.
//
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Role ID"
// @Param        body  body      updateRoleRequest  true  "Fields to change"
// @Success      200   {object}  roleResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /roles/{id}/ [patch]
func (h *RoleHandler) Update(c echo.Context) error {
	actor, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	r, err := h.service.Update(c.Request().Context(), actor, id, toUpdateRoleInput(req))
	if err != nil {
		return err
	}
	metrics.RoleMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, toRoleResponse(r))
}

// Delete handles DELETE /api/roles/:id/. A role still assigned to users is
// kept and the request fails with 409.
//
// @Summary      Delete a role
// @Tags         roles
// @Security     BearerAuth
// @Param        id   path  int  true  "Role ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /roles/{id}/ [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	actor, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	metrics.RoleMutationsTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}
