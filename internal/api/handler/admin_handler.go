package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/apicrud/user-api/internal/api/metrics"
	"github.com/apicrud/user-api/internal/core/policy"
	"github.com/apicrud/user-api/internal/core/ports"
)

// AdminHandler serves /api/admin. Superuser records never appear here.
type AdminHandler struct {
	users ports.UserService
}

func NewAdminHandler(users ports.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// List returns every non-superuser record.
//
// @Summary      List users (admin)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        ordering  query     string  false  "date_joined, -date_joined, username, -username, id, -id"
// @Success      200       {array}   adminUserResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Router       /api/admin [get]
func (h *AdminHandler) List(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context(), ctxCaller(c), policy.RealmAdmin, ordering(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminUserResponses(users))
}

// Get returns one non-superuser record.
//
// @Summary      Get a user (admin)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  adminUserResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/admin/{id} [get]
func (h *AdminHandler) Get(c echo.Context) error {
	user, err := getRecord(c, h.users, policy.RealmAdmin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminUserResponse(user))
}

// Update replaces the editable fields of a non-superuser record.
//
// @Summary      Replace a user (admin)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      userUpdateRequest  true  "email and username are required"
// @Success      200   {object}  adminUserResponse
// @Failure      400   {object}  fieldErrorsResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/admin/{id} [put]
func (h *AdminHandler) Update(c echo.Context) error {
	user, err := updateRecord(c, h.users, policy.RealmAdmin, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminUserResponse(user))
}

// PartialUpdate changes only the submitted fields of a non-superuser record.
//
// @Summary      Patch a user (admin)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      userUpdateRequest  true  "Fields to change"
// @Success      200   {object}  adminUserResponse
// @Failure      400   {object}  fieldErrorsResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/admin/{id} [patch]
func (h *AdminHandler) PartialUpdate(c echo.Context) error {
	user, err := updateRecord(c, h.users, policy.RealmAdmin, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminUserResponse(user))
}

// Delete removes a non-superuser record.
//
// @Summary      Delete a user (admin)
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  int  true  "User id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/admin/{id} [delete]
func (h *AdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.Request().Context(), ctxCaller(c), id); err != nil {
		return err
	}

	metrics.UsersDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}
