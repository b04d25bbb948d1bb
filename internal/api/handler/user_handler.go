package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/apicrud/user-api/internal/api/metrics"
	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/policy"
	"github.com/apicrud/user-api/internal/core/ports"
)

// UserHandler serves registration, profile self-service and the per-record
// user endpoint.
type UserHandler struct {
	users ports.UserService
	log   zerolog.Logger
}

func NewUserHandler(users ports.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  fieldErrorsResponse
// @Router       /api/user [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	// Format errors go to the service so uniqueness is reported alongside them.
	var formatErrs *domain.ValidationError
	if err := c.Validate(&req); err != nil && !errors.As(err, &formatErrs) {
		return err
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		Avatar:      req.Avatar,
		Description: req.Description,
		FieldErrors: formatErrs,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
			h.log.Warn().Interface("errors", ve.Fields).Str("username", req.Username).Msg("registration rejected")
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Profile returns the caller's own record.
//
// @Summary      Read own profile
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/user/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	user, err := h.users.Profile(c.Request().Context(), ctxCaller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateProfile merge-patches the caller's own record.
//
// @Summary      Update own profile
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileUpdateRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/user/profile [post]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req profileUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), ctxCaller(c), ports.ProfileUpdateInput{
		Username:    req.Username,
		Email:       req.Email,
		Description: req.Description.toPort(),
		Avatar:      req.Avatar.toPort(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			metrics.ProfileUpdatesTotal.WithLabelValues("username_taken").Inc()
		case errors.Is(err, domain.ErrEmailTaken):
			metrics.ProfileUpdatesTotal.WithLabelValues("email_taken").Inc()
		}
		return err
	}

	metrics.ProfileUpdatesTotal.WithLabelValues("updated").Inc()
	return c.JSON(http.StatusOK, toProfileUpdateResponse(user))
}

// List returns the records visible to the caller.
//
// @Summary      List users
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        ordering  query     string  false  "date_joined, -date_joined, username, -username, id, -id"
// @Success      200       {array}   userResponse
// @Failure      401       {object}  errorResponse
// @Router       /api/user [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context(), ctxCaller(c), policy.RealmUser, ordering(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Get returns a single record.
//
// @Summary      Get a user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/user/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := getRecord(c, h.users, policy.RealmUser)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Update replaces the editable fields of a record.
//
// @Summary      Replace a user
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      userUpdateRequest  true  "email and username are required"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  fieldErrorsResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/user/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	user, err := updateRecord(c, h.users, policy.RealmUser, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// PartialUpdate changes only the submitted fields of a record.
//
// @Summary      Patch a user
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      userUpdateRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  fieldErrorsResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/user/{id} [patch]
func (h *UserHandler) PartialUpdate(c echo.Context) error {
	user, err := updateRecord(c, h.users, policy.RealmUser, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func getRecord(c echo.Context, users ports.UserService, realm policy.Realm) (*domain.User, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	return users.GetUser(c.Request().Context(), ctxCaller(c), realm, id)
}

func updateRecord(c echo.Context, users ports.UserService, realm policy.Realm, partial bool) (*domain.User, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	var req userUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return nil, err
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	return users.UpdateUser(c.Request().Context(), ctxCaller(c), realm, id, ports.UserUpdateInput{
		Email:       req.Email,
		Username:    req.Username,
		Description: req.Description.toPort(),
		Avatar:      req.Avatar.toPort(),
		Partial:     partial,
	})
}
