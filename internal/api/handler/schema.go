package handler

import (
	"bytes"
	"encoding/json"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// fieldErrorsResponse documents the 400 body for input validation failures.
type fieldErrorsResponse map[string][]string

// nullableString tells an omitted field apart from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n nullableString) toPort() ports.OptionalString {
	return ports.OptionalString{Set: n.Set, Value: n.Value}
}

// --- Request types ---

type registerRequest struct {
	Email       string  `json:"email"       validate:"required,email,max=254"`
	Username    string  `json:"username"    validate:"required,max=150,username"`
	Password    string  `json:"password"    validate:"required,max=128"`
	Avatar      *string `json:"avatar"`
	Description *string `json:"description"`
}

type profileUpdateRequest struct {
	Username    *string        `json:"username"`
	Email       *string        `json:"email"`
	Description nullableString `json:"description" swaggertype:"string"`
	Avatar      nullableString `json:"avatar"      swaggertype:"string"`
}

type userUpdateRequest struct {
	Email       *string        `json:"email"       validate:"omitnil,notblank,email,max=254"`
	Username    *string        `json:"username"    validate:"omitnil,notblank,max=150,username"`
	Description nullableString `json:"description" swaggertype:"string"`
	Avatar      nullableString `json:"avatar"      swaggertype:"string"`
}

type tokenObtainRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

type tokenRefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// --- Response types ---

type userResponse struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	Avatar      *string `json:"avatar"`
	Description *string `json:"description"`
}

type adminUserResponse struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	IsSuperuser bool    `json:"is_superuser"`
	Avatar      *string `json:"avatar"`
	Description *string `json:"description"`
}

type tokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type accessResponse struct {
	Access string `json:"access"`
}

// avatarOrNull renders an empty avatar as null.
func avatarOrNull(avatar *string) *string {
	if avatar == nil || *avatar == "" {
		return nil
	}
	return avatar
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Avatar:      u.Avatar,
		Description: u.Description,
	}
}

// toProfileUpdateResponse is the profile-update body, where an empty avatar
// is reported as null.
func toProfileUpdateResponse(u *domain.User) userResponse {
	resp := toUserResponse(u)
	resp.Avatar = avatarOrNull(u.Avatar)
	return resp
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toAdminUserResponse(u *domain.User) adminUserResponse {
	return adminUserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
		Avatar:      u.Avatar,
		Description: u.Description,
	}
}

func toAdminUserResponses(users []*domain.User) []adminUserResponse {
	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toAdminUserResponse(u))
	}
	return out
}
