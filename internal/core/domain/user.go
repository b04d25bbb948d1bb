package domain

import (
	"strings"
	"time"
)

// User is the single persisted entity: an account that can log in with its
// email and manage its own profile.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Description  *string   `json:"description"`
	Avatar       *string   `json:"avatar"`
	IsSuperuser  bool      `json:"is_superuser"`
	DateJoined   time.Time `json:"date_joined"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an address so that uniqueness is
// enforced case-insensitively by every store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserOrder is the ordering applied when listing users.
type UserOrder string

const (
	OrderDateJoinedDesc UserOrder = "-date_joined"
	OrderDateJoinedAsc  UserOrder = "date_joined"
	OrderUsernameAsc    UserOrder = "username"
	OrderUsernameDesc   UserOrder = "-username"
	OrderIDAsc          UserOrder = "id"
	OrderIDDesc         UserOrder = "-id"
)

// DefaultUserOrder matches the historical listing order: newest accounts first.
const DefaultUserOrder = OrderDateJoinedDesc

// ParseUserOrder maps an ?ordering= value to a UserOrder. Empty input yields
// DefaultUserOrder; unknown values report ok=false.
func ParseUserOrder(s string) (UserOrder, bool) {
	if s == "" {
		return DefaultUserOrder, true
	}
	switch o := UserOrder(s); o {
	case OrderDateJoinedDesc, OrderDateJoinedAsc,
		OrderUsernameAsc, OrderUsernameDesc,
		OrderIDAsc, OrderIDDesc:
		return o, true
	}
	return "", false
}

// Field returns the column/attribute name and whether the order is descending.
func (o UserOrder) Field() (field string, desc bool) {
	s := string(o)
	if strings.HasPrefix(s, "-") {
		return s[1:], true
	}
	return s, false
}
