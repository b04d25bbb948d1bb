// Package policy decides which operations a caller may perform on user
// records. Every function is pure: callers pass the resolved identity and,
// where relevant, the target record.
//
// A nil caller means an anonymous request.
package policy

import "github.com/apicrud/user-api/internal/core/domain"

// Realm identifies which endpoint family a record operation arrives through.
type Realm int

const (
	// RealmUser is the self-service /api/user surface.
	RealmUser Realm = iota
	// RealmAdmin is the superuser-only /api/admin surface.
	RealmAdmin
)

// Scope restricts a user listing.
type Scope struct {
	// ExcludeSuperusers drops every record with is_superuser=true.
	ExcludeSuperusers bool
	// IncludeID, when non-zero, survives ExcludeSuperusers (an admin's own
	// record on the user realm).
	IncludeID int64
	// OnlyID, when non-zero, limits the listing to a single record.
	OnlyID int64
}

// IsAdmin reports whether caller holds admin privilege.
func IsAdmin(caller *domain.User) bool {
	return caller != nil && caller.IsSuperuser
}

// RequireAuthenticated fails with ErrUnauthorized for anonymous callers.
func RequireAuthenticated(caller *domain.User) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	return nil
}

// RequireAdmin fails with ErrUnauthorized for anonymous callers and
// ErrForbidden for authenticated non-admins.
func RequireAdmin(caller *domain.User) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsSuperuser {
		return domain.ErrForbidden
	}
	return nil
}

// ListScope returns the records caller may enumerate in realm.
func ListScope(caller *domain.User, realm Realm) (Scope, error) {
	if realm == RealmAdmin {
		if err := RequireAdmin(caller); err != nil {
			return Scope{}, err
		}
		return Scope{ExcludeSuperusers: true}, nil
	}

	if err := RequireAuthenticated(caller); err != nil {
		return Scope{}, err
	}
	if IsAdmin(caller) {
		return Scope{ExcludeSuperusers: true, IncludeID: caller.ID}, nil
	}
	return Scope{OnlyID: caller.ID}, nil
}

// CheckRecord decides whether caller may read or modify target through realm.
//
// Superuser-owned records are filtered out (ErrUserNotFound) rather than
// rejected, except a caller's own record on the user realm. Non-admins touching
// someone else's record get ErrForbidden.
func CheckRecord(caller, target *domain.User, realm Realm) error {
	if realm == RealmAdmin {
		if err := RequireAdmin(caller); err != nil {
			return err
		}
		if target.IsSuperuser {
			return domain.ErrUserNotFound
		}
		return nil
	}

	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.ID == target.ID {
		return nil
	}
	if !IsAdmin(caller) {
		return domain.ErrForbidden
	}
	if target.IsSuperuser {
		return domain.ErrUserNotFound
	}
	return nil
}

// CanDelete reports whether caller may hard-delete target. Deletion exists
// only on the admin realm.
func CanDelete(caller, target *domain.User) error {
	return CheckRecord(caller, target, RealmAdmin)
}
