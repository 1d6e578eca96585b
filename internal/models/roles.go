package models

// Role names recognized by the access-control middleware.
const (
	RoleAdmin     = "ADMIN"
	RoleLibrarian = "LIBRARIAN"
	RoleStudent   = "STUDENT"
)

// ValidRole reports whether role is one of the known role names.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLibrarian, RoleStudent:
		return true
	}
	return false
}

// PrivilegedRole reports whether role may manage books and every borrowing,
// not just its own.
func PrivilegedRole(role string) bool {
	return role == RoleAdmin || role == RoleLibrarian
}
