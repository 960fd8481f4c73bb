package domain

import "fmt"

// Role is the caller's authorization role. Only the two values below exist.
type Role int

const (
	RoleAdmin    Role = 1
	RoleCustomer Role = 2
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleCustomer:
		return "customer"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// CanPurchase gates transaction creation. Admins are refused, matching the
// guard of the legacy API this service replaces.
func (r Role) CanPurchase() bool {
	return r != RoleAdmin
}

// CanManageCatalog gates product create/update/delete: customers are refused.
func (r Role) CanManageCatalog() bool {
	return r != RoleCustomer
}

// SeesOwnTransactionsOnly restricts ledger reads to the caller's own rows.
func (r Role) SeesOwnTransactionsOnly() bool {
	return r == RoleCustomer
}

// Caller is the authenticated identity passed explicitly into every service call.
type Caller struct {
	UserID  int64
	Role    Role
	TokenID string
}
