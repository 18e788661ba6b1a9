package enums

// UserRole scopes what an authenticated user may do.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCustomer, UserRoleAdmin:
		return true
	}
	return false
}

func (r UserRole) String() string {
	return string(r)
}
