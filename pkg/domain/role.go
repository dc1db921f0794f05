package domain

import dErrors "h2ledger/pkg/domain-errors"

// Role is a capability an account can hold. Admin roles carry exactly one
// jurisdiction identifier fixed at appointment time.
type Role string

// Supported roles. The four admin roles form the appointment chain
// main -> country -> state -> city; producer, buyer, and auditor are
// participant roles.
const (
	RoleMainAdmin    Role = "main_admin"
	RoleCountryAdmin Role = "country_admin"
	RoleStateAdmin   Role = "state_admin"
	RoleCityAdmin    Role = "city_admin"
	RoleProducer     Role = "producer"
	RoleBuyer        Role = "buyer"
	RoleAuditor      Role = "auditor"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RoleMainAdmin:    true,
	RoleCountryAdmin: true,
	RoleStateAdmin:   true,
	RoleCityAdmin:    true,
	RoleProducer:     true,
	RoleBuyer:        true,
	RoleAuditor:      true,
}

// ParseRole constructs a Role from external input.
//
// Usage: call from handlers/adapters when parsing requests.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsAdmin reports whether the role carries a jurisdiction.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleMainAdmin, RoleCountryAdmin, RoleStateAdmin, RoleCityAdmin:
		return true
	}
	return false
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
