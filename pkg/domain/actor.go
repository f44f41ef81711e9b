package domain

import dErrors "caseflow/pkg/domain-errors"

// Role is an authority level granted to an actor by the identity provider.
type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var validRoles = map[Role]bool{
	RoleStaff:   true,
	RoleManager: true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from external input (JWT claims, config).
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// Actor is the authenticated principal performing an operation. Roles come
// from the external identity provider, never from client-supplied request
// bodies.
type Actor struct {
	ID    string
	Roles []Role
}

// HasRole reports whether the actor holds the given role. Admin implies every
// other role.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// RequestType distinguishes statutory request categories (resource consent,
// building consent, social pension, ...). The valid set is configuration, not
// code: jurisdictions add types without a deploy.
type RequestType string

// Council identifies the jurisdiction a request was lodged with. It selects
// the holiday calendar and the assessment template set.
type Council string
