package profiles

import (
	"fmt"
	"time"
)

// Role is a privilege tier. Roles are strictly ordered: user < admin < superadmin.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// rank returns the position of the role in the privilege order.
// Unknown and empty roles rank 0 and never satisfy a role requirement.
func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperadmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r.rank() > 0
}

// AtLeast reports whether r is a known role ranked at or above min
func (r Role) AtLeast(min Role) bool {
	return r.rank() > 0 && r.rank() >= min.rank()
}

// Elevated reports whether the role carries administrative privileges
func (r Role) Elevated() bool {
	return r.AtLeast(RoleAdmin)
}

// ParseRole parses a role name
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// Profile is the persisted record describing one registered subject.
//
// JSON names match the wire format consumed by the dashboard: the handle
// travels as "username" and the subject id as "uid".
type Profile struct {
	ID          string    `json:"uid"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	Handle      string    `json:"username"`
	Role        Role      `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// Clone returns a copy of the profile
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Counts summarizes the profile population
type Counts struct {
	Total  int
	Active int
	ByRole map[Role]int
}
