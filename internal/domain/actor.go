package domain

// Role enumerates the mutually exclusive roles an account can hold.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleAgent      Role = "AGENT"
	RoleTechnician Role = "TECHNICIAN"
	RoleClient     Role = "USER"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleTechnician, RoleClient:
		return true
	}
	return false
}

// Staff reports whether the role belongs to back-office personnel.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleAgent || r == RoleTechnician
}

// Actor is the resolved identity behind a request. The session layer is
// authoritative for both fields; core operations take the actor explicitly.
type Actor struct {
	ID   string
	Role Role
}
