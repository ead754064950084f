package shared

// Role names recognised by the platform.
const (
	RoleAdmin      = "admin"
	RoleDiner      = "diner"
	RoleFranchisee = "franchisee"
)

// Role grants a capability, optionally scoped to a single object
// (franchisee roles carry the franchise id they administer).
type Role struct {
	Role     string `json:"role"`
	ObjectID int64  `json:"objectId,omitempty"`
}
