// Package authz evaluates declarative per-route authorization policies.
//
// Each route declares the capability it requires as a Policy value; one
// middleware evaluates them uniformly against the identity the
// authentication layer resolved into the request context.
package authz

// policyKind tags the policy variants.
type policyKind int

const (
	kindRole policyKind = iota
	kindSelfOrAdmin
	kindFranchiseAdmin
)

// Policy describes the capability a route requires and the message
// returned when the caller lacks it.
type Policy struct {
	kind    policyKind
	role    string
	param   string
	message string
}

// RequireRole admits callers holding the named global role.
func RequireRole(role, message string) Policy {
	return Policy{kind: kindRole, role: role, message: message}
}

// SelfOrAdmin admits the user whose id matches the named URL parameter,
// or any global admin.
func SelfOrAdmin(param, message string) Policy {
	return Policy{kind: kindSelfOrAdmin, param: param, message: message}
}

// FranchiseAdmin admits global admins and users listed as admin of the
// franchise resolved from the named URL parameter. A franchise id that
// does not resolve denies with the policy message; existence is never
// leaked through a 404.
func FranchiseAdmin(param, message string) Policy {
	return Policy{kind: kindFranchiseAdmin, param: param, message: message}
}
