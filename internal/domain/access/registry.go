package access

import (
	"fmt"

	"github.com/approvenow/server/internal/model"
)

// UnknownRolePolicy decides what a stored role outside the enumeration grants.
type UnknownRolePolicy string

const (
	// PolicyViewer treats unknown roles as viewer (fail-open).
	PolicyViewer UnknownRolePolicy = "viewer"
	// PolicyDeny grants nothing to unknown roles (fail-closed).
	PolicyDeny UnknownRolePolicy = "deny"
)

// ParsePolicy parses a policy name from configuration.
func ParsePolicy(s string) (UnknownRolePolicy, error) {
	switch UnknownRolePolicy(s) {
	case PolicyViewer, PolicyDeny:
		return UnknownRolePolicy(s), nil
	case "":
		return PolicyViewer, nil
	default:
		return "", fmt.Errorf("unknown role policy %q", s)
	}
}

// Registry maps roles to capabilities under an unknown-role policy.
type Registry struct {
	policy UnknownRolePolicy
}

// NewRegistry creates a registry. An empty policy means PolicyViewer.
func NewRegistry(policy UnknownRolePolicy) *Registry {
	if policy == "" {
		policy = PolicyViewer
	}
	return &Registry{policy: policy}
}

// Policy returns the configured unknown-role policy.
func (r *Registry) Policy() UnknownRolePolicy {
	return r.policy
}

// Resolve returns the capabilities granted to role, applying the policy to
// values outside the enumeration.
func (r *Registry) Resolve(role model.Role) CapabilitySet {
	if set, ok := CapabilitiesOf(role); ok {
		return set
	}
	if r.policy == PolicyDeny {
		return emptySet
	}
	return viewerSet
}

// Can reports whether role grants c.
func (r *Registry) Can(role model.Role, c Capability) bool {
	return r.Resolve(role).Has(c)
}
