package access

import (
	"github.com/rs/zerolog"
)

// Checker answers "is (role, resourceType, action) permitted?" against an
// injected policy table. It holds no mutable state and is safe for use
// from any number of request goroutines.
type Checker struct {
	policy Policy
	logger zerolog.Logger
}

// NewChecker creates a Checker over the given policy table.
func NewChecker(policy Policy, logger zerolog.Logger) *Checker {
	return &Checker{
		policy: policy,
		logger: logger.With().Str("component", "access-checker").Logger(),
	}
}

// Allowed reports whether the role may perform the action on the resource
// type. Lookups fail closed: an unknown role, an unlisted resource type,
// or an action outside the grant all deny. A missing role or resource
// entry is logged at warn level so configuration gaps stay discoverable,
// but is otherwise indistinguishable from an ordinary denial.
func (c *Checker) Allowed(role Role, resource ResourceType, action Action) bool {
	if role == "" || resource == "" || action == "" {
		return false
	}

	grants, ok := c.policy[role]
	if !ok {
		c.logger.Warn().
			Str("role", string(role)).
			Msg("role absent from policy table, denying")
		return false
	}

	actions, ok := grants[resource]
	if !ok {
		c.logger.Warn().
			Str("role", string(role)).
			Str("resource_type", string(resource)).
			Msg("resource type absent from role grants, denying")
		return false
	}

	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
