package authz

import (
	"errors"
	"fmt"
)

// ErrUnknownResource signals a resource kind nobody registered a policy for.
// It is a wiring bug surfaced to the operator, never shown to end users.
var ErrUnknownResource = errors.New("authz: unknown resource")

// Engine answers allow/deny questions using a fixed resource registry.
// It performs no I/O and keeps no per-request state.
type Engine struct {
	policies map[string]Policy
}

// NewEngine builds an Engine over the given registry.
func NewEngine(policies map[string]Policy) *Engine {
	reg := make(map[string]Policy, len(policies))
	for kind, p := range policies {
		reg[kind] = p
	}
	return &Engine{policies: reg}
}

// Allowed decides whether actor may perform action on the resource kind.
// An action outside the policy's vocabulary is denied for every actor.
func (e *Engine) Allowed(resource string, action Action, actor Actor, c Context) (bool, error) {
	policy, ok := e.policies[resource]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	switch action {
	case ActionShow:
		return policy.Show(actor, c), nil
	case ActionShowAll:
		return policy.ShowAll(actor, c), nil
	case ActionCreate:
		return policy.Create(actor, c), nil
	case ActionEdit:
		return policy.Edit(actor, c), nil
	case ActionDelete:
		return policy.Delete(actor, c), nil
	case ActionModerate:
		return policy.Moderate(actor, c), nil
	case ActionSwitchRole:
		return policy.SwitchRole(actor, c), nil
	case ActionShowStatisticsPage:
		return policy.ShowStatisticsPage(actor, c), nil
	default:
		return false, nil
	}
}
