package core

import "fmt"

// Category selects which device pool serves an effect
type Category int

const (
	CategoryOverlay Category = iota // Non-positional, globally audible
	CategoryWorld                   // Anchored to an origin entity and position
	CategoryCount
)

// String returns the lowercase label used in logs and metrics
func (c Category) String() string {
	switch c {
	case CategoryOverlay:
		return "overlay"
	case CategoryWorld:
		return "world"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Policy resolves re-triggers of an effect that is still audible
type Policy int

const (
	PolicyPlayAll        Policy = iota // No tracking, every trigger is independent
	PolicyKeepOld                      // Existing instance wins, new trigger dropped
	PolicyReplaceWithNew               // Existing device restarted in place
)

// String returns the registry file spelling of the policy
func (p Policy) String() string {
	switch p {
	case PolicyPlayAll:
		return "play_all"
	case PolicyKeepOld:
		return "keep_old"
	case PolicyReplaceWithNew:
		return "replace_with_new"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps the registry file spelling to a Policy
// Empty input defaults to PolicyPlayAll
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "play_all":
		return PolicyPlayAll, nil
	case "keep_old":
		return PolicyKeepOld, nil
	case "replace_with_new":
		return PolicyReplaceWithNew, nil
	default:
		return PolicyPlayAll, fmt.Errorf("unknown duplicate policy %q", s)
	}
}
