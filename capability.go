package modscot

// Capability is a predicate deciding whether an actor may trigger a handler
type Capability func(a Actor) bool

// HasPermission returns a Capability satisfied by actors holding the permission
func HasPermission(p Permission) Capability {
	return func(a Actor) bool {
		return a.HasPermission(p)
	}
}

// HasRole returns a Capability satisfied by actors holding the role
func HasRole(roleID string) Capability {
	return func(a Actor) bool {
		return a.HasRole(roleID)
	}
}

// AnyOf returns a Capability satisfied if any of the capabilities is
func AnyOf(capabilities ...Capability) Capability {
	return func(a Actor) bool {
		for _, c := range capabilities {
			if c(a) {
				return true
			}
		}

		return false
	}
}
