package modscot

import (
	"context"
	"fmt"

	"github.com/alexandre-normand/modscot/customid"
	"github.com/alexandre-normand/modscot/schedule"
)

// Plugin represents a plugin (its name, namespace and handler definitions)
type Plugin struct {
	Name string

	// Namespace is the first identifier segment of the plugin's handlers
	Namespace string

	HandlerDefinitions []HandlerDefinition
	ScheduledActions   []ScheduledActionDefinition

	// BotServices is injected when the plugin is registered
	BotServices
}

// BotServices holds services made available to plugins once registered. A plugin that already holds
// a service keeps its own
type BotServices struct {
	Logger           SLogger
	MemberInfoFinder MemberInfoFinder
	Platform         Platform
}

// HandlerDefinition represents how a handler is routed to, authorized, published and described
// along with the function defining its behavior
type HandlerDefinition struct {
	// Indicates whether the handler should be omitted from the help message
	Hidden bool

	// SubID narrows the plugin namespace. A sub-id starting with customid.EscapeMarker is used
	// as a fully qualified identifier
	SubID string

	// Kinds restricts the event kinds routed to the handler. Empty means all kinds
	Kinds []Kind

	// Capability required from the actor. Nil means everyone is allowed
	Capability Capability

	// Usage example
	Usage string

	// Help description for the handler
	Description string

	// Function to execute when routed to
	Handle Handler
}

// ID returns the identifier prefix of the definition within a namespace
func (hd HandlerDefinition) ID(namespace string) string {
	return customid.Build(namespace, hd.SubID)
}

// String returns a friendly description of a HandlerDefinition
func (hd HandlerDefinition) String() string {
	return fmt.Sprintf("`%s` - %s", hd.Usage, hd.Description)
}

// ScheduledAction is what gets executed when a ScheduledActionDefinition is triggered (by its schedule)
type ScheduledAction func(ctx context.Context)

// ScheduledActionDefinition represents when a scheduled action is triggered as well
// as what it does and how
type ScheduledActionDefinition struct {
	// Indicates whether the action should be omitted from the help message
	Hidden bool

	Schedule schedule.Definition

	// Help description for the scheduled action
	Description string

	// Action is the function that is invoked when the schedule activates
	Action ScheduledAction
}

// String returns a friendly description of a ScheduledActionDefinition
func (a ScheduledActionDefinition) String() string {
	return fmt.Sprintf("`%s` - %s", a.Schedule, a.Description)
}
