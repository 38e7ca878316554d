/*
Package actions provides a fluent API for creating modscot handler definitions. Typical usages
will also involve using the plugin fluent API from github.com/alexandre-normand/modscot/plugin.

A quick example could look like:

	import (
		"github.com/alexandre-normand/modscot"
		"github.com/alexandre-normand/modscot/plugin"
		"github.com/alexandre-normand/modscot/actions"
	)

	func newPlugin() (p *modscot.Plugin) {
		p = plugin.New("greeter").
			WithHandler(actions.NewCommand().
				WithSubID("hello").
				WithUsage("greeter hello").
				WithDescription("Say hello").
				WithHandler(func(ctx context.Context, e *modscot.Event, args []string) error {
					return e.Reply(ctx, &modscot.Answer{Text: "Hello!"})
				}).
				Build()).
			WithHandler(actions.NewButton().
				WithSubID("wave").
				WithCapability(modscot.HasPermission(modscot.PermissionModerateMembers)).
				WithHandler(wave).
				Build()).
			WithScheduledAction(actions.NewScheduledAction().
				WithSchedule(schedule.New().Every(time.Monday.String()).AtTime("10:00").Build()).
				WithDescription("Start the week off").
				WithAction(weeklyKickoff).
				Build()).
			Build()
		return p
	}
*/
package actions

import (
	"context"
	"fmt"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/schedule"
)

// HandlerBuilder holds the handler definition to build
type HandlerBuilder struct {
	handler modscot.HandlerDefinition
}

// ScheduledActionBuilder holds the scheduled action to build
type ScheduledActionBuilder struct {
	scheduledAction modscot.ScheduledActionDefinition
}

// Default to doing nothing. This is not a default you want to use in most cases
var defaultHandler = func(ctx context.Context, e *modscot.Event, args []string) error {
	return nil
}

// NewHandler returns a new HandlerBuilder for a handler receiving events of the given kinds.
// Without kinds, the handler receives all kinds
func NewHandler(kinds ...modscot.Kind) (hb *HandlerBuilder) {
	hb = new(HandlerBuilder)
	hb.handler = modscot.HandlerDefinition{Hidden: false, Kinds: kinds, Handle: defaultHandler}

	return hb
}

// NewCommand returns a new HandlerBuilder to build a command handler
func NewCommand() (hb *HandlerBuilder) {
	return NewHandler(modscot.KindCommand)
}

// NewButton returns a new HandlerBuilder to build a button click handler
func NewButton() (hb *HandlerBuilder) {
	return NewHandler(modscot.KindButton)
}

// NewFormSubmit returns a new HandlerBuilder to build a form submission handler
func NewFormSubmit() (hb *HandlerBuilder) {
	return NewHandler(modscot.KindFormSubmit)
}

// NewMessageListener returns a new HandlerBuilder to build a handler of message creations, updates and deletions
func NewMessageListener() (hb *HandlerBuilder) {
	return NewHandler(modscot.KindMessageCreate, modscot.KindMessageUpdate, modscot.KindMessageDelete).WithSubID("-")
}

// NewMemberListener returns a new HandlerBuilder to build a handler of member updates
func NewMemberListener() (hb *HandlerBuilder) {
	return NewHandler(modscot.KindMemberUpdate).WithSubID("-")
}

// WithSubID sets the handler's sub-id
func (hb *HandlerBuilder) WithSubID(subID string) *HandlerBuilder {
	hb.handler.SubID = subID
	return hb
}

// WithCapability sets the capability the actor must have
func (hb *HandlerBuilder) WithCapability(c modscot.Capability) *HandlerBuilder {
	hb.handler.Capability = c
	return hb
}

// WithUsage sets the handler usage
func (hb *HandlerBuilder) WithUsage(usage string) *HandlerBuilder {
	hb.handler.Usage = usage
	return hb
}

// WithDescription sets the handler description
func (hb *HandlerBuilder) WithDescription(description string) *HandlerBuilder {
	hb.handler.Description = description
	return hb
}

// WithDescriptionf sets the handler description delegating format and arguments to fmt.Sprintf
func (hb *HandlerBuilder) WithDescriptionf(format string, a ...interface{}) *HandlerBuilder {
	hb.handler.Description = fmt.Sprintf(format, a...)
	return hb
}

// WithHandler sets the handler function
func (hb *HandlerBuilder) WithHandler(h modscot.Handler) *HandlerBuilder {
	hb.handler.Handle = h
	return hb
}

// Hidden sets the handler to hidden
func (hb *HandlerBuilder) Hidden() *HandlerBuilder {
	hb.handler.Hidden = true
	return hb
}

// Build returns the HandlerDefinition
func (hb *HandlerBuilder) Build() modscot.HandlerDefinition {
	return hb.handler
}

// NewScheduledAction returns a new ScheduledActionBuilder to build a new ScheduledActionDefinition
func NewScheduledAction() (sab *ScheduledActionBuilder) {
	sab = new(ScheduledActionBuilder)
	sab.scheduledAction = modscot.ScheduledActionDefinition{Hidden: false}
	sab.scheduledAction.Action = func(ctx context.Context) {}

	return sab
}

// Hidden sets the scheduled action to hidden
func (sab *ScheduledActionBuilder) Hidden() *ScheduledActionBuilder {
	sab.scheduledAction.Hidden = true
	return sab
}

// WithSchedule sets the schedule for the scheduled action
func (sab *ScheduledActionBuilder) WithSchedule(schedule schedule.Definition) *ScheduledActionBuilder {
	sab.scheduledAction.Schedule = schedule
	return sab
}

// WithDescription sets the scheduled action description
func (sab *ScheduledActionBuilder) WithDescription(desc string) *ScheduledActionBuilder {
	sab.scheduledAction.Description = desc
	return sab
}

// WithDescriptionf sets the scheduled action description delegating format and arguments to fmt.Sprintf
func (sab *ScheduledActionBuilder) WithDescriptionf(format string, a ...interface{}) *ScheduledActionBuilder {
	sab.scheduledAction.Description = fmt.Sprintf(format, a...)
	return sab
}

// WithAction sets the action function to run on schedule
func (sab *ScheduledActionBuilder) WithAction(action modscot.ScheduledAction) *ScheduledActionBuilder {
	sab.scheduledAction.Action = action
	return sab
}

// Build returns the ScheduledActionDefinition
func (sab *ScheduledActionBuilder) Build() modscot.ScheduledActionDefinition {
	return sab.scheduledAction
}
