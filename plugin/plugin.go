// Package plugin assembles a modscot.Plugin from handler and scheduled action definitions:
//
//	p := plugin.New("support").
//		WithHandler(actions.NewCommand().WithSubID("message").WithDescription("Post the support message").Build()).
//		Build()
package plugin

import (
	"github.com/alexandre-normand/modscot"
)

// Builder accumulates the parts of a plugin until Build
type Builder struct {
	name      string
	namespace string
	handlers  []modscot.HandlerDefinition
	scheduled []modscot.ScheduledActionDefinition
	platform  modscot.Platform
}

// New starts a plugin named name whose handlers live in the namespace of the same name
func New(name string) *Builder {
	return &Builder{name: name, namespace: name}
}

// WithNamespace overrides the first custom id segment of the plugin's handlers
func (pb *Builder) WithNamespace(namespace string) *Builder {
	pb.namespace = namespace
	return pb
}

func (pb *Builder) WithHandler(hd modscot.HandlerDefinition) *Builder {
	pb.handlers = append(pb.handlers, hd)
	return pb
}

func (pb *Builder) WithScheduledAction(sa modscot.ScheduledActionDefinition) *Builder {
	pb.scheduled = append(pb.scheduled, sa)
	return pb
}

// WithPlatform pins the platform of the plugin. Otherwise, the bot's platform is injected at registration
func (pb *Builder) WithPlatform(p modscot.Platform) *Builder {
	pb.platform = p
	return pb
}

// Build returns the plugin. Handlers and scheduled actions are never nil
func (pb *Builder) Build() *modscot.Plugin {
	p := &modscot.Plugin{
		Name:               pb.name,
		Namespace:          pb.namespace,
		HandlerDefinitions: make([]modscot.HandlerDefinition, len(pb.handlers)),
		ScheduledActions:   make([]modscot.ScheduledActionDefinition, len(pb.scheduled)),
		BotServices:        modscot.BotServices{Platform: pb.platform},
	}

	copy(p.HandlerDefinitions, pb.handlers)
	copy(p.ScheduledActions, pb.scheduled)

	return p
}
