package modscot

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alexandre-normand/modscot/config"
)

type helpPlugin struct {
	Plugin

	name             string
	version          string
	timeLocation     string
	commands         []HandlerDefinition
	scheduledActions []pluginScheduledAction
}

const (
	helpPluginName = "help"
)

// pluginScheduledAction represents a plugin's scheduled action with the plugin name and the action's definition
type pluginScheduledAction struct {
	plugin string
	ScheduledActionDefinition
}

func (s *Modscot) newHelpPlugin(version string) *helpPlugin {
	h := new(helpPlugin)
	h.timeLocation = s.config.GetString(config.TimeLocationKey)
	h.name = s.name
	h.version = version
	h.commands, h.scheduledActions = findVisibleActions(s.plugins)

	h.Plugin = Plugin{Name: helpPluginName, Namespace: helpPluginName, HandlerDefinitions: []HandlerDefinition{{
		Kinds:       []Kind{KindCommand},
		Usage:       helpPluginName,
		Description: "Reply with usage instructions",
		Handle:      h.showHelp,
	}}}

	return h
}

// showHelp answers with the list of all visible commands and scheduled actions
func (h *helpPlugin) showHelp(ctx context.Context, e *Event, args []string) (err error) {
	var b strings.Builder

	if h.MemberInfoFinder != nil {
		m, err := h.MemberInfoFinder.GetMemberInfo(ctx, e.CommunityID, e.Actor.ID)
		if err != nil {
			h.Logger.Debugf("Error getting member info for [%s] so skipping mentioning the name: %v", e.Actor.ID, err)
		} else {
			fmt.Fprintf(&b, "🤝 Hi, `%s`! ", m.DisplayName)
		}
	}

	fmt.Fprintf(&b, "I'm `%s` (engine `v%s`) and I help moderators keep the community tidy.\n", h.name, h.version)

	if len(h.commands) > 0 {
		fmt.Fprintf(&b, "\nI currently support the following commands:\n")
		appendCommands(&b, h.commands)
	}

	if len(h.scheduledActions) > 0 {
		fmt.Fprintf(&b, "\nAnd do those things periodically:\n")
		appendScheduledActions(&b, h.timeLocation, h.scheduledActions)
	}

	return e.Reply(ctx, &Answer{Text: b.String(), Options: []AnswerOption{AnswerEphemeral()}})
}

func appendCommands(w io.Writer, commands []HandlerDefinition) {
	for _, c := range commands {
		fmt.Fprintf(w, "\t• `/%s` - %s\n", c.Usage, c.Description)
	}
}

func appendScheduledActions(w io.Writer, timeLocationName string, scheduledActions []pluginScheduledAction) {
	for _, sa := range scheduledActions {
		fmt.Fprintf(w, "\t• [`%s`] `%s` (`%s`) - %s\n", sa.plugin, sa.Schedule, timeLocationName, sa.Description)
	}
}

// findVisibleActions returns the non-hidden commands and scheduled actions of all plugins
func findVisibleActions(plugins []*Plugin) (commands []HandlerDefinition, scheduledActions []pluginScheduledAction) {
	commands = make([]HandlerDefinition, 0)
	scheduledActions = make([]pluginScheduledAction, 0)

	for _, p := range plugins {
		for _, hd := range p.HandlerDefinitions {
			if !hd.Hidden && hd.Usage != "" && acceptsKind(hd.Kinds, KindCommand) {
				commands = append(commands, hd)
			}
		}

		for _, sa := range p.ScheduledActions {
			if !sa.Hidden {
				scheduledActions = append(scheduledActions, pluginScheduledAction{plugin: p.Name, ScheduledActionDefinition: sa})
			}
		}
	}

	return commands, scheduledActions
}

func acceptsKind(kinds []Kind, k Kind) bool {
	if len(kinds) == 0 {
		return true
	}

	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}

	return false
}
