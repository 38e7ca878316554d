/*
Package modscot provides the building blocks to create a community moderation bot.

Platform events (commands, button clicks, form submissions as well as message and member updates)
carry a hierarchical identifier made of colon-separated segments (i.e. support:close:42). Plugins
register handlers under a namespace and sub-id and the registry routes every event to the handlers
whose identifier prefixes the event's. Remaining segments are handed to the handler as arguments.

Handlers may be guarded by a Capability. Actors lacking it are answered with an ephemeral refusal
and the handler is never invoked. Handlers report failures meant for the actor with NewUserError
and every other error (or panic) is logged along with a correlation id.

Plugins also have access to services injected on registration such as:
  - SLogger: To log debug/info statements
  - MemberInfoFinder: To query member info
  - Platform: To manage channels, threads, messages and the bot's presence

Example code (from cmd/modscot):

	package main

	import (
		"github.com/alexandre-normand/modscot"
		"github.com/alexandre-normand/modscot/config"
		"github.com/alexandre-normand/modscot/plugins"
	)

	func main() {
		// TODO: Parse command-line, initialize viper and instantiate the ticket workflow and settings

		bot, err := modscot.NewBot("modscot", v, modscot.OptionLog(logger), modscot.OptionPlatform(platform)).
			WithPlugin(&plugins.NewSupport(workflow, communitySettings).Plugin).
			WithPlugin(&plugins.NewSuspicious(communitySettings).Plugin).
			WithPlugin(plugins.NewMessages()).
			WithConfigurablePluginErr(plugins.PresencePluginName, newPresence).
			Build()
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		err = bot.Run(ctx, connector)
		if err != nil {
			log.Fatal(err)
		}
	}
*/
package modscot
