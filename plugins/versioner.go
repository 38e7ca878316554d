package plugins

import (
	"context"
	"fmt"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/actions"
	"github.com/alexandre-normand/modscot/plugin"
)

const (
	// VersionerPluginName holds the identifying name of the versioner plugin
	VersionerPluginName = "version"
)

// NewVersioner creates a new instance of the versioner plugin
func NewVersioner(name string, version string) (p *modscot.Plugin) {
	p = plugin.New(VersionerPluginName).
		WithHandler(actions.NewCommand().
			WithUsage("version").
			WithDescriptionf("Reply with `%s`'s `version` number", name).
			WithHandler(func(ctx context.Context, e *modscot.Event, args []string) error {
				return e.Reply(ctx, ephemeral(fmt.Sprintf("I'm `%s`, version `%s`", name, version)))
			}).
			Build()).
		Build()

	return p
}
