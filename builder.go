package modscot

import (
	"io"

	"github.com/alexandre-normand/modscot/config"
	"github.com/spf13/viper"
)

// Builder holds a modscot instance to build
type Builder struct {
	bot *Modscot
	err error
}

// NewBot returns a new Builder used to set up a new modscot
func NewBot(name string, v *viper.Viper, options ...Option) (mb *Builder) {
	mb = new(Builder)
	mb.bot, mb.err = New(name, v, options...)

	return mb
}

// WithPlugin adds a plugin to the modscot instance
func (mb *Builder) WithPlugin(p *Plugin) *Builder {
	return mb.WithPluginErr(p, nil)
}

// WithPluginErr adds a plugin that has a creation function returning (Plugin, error) to the modscot instance
func (mb *Builder) WithPluginErr(p *Plugin, err error) *Builder {
	return mb.WithPluginCloserErr(nil, p, err)
}

// WithPluginCloserErr adds a plugin that has a creation function returning (io.Closer, Plugin, error) to the modscot instance
func (mb *Builder) WithPluginCloserErr(closer io.Closer, p *Plugin, err error) *Builder {
	if mb.err == nil && err != nil {
		mb.err = err
	}

	if mb.err != nil {
		return mb
	}

	if err = mb.bot.RegisterPlugin(p); err != nil {
		mb.err = err
		return mb
	}

	if closer != nil {
		mb.bot.closers = append(mb.bot.closers, closer)
	}

	return mb
}

// WithConfigurablePluginErr adds a plugin built from its configuration sub-tree (plugins.<name>)
func (mb *Builder) WithConfigurablePluginErr(name string, newInstance func(c *config.PluginConfig) (p *Plugin, err error)) *Builder {
	if mb.err != nil {
		return mb
	}

	pc, err := config.GetPluginConfig(mb.bot.config, name)
	if err != nil {
		mb.err = err
		return mb
	}

	return mb.WithPluginErr(newInstance(pc))
}

// WithCloser adds a closer closed along with the modscot instance (i.e. a storer shared by plugins)
func (mb *Builder) WithCloser(closer io.Closer) *Builder {
	if mb.err == nil && closer != nil {
		mb.bot.closers = append(mb.bot.closers, closer)
	}

	return mb
}

// Build returns the built modscot instance. If there was an error during
// setup, the error is returned along with a nil modscot
func (mb *Builder) Build() (s *Modscot, err error) {
	if mb.err != nil {
		return nil, mb.err
	}

	return mb.bot, nil
}
