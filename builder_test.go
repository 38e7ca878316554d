package modscot_test

import (
	"context"
	"testing"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBotWithoutPlugins(t *testing.T) {
	b, err := modscot.NewBot("jane", config.NewViperWithDefaults()).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestNewBotWithSimplePlugin(t *testing.T) {
	b, err := modscot.NewBot("jane", config.NewViperWithDefaults()).
		WithPlugin(newPlugin()).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Len(t, b.Registry().Entries(), 1)
}

func TestNewBotWithPluginErrors(t *testing.T) {
	tests := map[string]struct {
		errors        []string
		expectedError string
	}{
		"NoError": {
			errors: []string{""},
		},
		"SingleError": {
			errors:        []string{"error1"},
			expectedError: "error1",
		},
		"FirstErrorWins": {
			errors:        []string{"error1", "error2", ""},
			expectedError: "error1",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			builder := modscot.NewBot("jane", config.NewViperWithDefaults())
			for _, e := range tc.errors {
				builder = builder.WithPluginErr(newPluginWithErr(e))
			}

			b, err := builder.Build()
			if tc.expectedError == "" {
				require.NoError(t, err)
				assert.NotNil(t, b)
			} else {
				assert.EqualError(t, err, tc.expectedError)
				assert.Nil(t, b)
			}
		})
	}
}

func TestNewBotWithInvalidPlugin(t *testing.T) {
	b, err := modscot.NewBot("jane", config.NewViperWithDefaults()).
		WithPlugin(&modscot.Plugin{Name: "nameless", HandlerDefinitions: []modscot.HandlerDefinition{{SubID: "make", Handle: noopHandler}}}).
		Build()

	assert.True(t, errors.Is(err, modscot.ErrEmptyNamespace))
	assert.Nil(t, b)
}

func TestNewBotWithCloserPlugin(t *testing.T) {
	tests := map[string]struct {
		closeErr string
	}{
		"ClosingWithError": {
			closeErr: "should be called",
		},
		"ClosingWithoutError": {},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := modscot.NewBot("jane", config.NewViperWithDefaults()).
				WithPluginCloserErr(newPluginWithErrAndCloser("", CloseTester{errorMsg: tc.closeErr})).
				Build()

			require.NoError(t, err)
			require.NotNil(t, b)

			err = b.Close()
			if tc.closeErr != "" {
				assert.EqualError(t, err, tc.closeErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewBotWithCloserAndErr(t *testing.T) {
	b, err := modscot.NewBot("jane", config.NewViperWithDefaults()).
		WithPluginCloserErr(newPluginWithErrAndCloser("error1", CloseTester{})).
		WithPluginCloserErr(newPluginWithErrAndCloser("error2", CloseTester{})).
		Build()

	assert.EqualError(t, err, "error1")
	assert.Nil(t, b)
}

func TestNewBotWithStandaloneCloser(t *testing.T) {
	b, err := modscot.NewBot("jane", config.NewViperWithDefaults()).
		WithCloser(CloseTester{errorMsg: "storer closed"}).
		Build()

	require.NoError(t, err)
	assert.EqualError(t, b.Close(), "storer closed")
}

func TestNewBotWithConfigurablePluginMissingConfig(t *testing.T) {
	b, err := modscot.NewBot("jane", config.NewViperWithDefaults()).
		WithConfigurablePluginErr("tester", func(c *config.PluginConfig) (p *modscot.Plugin, err error) { return newPluginWithErr("") }).
		WithConfigurablePluginErr("testerClone", func(c *config.PluginConfig) (p *modscot.Plugin, err error) { return newPluginWithErr("") }).
		Build()

	assert.EqualError(t, err, "Missing plugin configuration for plugin [tester] at [plugins.tester]")
	assert.Nil(t, b)
}

func TestNewBotWithConfigurablePluginValidConfig(t *testing.T) {
	c := config.NewViperWithDefaults()
	c.Set("plugins.tester", map[string]string{"enabled": "true"})

	b, err := modscot.NewBot("jane", c).
		WithConfigurablePluginErr("tester", func(c *config.PluginConfig) (p *modscot.Plugin, err error) {
			assert.Equal(t, "true", c.GetString("enabled"))
			return newPluginWithErr("")
		}).
		Build()

	assert.NoError(t, err)
	assert.NotNil(t, b)
}

func noopHandler(ctx context.Context, e *modscot.Event, args []string) error {
	return nil
}

// newPlugin returns a new tester plugin
func newPlugin() (p *modscot.Plugin) {
	p = new(modscot.Plugin)
	p.Name = "tester"
	p.Namespace = "tester"
	p.HandlerDefinitions = []modscot.HandlerDefinition{{
		SubID:       "make",
		Kinds:       []modscot.Kind{modscot.KindCommand},
		Usage:       "tester make <something>",
		Description: "Have the test bot make something for you",
		Handle: func(ctx context.Context, e *modscot.Event, args []string) error {
			return e.Reply(ctx, &modscot.Answer{Text: "Ready"})
		},
	}}

	return p
}

// newPluginWithErr returns the plugin along with an error if errorMsg is not empty
func newPluginWithErr(errorMsg string) (p *modscot.Plugin, err error) {
	if errorMsg != "" {
		return nil, errors.New(errorMsg)
	}

	return newPlugin(), nil
}

// newPluginWithErrAndCloser returns the plugin along with an error if errorMsg is not empty and the closer
func newPluginWithErrAndCloser(errorMsg string, closer CloseTester) (c CloseTester, p *modscot.Plugin, err error) {
	p, err = newPluginWithErr(errorMsg)

	return closer, p, err
}

// CloseTester is a Closer that either doesn't do anything or returns the error set on the CloseTester
type CloseTester struct {
	errorMsg string
}

// Close returns the CloseTester error if set, or just returns nil and does nothing otherwise
func (c CloseTester) Close() (err error) {
	if c.errorMsg != "" {
		return errors.New(c.errorMsg)
	}

	return nil
}
