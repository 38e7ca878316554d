package modscot_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/config"
	"github.com/alexandre-normand/modscot/test/assertanswer"
	"github.com/alexandre-normand/modscot/test/capture"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// invocationRecorder records handler invocations across goroutines
type invocationRecorder struct {
	sync.Mutex
	calls []string
	args  map[string][]string
}

func newInvocationRecorder() *invocationRecorder {
	return &invocationRecorder{calls: make([]string, 0), args: make(map[string][]string)}
}

func (ir *invocationRecorder) handler(name string) modscot.Handler {
	return func(ctx context.Context, e *modscot.Event, args []string) error {
		ir.Lock()
		defer ir.Unlock()

		ir.calls = append(ir.calls, name)
		ir.args[name] = args

		return nil
	}
}

func (ir *invocationRecorder) invocations() []string {
	ir.Lock()
	defer ir.Unlock()

	return append([]string{}, ir.calls...)
}

func newTestBot(t *testing.T, plugins ...*modscot.Plugin) (*modscot.Modscot, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)

	b := modscot.NewBot("modscot", config.NewViperWithDefaults(), modscot.OptionLog(zap.New(core)))
	for _, p := range plugins {
		b = b.WithPlugin(p)
	}

	s, err := b.Build()
	require.NoError(t, err)

	return s, logs
}

func buttonEvent(id string, customID string, actor modscot.Actor) (*modscot.Event, *capture.Responder) {
	r := capture.NewResponder()
	return &modscot.Event{ID: id, Kind: modscot.KindButton, CustomID: customID, CommunityID: "community", ChannelID: "channel", Actor: actor, Responder: r}, r
}

func TestDispatchDeduplicatesBackToBackDelivery(t *testing.T) {
	ir := newInvocationRecorder()
	s, _ := newTestBot(t, &modscot.Plugin{Name: "support", Namespace: "support", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "close", Handle: ir.handler("close")},
	}})

	e, _ := buttonEvent("evt-1", "support:close:42", modscot.Actor{ID: "author"})

	first := s.Dispatch(context.Background(), e)
	second := s.Dispatch(context.Background(), e)

	assert.False(t, first.Duplicate)
	assert.Equal(t, 1, first.Invoked)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 0, second.Invoked)
	assert.Equal(t, []string{"close"}, ir.invocations())
	assert.Equal(t, []string{"42"}, ir.args["close"])

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats.EventsSeen)
	assert.Equal(t, uint64(1), stats.Duplicates)
}

func TestDispatchOnlyRemembersLastEvent(t *testing.T) {
	ir := newInvocationRecorder()
	s, _ := newTestBot(t, &modscot.Plugin{Name: "support", Namespace: "support", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "close", Handle: ir.handler("close")},
	}})

	a, _ := buttonEvent("A", "support:close:1", modscot.Actor{ID: "author"})
	b, _ := buttonEvent("B", "support:close:2", modscot.Actor{ID: "author"})

	for _, e := range []*modscot.Event{a, b, a} {
		r := s.Dispatch(context.Background(), e)
		assert.False(t, r.Duplicate)
	}

	assert.Len(t, ir.invocations(), 3)
}

func TestDispatchRoutingMissIsSilent(t *testing.T) {
	ir := newInvocationRecorder()
	s, _ := newTestBot(t, &modscot.Plugin{Name: "foo", Namespace: "foo", HandlerDefinitions: []modscot.HandlerDefinition{
		{Handle: ir.handler("foo")},
	}})

	e, responder := buttonEvent("evt-1", "foobar", modscot.Actor{ID: "author"})
	r := s.Dispatch(context.Background(), e)

	assert.Equal(t, 0, r.Matched)
	assert.Empty(t, ir.invocations())
	assert.Empty(t, responder.Answers)
	assert.Equal(t, uint64(1), s.Stats().RoutingMisses)
}

func TestDispatchCapabilityIsolation(t *testing.T) {
	ir := newInvocationRecorder()
	s, _ := newTestBot(t, &modscot.Plugin{Name: "support", Namespace: "support", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "remove", Capability: modscot.HasRole("mods"), Handle: ir.handler("moderated")},
		{SubID: "remove", Handle: ir.handler("open")},
	}})

	e, responder := buttonEvent("evt-1", "support:remove:1", modscot.Actor{ID: "author"})
	r := s.Dispatch(context.Background(), e)

	assert.Equal(t, 2, r.Matched)
	assert.Equal(t, 1, r.Denied)
	assert.Equal(t, 1, r.Invoked)
	assert.Equal(t, []string{"open"}, ir.invocations())

	require.Len(t, responder.Answers, 1)
	assertanswer.HasTextContaining(t, responder.Answers[0], "permission")
	assertanswer.IsEphemeral(t, responder.Answers[0])
}

func TestDispatchCapabilityGranted(t *testing.T) {
	ir := newInvocationRecorder()
	s, _ := newTestBot(t, &modscot.Plugin{Name: "support", Namespace: "support", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "remove", Capability: modscot.AnyOf(modscot.HasRole("mods"), modscot.HasPermission(modscot.PermissionManageMessages)), Handle: ir.handler("moderated")},
	}})

	tests := map[string]struct {
		actor modscot.Actor
	}{
		"ByRole":          {actor: modscot.Actor{ID: "mod", RoleIDs: []string{"mods"}}},
		"ByPermission":    {actor: modscot.Actor{ID: "janitor", Permissions: []modscot.Permission{modscot.PermissionManageMessages}}},
		"ByAdministrator": {actor: modscot.Actor{ID: "admin", Permissions: []modscot.Permission{modscot.PermissionAdministrator}}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e, responder := buttonEvent(name, "support:remove:1", tc.actor)
			r := s.Dispatch(context.Background(), e)

			assert.Equal(t, 0, r.Denied)
			assert.Equal(t, 1, r.Invoked)
			assert.Empty(t, responder.Answers)
		})
	}
}

func TestDispatchFaultIsolation(t *testing.T) {
	ir := newInvocationRecorder()
	s, logs := newTestBot(t, &modscot.Plugin{Name: "support", Namespace: "support", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "close", Handle: func(ctx context.Context, e *modscot.Event, args []string) error {
			return errors.New("storage unavailable")
		}},
		{SubID: "close", Handle: func(ctx context.Context, e *modscot.Event, args []string) error {
			panic("nil channel")
		}},
		{SubID: "close", Handle: ir.handler("sibling")},
	}})

	e, responder := buttonEvent("evt-1", "support:close:1", modscot.Actor{ID: "author"})
	r := s.Dispatch(context.Background(), e)

	assert.Equal(t, 3, r.Invoked)
	assert.Equal(t, 2, r.Faults)
	assert.Equal(t, []string{"sibling"}, ir.invocations())
	assert.Empty(t, responder.Answers)

	faults := logs.FilterMessage("Handler fault").All()
	require.Len(t, faults, 2)
	assert.Equal(t, "support:close:1", faults[0].ContextMap()["customID"])
	assert.Equal(t, "evt-1", faults[0].ContextMap()["eventID"])
	assert.Equal(t, "support", faults[0].ContextMap()["plugin"])
	assert.Contains(t, faults[1].ContextMap()["error"], "handler panicked: nil channel")
	assert.Equal(t, uint64(2), s.Stats().Faults)
}

func TestDispatchUserErrorAnsweredToActor(t *testing.T) {
	s, logs := newTestBot(t, &modscot.Plugin{Name: "support", Namespace: "support", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "close", Handle: func(ctx context.Context, e *modscot.Event, args []string) error {
			return modscot.NewUserError(modscot.ErrForbidden, "Only the author or a moderator can close this ticket.")
		}},
	}})

	e, responder := buttonEvent("evt-1", "support:close:1", modscot.Actor{ID: "stranger"})
	r := s.Dispatch(context.Background(), e)

	assert.Equal(t, 1, r.UserErrors)
	assert.Equal(t, 0, r.Faults)
	require.Len(t, responder.Answers, 1)
	assertanswer.HasText(t, responder.Answers[0], "Only the author or a moderator can close this ticket.")
	assertanswer.IsEphemeral(t, responder.Answers[0])
	assert.Empty(t, logs.FilterMessage("Handler fault").All())
}

func TestDispatchKindFilter(t *testing.T) {
	ir := newInvocationRecorder()
	s, _ := newTestBot(t, &modscot.Plugin{Name: "support", Namespace: "support", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "create", Kinds: []modscot.Kind{modscot.KindButton}, Handle: ir.handler("showForm")},
		{SubID: "create", Kinds: []modscot.Kind{modscot.KindFormSubmit}, Handle: ir.handler("createTicket")},
	}})

	button, _ := buttonEvent("evt-1", "support:create", modscot.Actor{ID: "author"})
	s.Dispatch(context.Background(), button)

	form := &modscot.Event{ID: "evt-2", Kind: modscot.KindFormSubmit, CustomID: "support:create", Fields: map[string]string{"title": "Cannot log in"}}
	s.Dispatch(context.Background(), form)

	assert.Equal(t, []string{"showForm", "createTicket"}, ir.invocations())
}

func TestPluginServicesInjected(t *testing.T) {
	platform := capture.NewPlatform()
	p := &modscot.Plugin{Name: "support", Namespace: "support"}

	_, err := modscot.NewBot("modscot", config.NewViperWithDefaults(), modscot.OptionPlatform(platform), modscot.OptionMemberInfoFinder(capture.NewMemberInfoFinder(daniel))).
		WithPlugin(p).
		Build()
	require.NoError(t, err)

	assert.NotNil(t, p.Logger)
	require.NotNil(t, p.Platform)
	require.NotNil(t, p.MemberInfoFinder)

	_, err = p.Platform.SendMessage(context.Background(), "general", &modscot.OutgoingMessage{Content: "hello"})
	require.NoError(t, err)
	assert.Len(t, platform.MessagesIn("general"), 1)

	m, err := p.MemberInfoFinder.GetMemberInfo(context.Background(), "community", "little-blue")
	require.NoError(t, err)
	assert.Equal(t, "Daniel Quinn", m.DisplayName)
}

func TestRunProcessesConnectorEvents(t *testing.T) {
	ir := newInvocationRecorder()
	s, _ := newTestBot(t, &modscot.Plugin{Name: "support", Namespace: "support", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "close", Kinds: []modscot.Kind{modscot.KindButton}, Usage: "support close", Handle: ir.handler("close")},
		{SubID: "assign", Kinds: []modscot.Kind{modscot.KindCommand}, Usage: "support assign <member>", Description: "Assign the ticket", Handle: ir.handler("assign")},
	}})

	close1, _ := buttonEvent("evt-1", "support:close:1", modscot.Actor{ID: "author"})
	close2, _ := buttonEvent("evt-2", "support:close:2", modscot.Actor{ID: "author"})
	help, helpResponder := buttonEvent("evt-3", "help", modscot.Actor{ID: "author"})
	help.Kind = modscot.KindCommand

	err := s.Run(context.Background(), capture.NewConnector(close1, close1, close2, help))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"close", "close"}, ir.invocations())

	stats := s.Stats()
	assert.Equal(t, uint64(4), stats.EventsSeen)
	assert.Equal(t, uint64(1), stats.Duplicates)

	require.Len(t, helpResponder.Answers, 1)
	assertanswer.HasTextContaining(t, helpResponder.Answers[0], "`/support assign <member>` - Assign the ticket")
	assertanswer.HasTextContaining(t, helpResponder.Answers[0], "`/help` - Reply with usage instructions")
	assertanswer.IsEphemeral(t, helpResponder.Answers[0])

	err = s.Registry().Register("late", "", nil, noopHandler)
	assert.True(t, errors.Is(err, modscot.ErrRegistryFrozen))
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	s, _ := newTestBot(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &openConnector{events: make(chan *modscot.Event)}
	assert.NoError(t, s.Run(ctx, c))
}

// openConnector never delivers nor closes its stream
type openConnector struct {
	events chan *modscot.Event
}

func (c *openConnector) Events() <-chan *modscot.Event {
	return c.events
}
