package modscot

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alexandre-normand/modscot/config"
	"github.com/alexandre-normand/modscot/schedule"
	"github.com/google/uuid"
	"github.com/marcsantiago/gocron"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/api/metric"
	"go.uber.org/zap"
)

const (
	// VERSION represents the current modscot version
	VERSION = "1.0.0"

	insufficientPermissionText = "You don't have the permission to do this."
)

// Modscot represents what defines a moderation bot (mostly, a name, its plugins and the registry
// routing events to them)
type Modscot struct {
	name     string
	config   *viper.Viper
	registry *Registry
	plugins  []*Plugin
	closers  []io.Closer
	services BotServices

	zapLogger *zap.Logger
	log       SLogger

	meter metric.Meter
	*instrumenter

	// Identity of the last event that went through deduplication. Redeliveries arrive back-to-back
	// so a single slot is enough
	lastEventMu sync.Mutex
	lastEventID string

	stats stats
}

// Option defines an option for a Modscot
type Option func(*Modscot)

// OptionLog sets a zap logger for Modscot
func OptionLog(logger *zap.Logger) func(*Modscot) {
	return func(s *Modscot) {
		s.zapLogger = logger
	}
}

// OptionLogger sets the logger used by Modscot and injected in plugins
func OptionLogger(logger SLogger) func(*Modscot) {
	return func(s *Modscot) {
		s.log = logger
	}
}

// OptionMeter sets the open telemetry meter used to record metrics
func OptionMeter(meter metric.Meter) func(*Modscot) {
	return func(s *Modscot) {
		s.meter = meter
	}
}

// OptionPlatform sets the platform client injected in plugins
func OptionPlatform(p Platform) func(*Modscot) {
	return func(s *Modscot) {
		s.services.Platform = p
	}
}

// OptionMemberInfoFinder sets the member info finder injected in plugins. It gets wrapped with
// a cache sized by config.MemberInfoCacheSizeKey
func OptionMemberInfoFinder(f MemberInfoFinder) func(*Modscot) {
	return func(s *Modscot) {
		s.services.MemberInfoFinder = f
	}
}

// DispatchReport summarizes the processing of a single event
type DispatchReport struct {
	EventID    string
	Duplicate  bool
	Matched    int
	Invoked    int
	Denied     int
	UserErrors int
	Faults     int
}

// Stats holds counters of all events processed since startup
type Stats struct {
	EventsSeen    uint64 `json:"eventsSeen"`
	Duplicates    uint64 `json:"duplicates"`
	RoutingMisses uint64 `json:"routingMisses"`
	Invocations   uint64 `json:"invocations"`
	Denials       uint64 `json:"denials"`
	UserErrors    uint64 `json:"userErrors"`
	Faults        uint64 `json:"faults"`
}

type stats struct {
	eventsSeen    atomic.Uint64
	duplicates    atomic.Uint64
	routingMisses atomic.Uint64
	invocations   atomic.Uint64
	denials       atomic.Uint64
	userErrors    atomic.Uint64
	faults        atomic.Uint64
}

func (st *stats) record(r DispatchReport) {
	if r.Matched == 0 {
		st.routingMisses.Add(1)
	}

	st.invocations.Add(uint64(r.Invoked))
	st.denials.Add(uint64(r.Denied))
	st.userErrors.Add(uint64(r.UserErrors))
	st.faults.Add(uint64(r.Faults))
}

// New creates a new modscot from a name and configuration
func New(name string, v *viper.Viper, options ...Option) (s *Modscot, err error) {
	s = new(Modscot)
	s.name = name
	s.config = v
	s.registry = NewRegistry()
	s.plugins = make([]*Plugin, 0)
	s.closers = make([]io.Closer, 0)
	s.zapLogger = zap.L()
	s.meter = metric.NoopMeter{}

	for _, opt := range options {
		opt(s)
	}

	if s.log == nil {
		s.log = NewSLogger(s.zapLogger, v.GetBool(config.DebugKey))
	}

	s.instrumenter = newInstrumenter(name, s.meter)

	if s.services.Platform != nil {
		s.services.Platform = NewPlatformWithTelemetry(s.services.Platform, name, s.meter)
	}

	if s.services.MemberInfoFinder != nil {
		s.services.MemberInfoFinder, err = NewCachingMemberInfoFinder(v, NewMemberInfoFinderWithTelemetry(s.services.MemberInfoFinder, name, s.meter), s.log)
		if err != nil {
			return nil, err
		}
	}
	s.services.Logger = s.log

	return s, nil
}

// RegisterPlugin registers a plugin with the Modscot engine. This should be invoked
// prior to calling Run
func (s *Modscot) RegisterPlugin(p *Plugin) (err error) {
	s.injectServices(p)

	if err = s.registry.RegisterPlugin(p); err != nil {
		return err
	}

	s.getOrCreatePluginMetrics(p.Name)
	s.plugins = append(s.plugins, p)

	return nil
}

// injectServices sets the bot services a plugin doesn't already hold
func (s *Modscot) injectServices(p *Plugin) {
	if p.Logger == nil {
		p.Logger = s.services.Logger
	}

	if p.MemberInfoFinder == nil {
		p.MemberInfoFinder = s.services.MemberInfoFinder
	}

	if p.Platform == nil {
		p.Platform = s.services.Platform
	}
}

// Registry returns the registry routing events to handlers
func (s *Modscot) Registry() *Registry {
	return s.registry
}

// Stats returns a snapshot of the processing counters
func (s *Modscot) Stats() Stats {
	return Stats{
		EventsSeen:    s.stats.eventsSeen.Load(),
		Duplicates:    s.stats.duplicates.Load(),
		RoutingMisses: s.stats.routingMisses.Load(),
		Invocations:   s.stats.invocations.Load(),
		Denials:       s.stats.denials.Load(),
		UserErrors:    s.stats.userErrors.Load(),
		Faults:        s.stats.faults.Load(),
	}
}

// Close closes all closers of this modscot instance
func (s *Modscot) Close() (err error) {
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil {
			s.log.Printf("Error closing [%v]: %v", c, cerr)
			err = cerr
		}
	}

	return err
}

// Dispatch deduplicates and processes a single event synchronously
func (s *Modscot) Dispatch(ctx context.Context, e *Event) (r DispatchReport) {
	if s.seen(ctx, e) {
		return DispatchReport{EventID: e.ID, Duplicate: true}
	}

	return s.process(ctx, e)
}

// seen counts the event and returns true if it's a redelivery of the previous event
func (s *Modscot) seen(ctx context.Context, e *Event) (duplicate bool) {
	s.coreMetrics.eventsSeen.Add(ctx, 1)
	s.stats.eventsSeen.Add(1)

	if s.isDuplicate(e.ID) {
		s.log.Debugf("Discarding duplicate event [%s] for [%s]", e.ID, e.CustomID)
		s.coreMetrics.eventsDuplicate.Add(ctx, 1)
		s.stats.duplicates.Add(1)

		return true
	}

	return false
}

// isDuplicate compares the event id with the last one seen and records it as the last one seen.
// Events without identity are never considered duplicates
func (s *Modscot) isDuplicate(eventID string) bool {
	s.lastEventMu.Lock()
	defer s.lastEventMu.Unlock()

	if eventID != "" && eventID == s.lastEventID {
		return true
	}

	s.lastEventID = eventID

	return false
}

// process routes an event to all matching handlers, in registration order
func (s *Modscot) process(ctx context.Context, e *Event) (r DispatchReport) {
	r.EventID = e.ID
	correlationID := uuid.New().String()

	d := measure(func() {
		matches := s.registry.LookupKind(e.CustomID, e.Kind)
		r.Matched = len(matches)

		if len(matches) == 0 {
			s.log.Debugf("No handler registered for [%s] (event [%s] of kind [%s])", e.CustomID, e.ID, e.Kind)
			return
		}

		for _, m := range matches {
			s.invoke(ctx, e, m, correlationID, &r)
		}
	})

	s.stats.record(r)

	if c, ok := s.coreMetrics.eventsProcessed[e.Kind]; ok {
		c.Add(ctx, 1)
	}

	if m, ok := s.coreMetrics.eventProcessingLatencyMillis[e.Kind]; ok {
		m.Record(ctx, d.Milliseconds())
	}

	return r
}

// invoke authorizes the actor against a matched entry and runs its handler. Faults are isolated to
// the entry
func (s *Modscot) invoke(ctx context.Context, e *Event, m Match, correlationID string, r *DispatchReport) {
	en := m.Entry

	if en.Capability != nil && !en.Capability(e.Actor) {
		r.Denied++
		s.log.Debugf("Actor [%s] denied access to [%s] (event [%s], correlation [%s])", e.Actor.ID, en.ID(), e.ID, correlationID)
		s.reply(ctx, e, &Answer{Text: insufficientPermissionText, Options: []AnswerOption{AnswerEphemeral()}})

		return
	}

	pm := s.getOrCreatePluginMetrics(en.Plugin)

	var err error
	d := measure(func() {
		err = safeHandle(ctx, e, m)
	})

	r.Invoked++
	pm.handlerInvocations.Add(ctx, 1)
	pm.processingTimeMillis.Record(ctx, d.Milliseconds())

	if err == nil {
		return
	}

	if ue, ok := AsUserError(err); ok {
		r.UserErrors++
		s.log.Debugf("Answering [%s] to actor [%s] for [%s]: %v", ue.Text, e.Actor.ID, e.CustomID, err)
		s.reply(ctx, e, &Answer{Text: ue.Text, Options: []AnswerOption{AnswerEphemeral()}})

		return
	}

	r.Faults++
	pm.handlerFaults.Add(ctx, 1)
	s.logFault(e, en, correlationID, err)
}

// safeHandle runs the entry's handler, turning a panic into an error
func safeHandle(ctx context.Context, e *Event, m Match) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()

	return m.Entry.Handle(ctx, e, m.Args)
}

func (s *Modscot) logFault(e *Event, en *Entry, correlationID string, err error) {
	if fl, ok := s.log.(FieldLogger); ok {
		fl.Errorw("Handler fault", "customID", e.CustomID, "eventID", e.ID, "plugin", en.Plugin, "handler", en.ID(), "correlationID", correlationID, "error", err)
		return
	}

	s.log.Printf("Handler fault processing [%s] (event [%s], plugin [%s], handler [%s], correlation [%s]): %v", e.CustomID, e.ID, en.Plugin, en.ID(), correlationID, err)
}

// reply answers the actor, logging failures
func (s *Modscot) reply(ctx context.Context, e *Event, a *Answer) {
	if err := e.Reply(ctx, a); err != nil {
		s.log.Printf("Error replying to actor [%s] for event [%s]: %v", e.Actor.ID, e.ID, err)
	}
}

// Run starts processing events from the connector and loops until the connector's event channel is closed,
// the context is done or the process is interrupted. Events are processed concurrently by partition
func (s *Modscot) Run(ctx context.Context, c Connector) (err error) {
	help := s.newHelpPlugin(VERSION)
	if err = s.RegisterPlugin(&help.Plugin); err != nil {
		return err
	}

	s.registry.Freeze()

	timeLoc, err := config.GetTimeLocation(s.config)
	if err != nil {
		return err
	}

	pr, err := newPartitionRouter(s.config.GetInt(config.EventProcessingPartitionCount), s.config.GetInt(config.EventProcessingBufferedEventCount), s.log, s.instrumenter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.watchForTerminationSignalToAbort(ctx, cancel)
	go s.startActionScheduler(ctx, timeLoc)

	// Workers drain their queue on shutdown so they keep a context that isn't cancelled with the run loop
	workerCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, q := range pr.eventQueues {
		wg.Add(1)
		go func(q chan *Event) {
			defer wg.Done()

			for e := range q {
				s.process(workerCtx, e)
			}
		}(q)
	}

	s.log.Printf("[%s] running with [%d] plugins", s.name, len(s.plugins))

	events := c.Events()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case e, ok := <-events:
			if !ok {
				s.log.Printf("Connector closed its event stream, terminating")
				break loop
			}

			if s.seen(ctx, e) {
				continue
			}

			pr.routeEvent(e)
		}
	}

	pr.close()
	wg.Wait()

	return nil
}

// watchForTerminationSignalToAbort waits for a SIGTERM or SIGINT and cancels the run loop's context to
// terminate cleanly. Note that this is meant to run in a go routine given that this is blocking
func (s *Modscot) watchForTerminationSignalToAbort(ctx context.Context, cancel context.CancelFunc) {
	tSignals := make(chan os.Signal, 1)
	signal.Notify(tSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(tSignals)

	select {
	case sig := <-tSignals:
		s.log.Debugf("Received termination signal [%s], terminating event processing", sig)
		cancel()
	case <-ctx.Done():
	}
}

// startActionScheduler creates all ScheduledActionDefinition from all plugins and registers them with the scheduler.
// The scheduler stops once the context is done
func (s *Modscot) startActionScheduler(ctx context.Context, timeLoc *time.Location) {
	gocron.ChangeLoc(timeLoc)
	sc := gocron.NewScheduler()

	jobs := 0
	for _, p := range s.plugins {
		for _, sa := range p.ScheduledActions {
			j, err := schedule.NewJob(sc, sa.Schedule)
			if err != nil {
				s.log.Printf("Error scheduling action [%s] of plugin [%s]: %v", sa, p.Name, err)
				continue
			}

			s.log.Debugf("Adding job [%s] of plugin [%s] to scheduler", sa.Schedule, p.Name)
			pluginName, action := p.Name, sa.Action
			j.Do(func() {
				s.runScheduledAction(ctx, pluginName, action)
			})
			jobs++
		}
	}

	if jobs == 0 {
		return
	}

	_, t := sc.NextRun()
	s.log.Debugf("Starting scheduler with first job scheduled at [%s]", t)

	stopped := sc.Start()
	<-ctx.Done()
	stopped <- true
}

// runScheduledAction runs a scheduled action, logging any panic instead of crashing the scheduler
func (s *Modscot) runScheduledAction(ctx context.Context, pluginName string, action ScheduledAction) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Printf("Scheduled action of plugin [%s] panicked: %v", pluginName, rec)
		}
	}()

	action(ctx)
}
