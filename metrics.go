package modscot

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/api/key"
	"go.opentelemetry.io/otel/api/metric"
)

var eventKinds = []Kind{KindCommand, KindButton, KindFormSubmit, KindMessageCreate, KindMessageUpdate, KindMessageDelete, KindMemberUpdate}

// instrumenter holds data for core instrumentation
type instrumenter struct {
	appName       string
	coreMetrics   coreMetrics
	pluginMetrics map[string]pluginMetrics
	meter         metric.Meter
	sync.Mutex
}

// coreMetrics holds core modscot metrics
type coreMetrics struct {
	eventsSeen                   metric.BoundInt64Counter
	eventsDuplicate              metric.BoundInt64Counter
	eventsProcessed              map[Kind]metric.BoundInt64Counter
	eventProcessingLatencyMillis map[Kind]metric.BoundInt64Measure
	eventDispatchLatencyMillis   metric.BoundInt64Measure
}

// pluginMetrics holds metrics specific to a plugin
type pluginMetrics struct {
	processingTimeMillis metric.BoundInt64Measure
	handlerInvocations   metric.BoundInt64Counter
	handlerFaults        metric.BoundInt64Counter
}

// newInstrumenter creates a new core instrumenter
func newInstrumenter(appName string, meter metric.Meter) (ins *instrumenter) {
	ins = new(instrumenter)

	defaultLabels := meter.Labels(key.New("name").String(appName))

	eventsSeen := meter.NewInt64Counter("eventsSeen", metric.WithKeys(key.New("name")))
	eventsDuplicate := meter.NewInt64Counter("eventsDuplicate", metric.WithKeys(key.New("name")))
	dispatchLatency := meter.NewInt64Measure("eventDispatchLatencyMillis", metric.WithKeys(key.New("name")))
	ins.coreMetrics = coreMetrics{eventsSeen: eventsSeen.Bind(defaultLabels),
		eventsDuplicate:              eventsDuplicate.Bind(defaultLabels),
		eventsProcessed:              newBoundCounterByKind("eventsProcessed", appName, meter),
		eventProcessingLatencyMillis: newBoundMeasureByKind("eventProcessingLatencyMillis", appName, meter),
		eventDispatchLatencyMillis:   dispatchLatency.Bind(defaultLabels)}

	ins.appName = appName
	ins.pluginMetrics = make(map[string]pluginMetrics)

	ins.meter = meter
	return ins
}

// newBoundCounterByKind creates a set of BoundInt64Counter by event kind
func newBoundCounterByKind(counterName string, appName string, meter metric.Meter) (boundCounter map[Kind]metric.BoundInt64Counter) {
	boundCounter = make(map[Kind]metric.BoundInt64Counter)

	c := meter.NewInt64Counter(counterName, metric.WithKeys(key.New("name"), key.New("kind")))
	for _, k := range eventKinds {
		boundCounter[k] = c.Bind(meter.Labels(key.New("name").String(appName), key.New("kind").String(string(k))))
	}

	return boundCounter
}

// newBoundMeasureByKind creates a set of BoundInt64Measure by event kind
func newBoundMeasureByKind(measureName string, appName string, meter metric.Meter) (boundMeasure map[Kind]metric.BoundInt64Measure) {
	boundMeasure = make(map[Kind]metric.BoundInt64Measure)

	m := meter.NewInt64Measure(measureName, metric.WithKeys(key.New("name"), key.New("kind")))
	for _, k := range eventKinds {
		boundMeasure[k] = m.Bind(meter.Labels(key.New("name").String(appName), key.New("kind").String(string(k))))
	}

	return boundMeasure
}

// getOrCreatePluginMetrics returns an existing pluginMetrics for a plugin or creates a new one, if necessary
func (ins *instrumenter) getOrCreatePluginMetrics(pluginName string) (pm pluginMetrics) {
	ins.Lock()
	defer ins.Unlock()

	if pm, ok := ins.pluginMetrics[pluginName]; ok {
		return pm
	}

	pm = newPluginMetrics(ins.appName, pluginName, ins.meter)
	ins.pluginMetrics[pluginName] = pm

	return pm
}

// newPluginMetrics returns a new pluginMetrics instance for a plugin
func newPluginMetrics(appName string, pluginName string, meter metric.Meter) (pm pluginMetrics) {
	labels := meter.Labels(key.New("name").String(appName), key.New("plugin").String(pluginName))

	i := meter.NewInt64Counter("handlerInvocations", metric.WithKeys(key.New("name"), key.New("plugin")))
	f := meter.NewInt64Counter("handlerFaults", metric.WithKeys(key.New("name"), key.New("plugin")))
	m := meter.NewInt64Measure("processingTimeMillis", metric.WithKeys(key.New("name"), key.New("plugin")))

	pm.handlerInvocations = i.Bind(labels)
	pm.handlerFaults = f.Bind(labels)
	pm.processingTimeMillis = m.Bind(labels)

	return pm
}

type timed func()

// measure returns the execution duration of a timed function
func measure(operation timed) (d time.Duration) {
	before := time.Now()

	operation()

	return time.Since(before)
}
