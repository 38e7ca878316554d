package modscot

import (
	"context"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/api/key"
	"go.opentelemetry.io/otel/api/metric"
)

var platformMethods = []string{"CreateChannel", "FindChildChannel", "ChannelExists", "DeleteChannel", "SetChannelAccess",
	"ClearChannelAccess", "CreateThread", "SetThreadArchived", "SendMessage", "EditMessage", "DeleteMessage",
	"FirstMessageID", "SetPresence"}

// PlatformWithTelemetry implements Platform interface with all methods wrapped
// with open telemetry metrics
type PlatformWithTelemetry struct {
	base Platform
	methodTelemetry
}

// methodTelemetry holds call, error and timing metrics bound per method of a decorated interface
type methodTelemetry struct {
	methodCounters     map[string]metric.BoundInt64Counter
	errCounters        map[string]metric.BoundInt64Counter
	methodTimeMeasures map[string]metric.BoundInt64Measure
}

// NewPlatformWithTelemetry returns an instance of the Platform decorated with open telemetry timing and count metrics
func NewPlatformWithTelemetry(base Platform, name string, meter metric.Meter) PlatformWithTelemetry {
	return PlatformWithTelemetry{base: base, methodTelemetry: newMethodTelemetry("Platform", platformMethods, name, meter)}
}

func newMethodTelemetry(iface string, methods []string, appName string, meter metric.Meter) (mt methodTelemetry) {
	mt.methodCounters = make(map[string]metric.BoundInt64Counter)
	mt.errCounters = make(map[string]metric.BoundInt64Counter)
	mt.methodTimeMeasures = make(map[string]metric.BoundInt64Measure)

	labels := meter.Labels(key.New("name").String(appName))
	for _, m := range methods {
		calls := meter.NewInt64Counter(metricName(iface, m, "Calls"), metric.WithKeys(key.New("name")))
		errs := meter.NewInt64Counter(metricName(iface, m, "Errors"), metric.WithKeys(key.New("name")))
		timing := meter.NewInt64Measure(metricName(iface, m, "ProcessingTimeMillis"), metric.WithKeys(key.New("name")))

		mt.methodCounters[m] = calls.Bind(labels)
		mt.errCounters[m] = errs.Bind(labels)
		mt.methodTimeMeasures[m] = timing.Bind(labels)
	}

	return mt
}

// metricName returns the lower camel case metric name of a method
func metricName(iface string, method string, suffix string) string {
	n := []rune(iface + "_" + method + "_" + suffix)
	n[0] = unicode.ToLower(n[0])

	return string(n)
}

// record counts a call to method, its error if any and its duration since the call started
func (mt methodTelemetry) record(method string, since time.Time, err error) {
	if err != nil {
		errCounter := mt.errCounters[method]
		errCounter.Add(context.Background(), 1)
	}

	methodCounter := mt.methodCounters[method]
	methodCounter.Add(context.Background(), 1)

	methodTimeMeasure := mt.methodTimeMeasures[method]
	methodTimeMeasure.Record(context.Background(), time.Since(since).Milliseconds())
}

// CreateChannel implements Platform
func (_d PlatformWithTelemetry) CreateChannel(ctx context.Context, spec ChannelSpec) (channelID string, err error) {
	defer func(_since time.Time) { _d.record("CreateChannel", _since, err) }(time.Now())
	return _d.base.CreateChannel(ctx, spec)
}

// FindChildChannel implements Platform
func (_d PlatformWithTelemetry) FindChildChannel(ctx context.Context, parentID string, name string) (channelID string, found bool, err error) {
	defer func(_since time.Time) { _d.record("FindChildChannel", _since, err) }(time.Now())
	return _d.base.FindChildChannel(ctx, parentID, name)
}

// ChannelExists implements Platform
func (_d PlatformWithTelemetry) ChannelExists(ctx context.Context, channelID string) (exists bool, err error) {
	defer func(_since time.Time) { _d.record("ChannelExists", _since, err) }(time.Now())
	return _d.base.ChannelExists(ctx, channelID)
}

// DeleteChannel implements Platform
func (_d PlatformWithTelemetry) DeleteChannel(ctx context.Context, channelID string) (err error) {
	defer func(_since time.Time) { _d.record("DeleteChannel", _since, err) }(time.Now())
	return _d.base.DeleteChannel(ctx, channelID)
}

// SetChannelAccess implements Platform
func (_d PlatformWithTelemetry) SetChannelAccess(ctx context.Context, channelID string, p Principal, a Access) (err error) {
	defer func(_since time.Time) { _d.record("SetChannelAccess", _since, err) }(time.Now())
	return _d.base.SetChannelAccess(ctx, channelID, p, a)
}

// ClearChannelAccess implements Platform
func (_d PlatformWithTelemetry) ClearChannelAccess(ctx context.Context, channelID string, p Principal) (err error) {
	defer func(_since time.Time) { _d.record("ClearChannelAccess", _since, err) }(time.Now())
	return _d.base.ClearChannelAccess(ctx, channelID, p)
}

// CreateThread implements Platform
func (_d PlatformWithTelemetry) CreateThread(ctx context.Context, channelID string, name string, starter string) (threadID string, err error) {
	defer func(_since time.Time) { _d.record("CreateThread", _since, err) }(time.Now())
	return _d.base.CreateThread(ctx, channelID, name, starter)
}

// SetThreadArchived implements Platform
func (_d PlatformWithTelemetry) SetThreadArchived(ctx context.Context, threadID string, archived bool) (err error) {
	defer func(_since time.Time) { _d.record("SetThreadArchived", _since, err) }(time.Now())
	return _d.base.SetThreadArchived(ctx, threadID, archived)
}

// SendMessage implements Platform
func (_d PlatformWithTelemetry) SendMessage(ctx context.Context, channelID string, m *OutgoingMessage) (messageID string, err error) {
	defer func(_since time.Time) { _d.record("SendMessage", _since, err) }(time.Now())
	return _d.base.SendMessage(ctx, channelID, m)
}

// EditMessage implements Platform
func (_d PlatformWithTelemetry) EditMessage(ctx context.Context, channelID string, messageID string, m *OutgoingMessage) (err error) {
	defer func(_since time.Time) { _d.record("EditMessage", _since, err) }(time.Now())
	return _d.base.EditMessage(ctx, channelID, messageID, m)
}

// DeleteMessage implements Platform
func (_d PlatformWithTelemetry) DeleteMessage(ctx context.Context, channelID string, messageID string) (err error) {
	defer func(_since time.Time) { _d.record("DeleteMessage", _since, err) }(time.Now())
	return _d.base.DeleteMessage(ctx, channelID, messageID)
}

// FirstMessageID implements Platform
func (_d PlatformWithTelemetry) FirstMessageID(ctx context.Context, channelID string) (messageID string, err error) {
	defer func(_since time.Time) { _d.record("FirstMessageID", _since, err) }(time.Now())
	return _d.base.FirstMessageID(ctx, channelID)
}

// SetPresence implements Platform
func (_d PlatformWithTelemetry) SetPresence(ctx context.Context, p Presence) (err error) {
	defer func(_since time.Time) { _d.record("SetPresence", _since, err) }(time.Now())
	return _d.base.SetPresence(ctx, p)
}

// MemberInfoFinderWithTelemetry implements MemberInfoFinder interface with its method wrapped
// with open telemetry metrics
type MemberInfoFinderWithTelemetry struct {
	base MemberInfoFinder
	methodTelemetry
}

// NewMemberInfoFinderWithTelemetry returns an instance of the MemberInfoFinder decorated with open telemetry timing and count metrics
func NewMemberInfoFinderWithTelemetry(base MemberInfoFinder, name string, meter metric.Meter) MemberInfoFinderWithTelemetry {
	return MemberInfoFinderWithTelemetry{base: base, methodTelemetry: newMethodTelemetry("MemberInfoFinder", []string{"GetMemberInfo"}, name, meter)}
}

// GetMemberInfo implements MemberInfoFinder
func (_d MemberInfoFinderWithTelemetry) GetMemberInfo(ctx context.Context, communityID string, memberID string) (m *MemberInfo, err error) {
	defer func(_since time.Time) { _d.record("GetMemberInfo", _since, err) }(time.Now())
	return _d.base.GetMemberInfo(ctx, communityID, memberID)
}
