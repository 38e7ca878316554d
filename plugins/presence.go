package plugins

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/actions"
	"github.com/alexandre-normand/modscot/config"
	"github.com/alexandre-normand/modscot/plugin"
	"github.com/alexandre-normand/modscot/schedule"
	"github.com/spf13/cast"
)

// Configuration keys
const (
	presencesKey    = "presences"
	cycleMinutesKey = "cycleMinutes"
)

const (
	// PresencePluginName holds the identifying name of the presence plugin
	PresencePluginName = "presence"

	defaultCycleMinutes = 2
)

// Presence holds the plugin data for the presence plugin. It rotates the bot's presence through
// the configured presences
type Presence struct {
	modscot.Plugin

	presences []modscot.Presence

	mu   sync.Mutex
	next int
}

// NewPresence creates a new instance of the presence plugin. Its configuration holds a list of
// presences (each with a status, activityType, activityName and optional url) and the number of
// minutes each presence is shown
func NewPresence(c *config.PluginConfig) (p *Presence, err error) {
	c.SetDefault(cycleMinutesKey, defaultCycleMinutes)

	if !c.IsSet(presencesKey) {
		return nil, fmt.Errorf("Missing [%s] configuration key for plugin [%s]", presencesKey, PresencePluginName)
	}

	p = new(Presence)
	if p.presences, err = parsePresences(c.Get(presencesKey)); err != nil {
		return nil, err
	}

	if len(p.presences) == 0 {
		return nil, fmt.Errorf("No presences configured for plugin [%s]", PresencePluginName)
	}

	minutes, err := cast.ToUint64E(c.Get(cycleMinutesKey))
	if err != nil || minutes == 0 {
		return nil, fmt.Errorf("Invalid [%s] value [%v] for plugin [%s]", cycleMinutesKey, c.Get(cycleMinutesKey), PresencePluginName)
	}

	p.Plugin = *plugin.New(PresencePluginName).
		WithScheduledAction(actions.NewScheduledAction().
			WithSchedule(schedule.New().WithInterval(minutes, schedule.Minutes).Build()).
			WithDescriptionf("Cycle through %d presences", len(p.presences)).
			WithAction(p.cycle).
			Build()).
		Build()

	return p, nil
}

func parsePresences(raw interface{}) (presences []modscot.Presence, err error) {
	entries, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid [%s] value for plugin [%s]: %v", presencesKey, PresencePluginName, err)
	}

	presences = make([]modscot.Presence, 0, len(entries))
	for i, entry := range entries {
		values, err := cast.ToStringMapStringE(entry)
		if err != nil {
			return nil, fmt.Errorf("Invalid presence at index [%d] for plugin [%s]: %v", i, PresencePluginName, err)
		}

		// Keys are case insensitive like every other configuration key
		fields := make(map[string]string, len(values))
		for k, v := range values {
			fields[strings.ToLower(k)] = v
		}

		presences = append(presences, modscot.Presence{
			Status:       fields["status"],
			ActivityType: fields["activitytype"],
			ActivityName: fields["activityname"],
			URL:          fields["url"],
		})
	}

	return presences, nil
}

// cycle sets the next presence
func (p *Presence) cycle(ctx context.Context) {
	p.mu.Lock()
	presence := p.presences[p.next]
	p.next = (p.next + 1) % len(p.presences)
	p.mu.Unlock()

	if err := p.Platform.SetPresence(ctx, presence); err != nil {
		p.Logger.Printf("Error setting presence [%s]: %v", presence.ActivityName, err)
	}
}
