package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexandre-normand/modscot"
)

// MemberInfoFinder is a modscot.MemberInfoFinder serving a fixed set of members and counting lookups
type MemberInfoFinder struct {
	sync.Mutex

	Members map[string]modscot.MemberInfo
	Lookups int
}

// NewMemberInfoFinder returns a finder serving the given members
func NewMemberInfoFinder(members ...modscot.MemberInfo) (f *MemberInfoFinder) {
	f = new(MemberInfoFinder)
	f.Members = make(map[string]modscot.MemberInfo)
	for _, m := range members {
		f.Members[m.ID] = m
	}

	return f
}

// GetMemberInfo implements modscot.MemberInfoFinder
func (f *MemberInfoFinder) GetMemberInfo(ctx context.Context, communityID string, memberID string) (m *modscot.MemberInfo, err error) {
	f.Lock()
	defer f.Unlock()

	f.Lookups++

	info, ok := f.Members[memberID]
	if !ok {
		return nil, fmt.Errorf("Member [%s] not found", memberID)
	}

	return &info, nil
}

// Connector is a modscot.Connector replaying a fixed list of events and closing its stream afterwards
type Connector struct {
	events chan *modscot.Event
}

// NewConnector returns a connector delivering the events in order
func NewConnector(events ...*modscot.Event) (c *Connector) {
	c = new(Connector)
	c.events = make(chan *modscot.Event, len(events))
	for _, e := range events {
		c.events <- e
	}
	close(c.events)

	return c
}

// Events implements modscot.Connector
func (c *Connector) Events() <-chan *modscot.Event {
	return c.events
}
