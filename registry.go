package modscot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alexandre-normand/modscot/customid"
)

// Handler processes an event routed to it. args holds the identifier segments following the
// handler's registered prefix
type Handler func(ctx context.Context, e *Event, args []string) (err error)

// Entry is a registered handler. Entries are immutable once registered
type Entry struct {
	Plugin     string
	Namespace  string
	SubID      string
	Kinds      []Kind
	Capability Capability
	Handle     Handler
}

// ID returns the identifier prefix the entry answers to
func (en *Entry) ID() string {
	return customid.Build(en.Namespace, en.SubID)
}

// accepts returns true if the entry's kind filter accepts the kind. An empty filter accepts all kinds
func (en *Entry) accepts(k Kind) bool {
	return acceptsKind(en.Kinds, k)
}

// Match is an entry matching a candidate identifier along with the identifier's tail segments
type Match struct {
	Entry *Entry
	Args  []string
}

// Registry maps identifier prefixes to the ordered list of handlers registered for them. It is
// populated before the bot runs and frozen afterwards
type Registry struct {
	mu      sync.RWMutex
	entries []*Entry
	frozen  bool
}

// NewRegistry creates a new empty registry
func NewRegistry() (r *Registry) {
	return new(Registry)
}

// Register appends a handler entry for plugin-less registrations. Registration order is invocation order
func (r *Registry) Register(namespace string, subID string, capability Capability, handle Handler, kinds ...Kind) (err error) {
	return r.add(&Entry{Namespace: namespace, SubID: subID, Capability: capability, Handle: handle, Kinds: kinds})
}

// RegisterPlugin registers every handler definition of a plugin under the plugin's namespace
func (r *Registry) RegisterPlugin(p *Plugin) (err error) {
	for _, hd := range p.HandlerDefinitions {
		err = r.add(&Entry{Plugin: p.Name, Namespace: p.Namespace, SubID: hd.SubID, Kinds: hd.Kinds, Capability: hd.Capability, Handle: hd.Handle})
		if err != nil {
			return fmt.Errorf("Error registering handler [%s] of plugin [%s]: %w", customid.Build(p.Namespace, hd.SubID), p.Name, err)
		}
	}

	return nil
}

func (r *Registry) add(en *Entry) (err error) {
	if en.Namespace == "" && !strings.HasPrefix(en.SubID, customid.EscapeMarker) {
		return ErrEmptyNamespace
	}

	if en.Handle == nil {
		return fmt.Errorf("Missing handler function for [%s]", en.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}

	r.entries = append(r.entries, en)

	return nil
}

// Freeze prevents further registrations
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen = true
}

// Lookup returns every entry matching the candidate identifier, in registration order
func (r *Registry) Lookup(candidate string) (matches []Match) {
	return r.lookup(candidate, func(en *Entry) bool { return true })
}

// LookupKind returns every entry matching the candidate identifier and accepting the event kind, in
// registration order
func (r *Registry) LookupKind(candidate string, k Kind) (matches []Match) {
	return r.lookup(candidate, func(en *Entry) bool { return en.accepts(k) })
}

func (r *Registry) lookup(candidate string, accept func(en *Entry) bool) (matches []Match) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, en := range r.entries {
		if !accept(en) {
			continue
		}

		if args := customid.Tail(candidate, en.Namespace, en.SubID); args != nil {
			matches = append(matches, Match{Entry: en, Args: args})
		}
	}

	return matches
}

// Entries returns a copy of the registered entries in registration order
func (r *Registry) Entries() (entries []*Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries = make([]*Entry, len(r.entries))
	copy(entries, r.entries)

	return entries
}
