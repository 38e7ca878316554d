package modscot_test

import (
	"context"
	"testing"

	"github.com/alexandre-normand/modscot"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedHandler(calls *[]string, name string) modscot.Handler {
	return func(ctx context.Context, e *modscot.Event, args []string) error {
		*calls = append(*calls, name)
		return nil
	}
}

func TestRegistryLookup(t *testing.T) {
	var calls []string

	r := modscot.NewRegistry()
	require.NoError(t, r.Register("support", "close", nil, namedHandler(&calls, "close")))
	require.NoError(t, r.Register("support", "", nil, namedHandler(&calls, "support")))
	require.NoError(t, r.Register("foo", "", nil, namedHandler(&calls, "foo")))
	require.NoError(t, r.Register("", "-", nil, namedHandler(&calls, "all")))

	tests := map[string]struct {
		candidate       string
		expectedIDs     []string
		expectedTailLen []int
	}{
		"MultiMatchInRegistrationOrder": {
			candidate:       "support:close:42",
			expectedIDs:     []string{"support:close", "support"},
			expectedTailLen: []int{1, 2},
		},
		"NamespaceOnly": {
			candidate:       "support:assign",
			expectedIDs:     []string{"support"},
			expectedTailLen: []int{1},
		},
		"SegmentBounded": {
			candidate:   "foobar",
			expectedIDs: nil,
		},
		"EmptyCandidateMatchesEscapedEmptyNamespace": {
			candidate:       "",
			expectedIDs:     []string{""},
			expectedTailLen: []int{0},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			matches := r.Lookup(tc.candidate)

			ids := make([]string, 0)
			for i, m := range matches {
				ids = append(ids, m.Entry.ID())
				assert.Len(t, m.Args, tc.expectedTailLen[i])
			}

			if tc.expectedIDs == nil {
				assert.Empty(t, matches)
			} else {
				assert.Equal(t, tc.expectedIDs, ids)
			}
		})
	}
}

func TestRegistryLookupTail(t *testing.T) {
	r := modscot.NewRegistry()
	require.NoError(t, r.Register("support", "close", nil, noopHandler))

	matches := r.Lookup("support:close:42::7")
	require.Len(t, matches, 1)
	assert.Equal(t, []string{"42", "7"}, matches[0].Args)
}

func TestRegistryLookupKind(t *testing.T) {
	r := modscot.NewRegistry()
	require.NoError(t, r.Register("support", "create", nil, noopHandler, modscot.KindButton))
	require.NoError(t, r.Register("support", "create", nil, noopHandler, modscot.KindFormSubmit))
	require.NoError(t, r.Register("support", "", nil, noopHandler))

	buttons := r.LookupKind("support:create", modscot.KindButton)
	require.Len(t, buttons, 2)
	assert.Equal(t, []modscot.Kind{modscot.KindButton}, buttons[0].Entry.Kinds)
	assert.Empty(t, buttons[1].Entry.Kinds)

	forms := r.LookupKind("support:create", modscot.KindFormSubmit)
	require.Len(t, forms, 2)
	assert.Equal(t, []modscot.Kind{modscot.KindFormSubmit}, forms[0].Entry.Kinds)

	assert.Len(t, r.LookupKind("support:create", modscot.KindCommand), 1)
}

func TestRegistryRejectsEmptyNamespace(t *testing.T) {
	r := modscot.NewRegistry()

	err := r.Register("", "close", nil, noopHandler)
	assert.True(t, errors.Is(err, modscot.ErrEmptyNamespace))

	assert.NoError(t, r.Register("", "-messages:delete", nil, noopHandler))
	assert.Len(t, r.Lookup("messages:delete:c:m"), 1)
}

func TestRegistryRejectsMissingHandler(t *testing.T) {
	r := modscot.NewRegistry()

	assert.EqualError(t, r.Register("support", "close", nil, nil), "Missing handler function for [support:close]")
}

func TestRegistryFrozen(t *testing.T) {
	r := modscot.NewRegistry()
	require.NoError(t, r.Register("support", "close", nil, noopHandler))

	r.Freeze()

	err := r.Register("support", "remove", nil, noopHandler)
	assert.True(t, errors.Is(err, modscot.ErrRegistryFrozen))
	assert.Len(t, r.Entries(), 1)
	assert.Len(t, r.Lookup("support:close:1"), 1)
}

func TestRegisterPluginUsesPluginNamespace(t *testing.T) {
	r := modscot.NewRegistry()
	p := &modscot.Plugin{Name: "sus", Namespace: "sus", HandlerDefinitions: []modscot.HandlerDefinition{
		{SubID: "add", Handle: noopHandler},
		{SubID: "-messages:delete", Handle: noopHandler},
	}}

	require.NoError(t, r.RegisterPlugin(p))

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "sus:add", entries[0].ID())
	assert.Equal(t, "sus", entries[0].Plugin)
	assert.Equal(t, "messages:delete", entries[1].ID())
}
