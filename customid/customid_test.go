package customid_test

import (
	"fmt"
	"testing"

	"github.com/alexandre-normand/modscot/customid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := map[string]struct {
		namespace string
		subID     string
		expected  string
	}{
		"NamespaceOnly":          {namespace: "support", subID: "", expected: "support"},
		"NamespaceAndSubID":      {namespace: "support", subID: "close", expected: "support:close"},
		"EscapedSubID":           {namespace: "sus", subID: "-messages:delete", expected: "messages:delete"},
		"EscapedEmpty":           {namespace: "sus", subID: "-", expected: ""},
		"EmptyNamespaceAndSubID": {namespace: "", subID: "", expected: ""},
		"EmptyNamespaceWithSub":  {namespace: "", subID: "create", expected: "create"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, customid.Build(tc.namespace, tc.subID))
		})
	}
}

func TestMatches(t *testing.T) {
	tests := map[string]struct {
		candidate string
		namespace string
		subID     string
		expected  bool
	}{
		"Exact":                   {candidate: "support:create", namespace: "support", subID: "create", expected: true},
		"WithTail":                {candidate: "support:close:12", namespace: "support", subID: "close", expected: true},
		"NamespaceOnlyWithTail":   {candidate: "support:close:12", namespace: "support", expected: true},
		"DifferentSubID":          {candidate: "support:close:12", namespace: "support", subID: "remove", expected: false},
		"NotSegmentAligned":       {candidate: "foobar", namespace: "foo", expected: false},
		"NotSegmentAlignedSubID":  {candidate: "support:closed", namespace: "support", subID: "close", expected: false},
		"ShorterCandidate":        {candidate: "support", namespace: "support", subID: "close", expected: false},
		"EmptyCandidateEmptyReg":  {candidate: "", namespace: "sus", subID: "-", expected: true},
		"EmptyCandidateNamespace": {candidate: "", namespace: "sus", expected: false},
		"NonEmptyEmptyReg":        {candidate: "support:create", namespace: "sus", subID: "-", expected: false},
		"EscapedCrossNamespace":   {candidate: "messages:delete:1:2", namespace: "sus", subID: "-messages:delete", expected: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, customid.Matches(tc.candidate, tc.namespace, tc.subID))
		})
	}
}

func TestTail(t *testing.T) {
	tests := map[string]struct {
		candidate string
		namespace string
		subID     string
		expected  []string
	}{
		"NoTail":          {candidate: "support:create", namespace: "support", subID: "create", expected: []string{}},
		"OneArg":          {candidate: "support:close:12", namespace: "support", subID: "close", expected: []string{"12"}},
		"TwoArgs":         {candidate: "messages:delete:123:456", namespace: "messages", subID: "delete", expected: []string{"123", "456"}},
		"EmptySegments":   {candidate: "support:close::12:", namespace: "support", subID: "close", expected: []string{"12"}},
		"NamespaceOnly":   {candidate: "support:close:12", namespace: "support", expected: []string{"close", "12"}},
		"NoMatch":         {candidate: "foobar:1", namespace: "foo", expected: nil},
		"EscapedFullyQID": {candidate: "messages:delete:1:2", namespace: "sus", subID: "-messages:delete", expected: []string{"1", "2"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, customid.Tail(tc.candidate, tc.namespace, tc.subID))
		})
	}
}

func TestBuildThenTailRoundTrip(t *testing.T) {
	namespaces := []string{"support", "sus", "messages", "a"}
	subIDs := []string{"", "close", "self-assign", "x"}
	tails := [][2]string{{"1", "2"}, {"abc", "def"}, {"123456789", "ticket"}}

	for _, n := range namespaces {
		for _, s := range subIDs {
			for _, tl := range tails {
				candidate := fmt.Sprintf("%s:%s:%s", customid.Build(n, s), tl[0], tl[1])

				assert.True(t, customid.Matches(candidate, n, s), "[%s] should match [%s/%s]", candidate, n, s)
				assert.Equal(t, []string{tl[0], tl[1]}, customid.Tail(candidate, n, s))
			}
		}
	}
}

func TestAppend(t *testing.T) {
	id, err := customid.Append(customid.Build("support", "close"), "42")
	require.NoError(t, err)
	assert.Equal(t, "support:close:42", id)

	id, err = customid.Append("messages:delete", "100", "200")
	require.NoError(t, err)
	assert.Equal(t, "messages:delete:100:200", id)
}

func TestAppendRejectsSeparator(t *testing.T) {
	_, err := customid.Append("members:kick", "1", "reason: spam")

	require.Error(t, err)
	assert.ErrorIs(t, err, customid.ErrSeparatorInSegment)
	assert.EqualError(t, err, "segment [reason: spam]: identifier segment must not contain [:]")
}
