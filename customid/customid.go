// Package customid builds and parses the colon-delimited hierarchical identifiers attached to
// interactive components (buttons, forms, commands). An identifier looks like
// namespace:action:arg1:arg2 where the namespace identifies a handler group, the action (or sub-id)
// narrows it to a specific handler and everything after that is free-form positional arguments.
//
// Matching is always segment-bounded: a registration for "foo" matches "foo" and "foo:bar" but
// never "foobar".
package customid

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// Separator delimits identifier segments
	Separator = ":"

	// EscapeMarker prefixes a sub-id that is already fully qualified. Such a sub-id is used
	// verbatim (minus the marker) instead of being prefixed with the namespace
	EscapeMarker = "-"
)

// ErrSeparatorInSegment is returned when a segment passed to Append contains the separator
var ErrSeparatorInSegment = errors.New("identifier segment must not contain [" + Separator + "]")

// Build returns the identifier for a namespace and optional sub-id:
//   - namespace when subID is empty
//   - namespace:subID otherwise
//   - subID without its escape marker when subID starts with the escape marker
func Build(namespace string, subID string) string {
	if strings.HasPrefix(subID, EscapeMarker) {
		return strings.TrimPrefix(subID, EscapeMarker)
	}

	if subID == "" {
		return namespace
	}

	if namespace == "" {
		return subID
	}

	return namespace + Separator + subID
}

// Matches returns true if candidate is exactly the identifier built from namespace and subID or
// if it extends it with more segments
func Matches(candidate string, namespace string, subID string) bool {
	prefix := Build(namespace, subID)

	return candidate == prefix || strings.HasPrefix(candidate, prefix+Separator)
}

// Tail returns the segments of candidate found after the identifier built from namespace and subID.
// Empty segments are discarded. If candidate doesn't match, nil is returned
func Tail(candidate string, namespace string, subID string) (tail []string) {
	if !Matches(candidate, namespace, subID) {
		return nil
	}

	prefix := Build(namespace, subID)
	rest := strings.TrimPrefix(candidate, prefix)

	tail = make([]string, 0)
	for _, s := range strings.Split(rest, Separator) {
		if s != "" {
			tail = append(tail, s)
		}
	}

	return tail
}

// Append returns id extended with the given argument segments. An error is returned if any of the
// segments contains the separator since that would shift the positional arguments seen by the handler
func Append(id string, args ...string) (string, error) {
	var b strings.Builder
	b.WriteString(id)

	for _, a := range args {
		if strings.Contains(a, Separator) {
			return "", errors.Wrapf(ErrSeparatorInSegment, "segment [%s]", a)
		}

		b.WriteString(Separator)
		b.WriteString(a)
	}

	return b.String(), nil
}
