// Package assertanswer holds testify assertions on the answers returned by handlers. Every
// assertion fails on a nil answer
package assertanswer

import (
	"testing"

	"github.com/alexandre-normand/modscot"
	"github.com/stretchr/testify/assert"
)

// ResolvedAnswerOption is an answer option once applied, as a key/value pair
type ResolvedAnswerOption struct {
	Key   string
	Value string
}

func present(t *testing.T, answer *modscot.Answer) bool {
	return assert.NotNil(t, answer, "Expected an answer but got none")
}

func HasText(t *testing.T, answer *modscot.Answer, text string) bool {
	return present(t, answer) && assert.Equalf(t, text, answer.Text, "Unexpected answer text [%s]", answer.Text)
}

func HasTextContaining(t *testing.T, answer *modscot.Answer, subString string) bool {
	return present(t, answer) && assert.Containsf(t, answer.Text, subString, "Answer text [%s] lacks [%s]", answer.Text, subString)
}

// IsEphemeral asserts that only the actor sees the answer
func IsEphemeral(t *testing.T, answer *modscot.Answer) bool {
	return present(t, answer) && assert.Truef(t, answer.IsEphemeral(), "Answer [%s] should be ephemeral", answer.Text)
}

// HasButton asserts that one of the answer's buttons carries customID
func HasButton(t *testing.T, answer *modscot.Answer, customID string) bool {
	if !present(t, answer) {
		return false
	}

	_, ok := findButton(answer, customID)
	return assert.Truef(t, ok, "No button [%s] among %v", customID, buttonIDs(answer))
}

// HasStyledButton asserts that the button carrying customID has the given style
func HasStyledButton(t *testing.T, answer *modscot.Answer, customID string, style modscot.ButtonStyle) bool {
	if !HasButton(t, answer, customID) {
		return false
	}

	b, _ := findButton(answer, customID)
	return assert.Equalf(t, style, b.Style, "Button [%s] has style [%s]", customID, b.Style)
}

// HasOptions asserts that the applied answer options are exactly options, in any order
func HasOptions(t *testing.T, answer *modscot.Answer, options ...ResolvedAnswerOption) bool {
	if !present(t, answer) {
		return false
	}

	resolved := make([]ResolvedAnswerOption, 0, len(answer.Options))
	for k, v := range modscot.ApplyAnswerOpts(answer.Options...) {
		resolved = append(resolved, ResolvedAnswerOption{Key: k, Value: v})
	}

	return assert.ElementsMatchf(t, options, resolved, "Answer options are %v", resolved)
}

func findButton(answer *modscot.Answer, customID string) (modscot.Button, bool) {
	for _, b := range answer.Buttons {
		if b.CustomID == customID {
			return b, true
		}
	}

	return modscot.Button{}, false
}

func buttonIDs(answer *modscot.Answer) []string {
	ids := make([]string, 0, len(answer.Buttons))
	for _, b := range answer.Buttons {
		ids = append(ids, b.CustomID)
	}

	return ids
}
