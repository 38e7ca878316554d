package capture

import (
	"context"
	"sync"

	"github.com/alexandre-normand/modscot"
)

// Responder is a modscot.Responder recording answers and forms
type Responder struct {
	sync.Mutex

	Answers []*modscot.Answer
	Forms   []*modscot.Form

	// Err is returned by Reply and ShowForm, if set
	Err error
}

// NewResponder returns a new recording responder
func NewResponder() (r *Responder) {
	r = new(Responder)
	r.Answers = make([]*modscot.Answer, 0)
	r.Forms = make([]*modscot.Form, 0)

	return r
}

// Reply implements modscot.Responder
func (r *Responder) Reply(ctx context.Context, a *modscot.Answer) error {
	r.Lock()
	defer r.Unlock()

	r.Answers = append(r.Answers, a)

	return r.Err
}

// ShowForm implements modscot.Responder
func (r *Responder) ShowForm(ctx context.Context, f *modscot.Form) error {
	r.Lock()
	defer r.Unlock()

	r.Forms = append(r.Forms, f)

	return r.Err
}

// LastAnswer returns the last recorded answer or nil if none was recorded
func (r *Responder) LastAnswer() *modscot.Answer {
	r.Lock()
	defer r.Unlock()

	if len(r.Answers) == 0 {
		return nil
	}

	return r.Answers[len(r.Answers)-1]
}

// LastForm returns the last recorded form or nil if none was recorded
func (r *Responder) LastForm() *modscot.Form {
	r.Lock()
	defer r.Unlock()

	if len(r.Forms) == 0 {
		return nil
	}

	return r.Forms[len(r.Forms)-1]
}
