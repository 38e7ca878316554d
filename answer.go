package modscot

// ButtonStyle is the visual style of a button
type ButtonStyle string

// Button styles
const (
	ButtonPrimary ButtonStyle = "primary"
	ButtonDanger  ButtonStyle = "danger"
	ButtonSuccess ButtonStyle = "success"
)

// Button is an interactive component whose click is delivered as a KindButton event carrying CustomID
type Button struct {
	Label    string
	Style    ButtonStyle
	CustomID string
	Disabled bool
}

// Field is a named value of an Embed
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich block of content attached to a message
type Embed struct {
	Title       string
	Description string
	URL         string
	Fields      []Field
}

// OutgoingMessage is a message sent or edited by the bot
type OutgoingMessage struct {
	Content string
	Embeds  []Embed
	Buttons []Button
}

// Answer holds data of a handler's reply to the actor: its text and options to use when delivering it
type Answer struct {
	Text    string
	Buttons []Button

	// Options to apply when sending the answer
	Options []AnswerOption
}

const (
	// EphemeralOpt is the name of the option marking an answer visible only to the actor
	EphemeralOpt = "ephemeral"
)

// AnswerOption defines a function applied to Answers
type AnswerOption func(sendOpts map[string]string)

// AnswerEphemeral sends the answer so only the actor sees it
func AnswerEphemeral() AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[EphemeralOpt] = "true"
	}
}

// ApplyAnswerOpts applies answering options to build the send configuration
func ApplyAnswerOpts(opts ...AnswerOption) (sendOptions map[string]string) {
	sendOptions = make(map[string]string)
	for _, opt := range opts {
		opt(sendOptions)
	}

	return sendOptions
}

// IsEphemeral returns true if the answer should only be visible to the actor
func (a *Answer) IsEphemeral() bool {
	return ApplyAnswerOpts(a.Options...)[EphemeralOpt] == "true"
}

// TextInputStyle is the style of a form input
type TextInputStyle string

// Text input styles
const (
	TextInputShort     TextInputStyle = "short"
	TextInputParagraph TextInputStyle = "paragraph"
)

// TextInput is a form input
type TextInput struct {
	CustomID    string
	Label       string
	Style       TextInputStyle
	Required    bool
	MinLength   int
	MaxLength   int
	Placeholder string
	Value       string
}

// Form is a modal form presented to an actor
type Form struct {
	CustomID string
	Title    string
	Inputs   []TextInput
}
