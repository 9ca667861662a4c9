package alexa

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Request types sent by the voice platform.
const (
	LaunchRequest       = "LaunchRequest"
	IntentRequest       = "IntentRequest"
	SessionEndedRequest = "SessionEndedRequest"
)

// Built-in intents answered without the engine.
const (
	HelpIntent   = "AMAZON.HelpIntent"
	StopIntent   = "AMAZON.StopIntent"
	CancelIntent = "AMAZON.CancelIntent"
)

// ErrMalformed is returned for envelopes that cannot be acted upon.
var ErrMalformed = errors.New("malformed request envelope")

type RequestEnvelope struct {
	Version string   `json:"version"`
	Session *Session `json:"session,omitempty"`
	Context *Context `json:"context,omitempty"`
	Request Request  `json:"request"`
}

type Session struct {
	New         bool        `json:"new"`
	SessionID   string      `json:"sessionId"`
	Application Application `json:"application"`
	User        User        `json:"user"`
}

type Context struct {
	System System `json:"System"`
}

type System struct {
	Application Application `json:"application"`
	User        User        `json:"user"`
}

type Application struct {
	ApplicationID string `json:"applicationId"`
}

type User struct {
	UserID string `json:"userId"`
}

type Request struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	Timestamp string  `json:"timestamp"`
	Locale    string  `json:"locale"`
	Reason    string  `json:"reason,omitempty"`
	Intent    *Intent `json:"intent,omitempty"`
}

type Intent struct {
	Name               string          `json:"name"`
	ConfirmationStatus string          `json:"confirmationStatus"`
	Slots              map[string]Slot `json:"slots"`
}

type Slot struct {
	Name      string     `json:"name"`
	Value     string     `json:"value"`
	SlotValue *SlotValue `json:"slotValue,omitempty"`
}

// SlotValue is either a simple value or a list of values.
type SlotValue struct {
	Type   string      `json:"type"`
	Value  string      `json:"value"`
	Values []SlotValue `json:"values"`
}

// Decode reads and checks an envelope.
func Decode(r io.Reader) (*RequestEnvelope, error) {
	var env RequestEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Request.Type {
	case LaunchRequest, SessionEndedRequest:
	case IntentRequest:
		if env.Request.Intent == nil || env.Request.Intent.Name == "" {
			return nil, fmt.Errorf("%w: intent request without an intent name", ErrMalformed)
		}
	default:
		return nil, fmt.Errorf("%w: unknown request type %q", ErrMalformed, env.Request.Type)
	}

	if env.CallerID() == "" {
		return nil, fmt.Errorf("%w: no user id", ErrMalformed)
	}
	return &env, nil
}

// CallerID returns the stable user identifier, preferring the session.
func (e *RequestEnvelope) CallerID() string {
	if e.Session != nil && e.Session.User.UserID != "" {
		return e.Session.User.UserID
	}
	if e.Context != nil {
		return e.Context.System.User.UserID
	}
	return ""
}

// ApplicationID returns the skill the request was sent to.
func (e *RequestEnvelope) ApplicationID() string {
	if e.Session != nil && e.Session.Application.ApplicationID != "" {
		return e.Session.Application.ApplicationID
	}
	if e.Context != nil {
		return e.Context.System.Application.ApplicationID
	}
	return ""
}

// SlotValues returns the non-empty slot values of the intent by slot name.
func (e *RequestEnvelope) SlotValues() map[string]string {
	values := make(map[string]string)
	if e.Request.Intent == nil {
		return values
	}
	for name, slot := range e.Request.Intent.Slots {
		if v := slot.value(); v != "" {
			values[name] = v
		}
	}
	return values
}

func (s Slot) value() string {
	if v := strings.TrimSpace(s.Value); v != "" {
		return v
	}
	if s.SlotValue == nil {
		return ""
	}
	if v := strings.TrimSpace(s.SlotValue.Value); v != "" {
		return v
	}
	for _, item := range s.SlotValue.Values {
		if v := strings.TrimSpace(item.Value); v != "" {
			return v
		}
	}
	return ""
}

type ResponseEnvelope struct {
	Version  string   `json:"version"`
	Response Response `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// Say builds a plain-text spoken response.
func Say(text string, endSession bool) ResponseEnvelope {
	return ResponseEnvelope{
		Version: "1.0",
		Response: Response{
			OutputSpeech:     &OutputSpeech{Type: "PlainText", Text: text},
			ShouldEndSession: endSession,
		},
	}
}

// Ask builds a response that keeps the session open and reprompts with the same text.
func Ask(text string) ResponseEnvelope {
	env := Say(text, false)
	env.Response.Reprompt = &Reprompt{OutputSpeech: OutputSpeech{Type: "PlainText", Text: text}}
	return env
}
