// Package notification renders the timer into the single persistent
// notification and turns its button presses into actions.
package notification

import (
	"context"
	"fmt"
	"time"

	"resttimer/internal/core/model"
)

// ID is the identity shared by every timer notification.
const ID = 1001

// Kind is one of the four mutually exclusive visual states.
type Kind string

const (
	KindRunning  Kind = "running"
	KindPaused   Kind = "paused"
	KindFinished Kind = "finished"
	KindReady    Kind = "ready"
)

// Action is an abstract button signal.
type Action string

const (
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionStop    Action = "stop"
	ActionStart   Action = "start"
	ActionRestart Action = "restart"
)

// ParseAction validates a wire action name.
func ParseAction(value string) (Action, bool) {
	switch Action(value) {
	case ActionPause, ActionResume, ActionStop, ActionStart, ActionRestart:
		return Action(value), true
	}
	return "", false
}

// Button is an action item shown on the notification.
type Button struct {
	Action Action
	Label  string
}

// Notification is the backend-neutral description of what to show.
type Notification struct {
	ID      int
	Kind    Kind
	Title   string
	Body    string
	Ongoing bool

	// Chronometer asks the backend to count down to EndsAt on its own,
	// without per-second updates from the engine.
	Chronometer bool
	EndsAt      time.Time
	// Tick is the length of one counted second; EndsAt is padded by one.
	Tick time.Duration

	Buttons []Button

	// Language is the code the text was resolved in, for backends that
	// add their own labels.
	Language string
}

// Frame is everything the presenter needs to derive a Notification.
type Frame struct {
	State    model.TimerState
	EndsAt   time.Time
	Tick     time.Duration
	Language string
}

// Backend writes notifications to the platform surface.
type Backend interface {
	Post(ctx context.Context, notification Notification) error
}

// ActionSource is implemented by backends that have clickable buttons.
type ActionSource interface {
	SetActionHandler(handler func(Action))
}

// Translator resolves message IDs for a language.
type Translator interface {
	Text(lang, id string, data map[string]any) string
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// KindFor maps a phase to its visual state.
func KindFor(phase model.Phase) Kind {
	switch phase {
	case model.PhaseRunning:
		return KindRunning
	case model.PhasePaused:
		return KindPaused
	case model.PhaseCooldown:
		return KindFinished
	}
	return KindReady
}

// Visual derives the notification for a frame. It has no side effects.
func Visual(frame Frame, translator Translator) Notification {
	lang := frame.Language
	state := frame.State
	text := func(id string, data map[string]any) string {
		return translator.Text(lang, id, data)
	}
	button := func(action Action, id string) Button {
		return Button{Action: action, Label: text(id, nil)}
	}

	n := Notification{
		ID:       ID,
		Kind:     KindFor(state.Phase),
		Title:    text("NotificationTitle", nil),
		Ongoing:  true,
		Language: lang,
	}

	switch n.Kind {
	case KindRunning:
		n.Body = text("RunningBody", map[string]any{"Clock": FormatClock(state.RemainingSeconds)})
		n.Chronometer = true
		n.EndsAt = frame.EndsAt
		n.Tick = frame.Tick
		n.Buttons = []Button{button(ActionPause, "ActionPause"), button(ActionStop, "ActionStop")}
	case KindPaused:
		n.Body = text("PausedBody", map[string]any{"Clock": FormatClock(state.RemainingSeconds)})
		n.Buttons = []Button{button(ActionResume, "ActionResume"), button(ActionStop, "ActionStop")}
	case KindFinished:
		n.Body = text("FinishedBody", nil)
		n.Buttons = []Button{button(ActionStart, "ActionStart")}
	default:
		n.Body = text("ReadyBody", map[string]any{"Clock": FormatClock(state.TotalSeconds)})
		n.Buttons = []Button{button(ActionStart, "ActionStart")}
	}
	return n
}
