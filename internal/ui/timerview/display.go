// Package timerview draws the rest timer window from observer snapshots.
package timerview

import (
	"resttimer/internal/core/model"
	"resttimer/internal/core/observer"
	"resttimer/internal/notification"
)

// Primary is the action behind the main button.
type Primary string

const (
	PrimaryStart  Primary = "start"
	PrimaryPause  Primary = "pause"
	PrimaryResume Primary = "resume"
)

// Display is the text and button state derived from a view.
type Display struct {
	Clock       string
	Phase       string
	Progress    float64
	Primary     Primary
	PrimaryText string
	ResetText   string
	ResetActive bool
	Error       string
	RetryText   string
}

// Describe maps a snapshot to what the window shows. It has no side effects.
func Describe(view observer.View, translator notification.Translator) Display {
	lang := view.Settings.Language
	text := func(id string, data map[string]any) string {
		return translator.Text(lang, id, data)
	}
	state := view.State

	display := Display{
		Clock:     notification.FormatClock(state.RemainingSeconds),
		ResetText: text("ButtonReset", nil),
		RetryText: text("ButtonRetry", nil),
	}
	if state.TotalSeconds > 0 {
		display.Progress = 1 - float64(state.RemainingSeconds)/float64(state.TotalSeconds)
	}

	switch state.Phase {
	case model.PhaseRunning:
		display.Phase = text("PhaseRunning", nil)
		display.Primary = PrimaryPause
		display.PrimaryText = text("ActionPause", nil)
		display.ResetActive = true
	case model.PhasePaused:
		display.Phase = text("PhasePaused", nil)
		display.Primary = PrimaryResume
		display.PrimaryText = text("ActionResume", nil)
		display.ResetActive = true
	case model.PhaseCooldown:
		display.Phase = text("PhaseCooldown", nil)
		display.Clock = notification.FormatClock(0)
		display.Progress = 1
		display.Primary = PrimaryStart
		display.PrimaryText = text("ActionRestart", nil)
		display.ResetActive = true
	default:
		display.Phase = text("PhaseReady", nil)
		display.Progress = 0
		display.Primary = PrimaryStart
		display.PrimaryText = text("ActionStart", nil)
	}

	if view.Error != "" {
		display.Error = text("ServiceError", map[string]any{"Error": view.Error})
	}
	return display
}
