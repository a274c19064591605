package preferences

import (
	"strconv"
	"strings"

	"resttimer/internal/core/model"
)

// Form holds the raw widget values before validation.
type Form struct {
	Duration  string
	Language  string
	Sound     bool
	Vibration bool
	Volume    float64
}

// FormFromSettings fills the form for display.
func FormFromSettings(settings model.Settings) Form {
	return Form{
		Duration:  strconv.Itoa(settings.DurationSeconds),
		Language:  settings.Language,
		Sound:     settings.SoundEnabled,
		Vibration: settings.VibrationEnabled,
		Volume:    settings.Volume,
	}
}

// Apply returns base updated with the form. Fields that do not parse keep
// the value from base.
func (form Form) Apply(base model.Settings) model.Settings {
	settings := base
	if seconds, ok := parseDuration(form.Duration); ok {
		settings.DurationSeconds = seconds
	}
	if form.Language != "" {
		settings.Language = form.Language
	}
	settings.SoundEnabled = form.Sound
	settings.VibrationEnabled = form.Vibration
	if form.Volume >= 0 && form.Volume <= 1 {
		settings.Volume = form.Volume
	}
	return settings
}

// parseDuration accepts plain seconds ("90") or a clock ("1:30").
func parseDuration(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if minutes, seconds, found := strings.Cut(value, ":"); found {
		m, err := strconv.Atoi(minutes)
		if err != nil || m < 0 {
			return 0, false
		}
		s, err := strconv.Atoi(seconds)
		if err != nil || s < 0 || s > 59 {
			return 0, false
		}
		value = strconv.Itoa(m*60 + s)
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < model.MinDurationSeconds || parsed > model.MaxDurationSeconds {
		return 0, false
	}
	return parsed, true
}
