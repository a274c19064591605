package model

// Duration bounds in seconds. The upper bound is the largest value the
// mm:ss clock can show.
const (
	DefaultDurationSeconds = 90
	MinDurationSeconds     = 1
	MaxDurationSeconds     = 99*60 + 59
)

// DefaultLanguage is used when neither the settings file nor the system
// locale yield a supported language.
const DefaultLanguage = "en"

// Settings contains the persisted user preferences consumed by the timer.
type Settings struct {
	DurationSeconds  int
	Language         string
	SoundEnabled     bool
	VibrationEnabled bool
	Volume           float64
}

// DefaultSettings returns the settings used on first launch.
func DefaultSettings() Settings {
	return Settings{
		DurationSeconds:  DefaultDurationSeconds,
		Language:         DefaultLanguage,
		SoundEnabled:     true,
		VibrationEnabled: true,
		Volume:           0.8,
	}
}

// ClampDuration limits seconds to the supported duration range.
func ClampDuration(seconds int) int {
	if seconds < MinDurationSeconds {
		return MinDurationSeconds
	}
	if seconds > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return seconds
}

// Normalized returns a copy with out-of-range values replaced by defaults.
func (settings Settings) Normalized() Settings {
	defaults := DefaultSettings()
	if settings.DurationSeconds <= 0 {
		settings.DurationSeconds = defaults.DurationSeconds
	}
	settings.DurationSeconds = ClampDuration(settings.DurationSeconds)
	if settings.Language == "" {
		settings.Language = defaults.Language
	}
	if settings.Volume < 0 || settings.Volume > 1 {
		settings.Volume = defaults.Volume
	}
	return settings
}
