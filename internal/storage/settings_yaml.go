package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"resttimer/internal/core/model"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	DurationSeconds  int      `yaml:"duration_seconds"`
	Language         string   `yaml:"language"`
	SoundEnabled     *bool    `yaml:"sound_enabled"`
	VibrationEnabled *bool    `yaml:"vibration_enabled"`
	Volume           *float64 `yaml:"volume"`
}

// Store reads and writes the settings file.
type Store struct {
	path string
}

// NewStore creates a store for an explicit file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns <UserConfigDir>/<appName>/settings.yaml.
func DefaultPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// Path returns the settings file location.
func (store *Store) Path() string {
	return store.path
}

// Exists reports whether a settings file has been written.
func (store *Store) Exists() bool {
	_, err := os.Stat(store.path)
	return err == nil
}

// Load reads user preferences from YAML.
// If the file does not exist, default settings are returned.
func (store *Store) Load() (model.Settings, error) {
	settings := model.DefaultSettings()

	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// Save writes user preferences to YAML.
func (store *Store) Save(settings model.Settings) error {
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	settings = settings.Normalized()
	fileData := yamlSettings{
		DurationSeconds:  settings.DurationSeconds,
		Language:         settings.Language,
		SoundEnabled:     &settings.SoundEnabled,
		VibrationEnabled: &settings.VibrationEnabled,
		Volume:           &settings.Volume,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	// Write then rename so a watcher never reads a half-written file.
	tmpPath := store.path + ".tmp"
	if err := os.WriteFile(tmpPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmpPath, store.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// applyYamlSettings keeps the default for every field that is missing or
// out of range.
func applyYamlSettings(settings *model.Settings, fileData yamlSettings) {
	if fileData.DurationSeconds >= model.MinDurationSeconds && fileData.DurationSeconds <= model.MaxDurationSeconds {
		settings.DurationSeconds = fileData.DurationSeconds
	}
	if fileData.Language != "" {
		settings.Language = fileData.Language
	}
	if fileData.SoundEnabled != nil {
		settings.SoundEnabled = *fileData.SoundEnabled
	}
	if fileData.VibrationEnabled != nil {
		settings.VibrationEnabled = *fileData.VibrationEnabled
	}
	if fileData.Volume != nil && *fileData.Volume >= 0 && *fileData.Volume <= 1 {
		settings.Volume = *fileData.Volume
	}
}
