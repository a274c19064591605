package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resttimer/internal/core/model"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "resttimer", settingsFileName))

	assert.False(t, store.Exists())
	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "resttimer", settingsFileName))
	want := model.Settings{
		DurationSeconds:  150,
		Language:         "es",
		SoundEnabled:     false,
		VibrationEnabled: true,
		Volume:           0.25,
	}

	require.NoError(t, store.Save(want))
	assert.True(t, store.Exists())
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadIgnoresInvalidFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	raw := "duration_seconds: 99999\nlanguage: de\nvolume: 3.5\nsound_enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	settings, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDurationSeconds, settings.DurationSeconds)
	assert.Equal(t, "de", settings.Language)
	assert.Equal(t, 0.8, settings.Volume)
	assert.False(t, settings.SoundEnabled)
	assert.True(t, settings.VibrationEnabled)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("duration_seconds: [oops"), 0o644))

	settings, err := NewStore(path).Load()
	require.Error(t, err)
	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestWatchReportsExternalEdits(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), settingsFileName))
	require.NoError(t, store.Save(model.DefaultSettings()))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan model.Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, nil, func(settings model.Settings) { changes <- settings })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	edited := model.DefaultSettings()
	edited.DurationSeconds = 42
	require.NoError(t, store.Save(edited))

	select {
	case settings := <-changes:
		assert.Equal(t, 42, settings.DurationSeconds)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	require.NoError(t, <-done)
}
