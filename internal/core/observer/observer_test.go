package observer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resttimer/internal/core/link"
	"resttimer/internal/core/model"
)

const waitTimeout = 2 * time.Second

type countingFeedback struct {
	plays chan model.Settings
	err   error
}

func newCountingFeedback() *countingFeedback {
	return &countingFeedback{plays: make(chan model.Settings, 8)}
}

func (feedback *countingFeedback) Play(ctx context.Context, settings model.Settings) error {
	feedback.plays <- settings
	return feedback.err
}

type fixture struct {
	t        *testing.T
	channel  *link.Channel
	observer *Observer
	feedback *countingFeedback
	updates  <-chan Update
}

func newFixture(t *testing.T, fallback time.Duration) *fixture {
	t.Helper()
	channel := link.New(8)
	feedback := newCountingFeedback()
	settings := model.DefaultSettings()
	obs := New(channel, settings, feedback, Options{CooldownFallback: fallback})
	updates := obs.Subscribe(32)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = obs.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		channel.Close()
	})

	f := &fixture{t: t, channel: channel, observer: obs, feedback: feedback, updates: updates}
	assert.Equal(t, link.CommandGetState, f.command().Name)
	return f
}

func (f *fixture) command() link.Message {
	f.t.Helper()
	select {
	case msg := <-f.channel.Commands():
		return msg
	case <-time.After(waitTimeout):
		f.t.Fatal("timed out waiting for command")
	}
	return link.Message{}
}

func (f *fixture) update() Update {
	f.t.Helper()
	select {
	case update := <-f.updates:
		return update
	case <-time.After(waitTimeout):
		f.t.Fatal("timed out waiting for update")
	}
	return Update{}
}

func (f *fixture) sync(phase model.Phase, total, remaining int) model.TimerState {
	f.t.Helper()
	f.channel.Publish(link.StateSync(model.TimerState{
		Phase: phase, TotalSeconds: total, RemainingSeconds: remaining,
	}, time.Now()))
	update := f.update()
	require.Equal(f.t, UpdateState, update.Kind)
	return update.View.State
}

func TestMirrorsStateSync(t *testing.T) {
	f := newFixture(t, time.Minute)

	state := f.sync(model.PhaseRunning, 90, 42)
	assert.Equal(t, model.TimerState{Phase: model.PhaseRunning, TotalSeconds: 90, RemainingSeconds: 42}, state)
	assert.Equal(t, state, f.observer.Snapshot().State)
	assert.False(t, f.observer.Snapshot().UpdatedAt.IsZero())
}

func TestMalformedStateSync(t *testing.T) {
	f := newFixture(t, time.Minute)

	f.channel.Publish(link.Message{Name: link.EventStateSync, Data: map[string]any{
		link.KeyRemainingSeconds: 10,
		link.KeyTotalSeconds:     20,
	}})
	f.channel.Publish(link.Message{Name: link.EventStateSync, Data: map[string]any{
		link.KeyStatus: "sleeping",
	}})
	f.channel.Publish(link.Message{Name: link.EventStateSync, Data: map[string]any{
		link.KeyStatus: "paused",
	}})

	update := f.update()
	assert.Equal(t, model.TimerState{
		Phase:            model.PhasePaused,
		TotalSeconds:     model.DefaultDurationSeconds,
		RemainingSeconds: model.DefaultDurationSeconds,
	}, update.View.State)

	f.channel.Publish(link.Message{Name: link.EventStateSync, Data: map[string]any{
		link.KeyStatus:           "running",
		link.KeyTotalSeconds:     30.0,
		link.KeyRemainingSeconds: 75.0,
	}})
	update = f.update()
	assert.Equal(t, 30, update.View.State.RemainingSeconds)
	assert.True(t, update.View.State.Valid())
}

func TestCooldownTransitionPlaysFeedbackOnce(t *testing.T) {
	f := newFixture(t, time.Minute)

	f.sync(model.PhaseRunning, 5, 1)
	f.sync(model.PhaseCooldown, 5, 5)
	f.sync(model.PhaseCooldown, 5, 5)

	select {
	case settings := <-f.feedback.plays:
		assert.True(t, settings.SoundEnabled)
	case <-time.After(waitTimeout):
		t.Fatal("feedback not played")
	}
	select {
	case <-f.feedback.plays:
		t.Fatal("feedback replayed for a repeated cooldown")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCooldownFallbackMovesToReady(t *testing.T) {
	f := newFixture(t, 40*time.Millisecond)

	f.sync(model.PhaseCooldown, 12, 12)
	update := f.update()
	assert.Equal(t, UpdateState, update.Kind)
	assert.Equal(t, model.TimerState{Phase: model.PhaseReady, TotalSeconds: 12, RemainingSeconds: 12}, update.View.State)
}

func TestEngineReadyCancelsFallback(t *testing.T) {
	f := newFixture(t, 40*time.Millisecond)

	f.sync(model.PhaseCooldown, 12, 12)
	f.sync(model.PhaseReady, 12, 12)
	f.sync(model.PhaseRunning, 12, 12)

	select {
	case update := <-f.updates:
		t.Fatalf("unexpected update after fallback was cancelled: %+v", update)
	case <-time.After(120 * time.Millisecond):
	}
	assert.Equal(t, model.PhaseRunning, f.observer.Snapshot().State.Phase)
}

func TestCommandsGoThroughLink(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, f.observer.Start(ctx))
	msg := f.command()
	assert.Equal(t, link.CommandStart, msg.Name)
	total, _ := msg.Int(link.KeyTotal)
	assert.Equal(t, model.DefaultDurationSeconds, total)

	require.NoError(t, f.observer.Pause(ctx))
	assert.Equal(t, link.CommandPause, f.command().Name)
	require.NoError(t, f.observer.Resume(ctx))
	assert.Equal(t, link.CommandResume, f.command().Name)
	require.NoError(t, f.observer.Reset(ctx))
	assert.Equal(t, link.CommandStop, f.command().Name)
	require.NoError(t, f.observer.Refresh(ctx))
	assert.Equal(t, link.CommandGetState, f.command().Name)

	require.NoError(t, f.observer.SetLanguage(ctx, "de"))
	msg = f.command()
	code, _ := msg.String(link.KeyCode)
	assert.Equal(t, "de", code)
	assert.Equal(t, "de", f.observer.Snapshot().Settings.Language)

	assert.Error(t, f.observer.SetLanguage(ctx, ""))
	assert.Error(t, f.observer.UpdateDuration(ctx, 0))
}

func TestStartUsesMirroredTotal(t *testing.T) {
	f := newFixture(t, time.Minute)

	// Another surface changed the duration; the settings here are stale.
	f.sync(model.PhaseReady, 45, 45)
	require.NoError(t, f.observer.Start(context.Background()))

	msg := f.command()
	assert.Equal(t, link.CommandStart, msg.Name)
	total, _ := msg.Int(link.KeyTotal)
	remaining, _ := msg.Int(link.KeyRemaining)
	assert.Equal(t, 45, total)
	assert.Equal(t, 45, remaining)
	assert.Equal(t, model.DefaultDurationSeconds, f.observer.Snapshot().Settings.DurationSeconds)
}

func TestOptimisticDurationOnlyWhileReady(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, f.observer.UpdateDuration(ctx, 45))
	update := f.update()
	assert.Equal(t, model.TimerState{Phase: model.PhaseReady, TotalSeconds: 45, RemainingSeconds: 45}, update.View.State)
	seconds, _ := f.command().Int(link.KeySeconds)
	assert.Equal(t, 45, seconds)

	f.sync(model.PhaseRunning, 45, 30)
	require.NoError(t, f.observer.UpdateDuration(ctx, 120))
	f.command()
	view := f.observer.Snapshot()
	assert.Equal(t, model.TimerState{Phase: model.PhaseRunning, TotalSeconds: 45, RemainingSeconds: 30}, view.State)
	assert.Equal(t, 120, view.Settings.DurationSeconds)
}

func TestUpdateSettingsForwardsChanges(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	settings := f.observer.Snapshot().Settings
	settings.SoundEnabled = false
	require.NoError(t, f.observer.UpdateSettings(ctx, settings))
	assert.False(t, f.observer.Snapshot().Settings.SoundEnabled)

	settings.DurationSeconds = 30
	settings.Language = "fr"
	require.NoError(t, f.observer.UpdateSettings(ctx, settings))
	assert.Equal(t, link.CommandUpdateDuration, f.command().Name)
	assert.Equal(t, link.CommandSetLanguage, f.command().Name)
}

func TestEventsUpdateView(t *testing.T) {
	f := newFixture(t, time.Minute)

	f.channel.Publish(link.TimerComplete())
	update := f.update()
	assert.Equal(t, UpdateComplete, update.Kind)
	assert.Equal(t, 1, update.View.Completions)

	f.channel.Publish(link.ActionFromNotification("pause", 12))
	update = f.update()
	assert.Equal(t, UpdateAction, update.Kind)
	assert.Equal(t, "pause", update.View.LastAction)

	f.channel.Publish(link.ServiceError(errors.New("notifications blocked")))
	update = f.update()
	assert.Equal(t, UpdateError, update.Kind)
	assert.Contains(t, update.View.Error, "notifications blocked")

	f.observer.ReportError(nil)
	update = f.update()
	assert.Empty(t, update.View.Error)
}

func TestRunEndsWhenLinkCloses(t *testing.T) {
	channel := link.New(4)
	obs := New(channel, model.DefaultSettings(), nil, Options{})
	updates := obs.Subscribe(1)

	errs := make(chan error, 1)
	go func() { errs <- obs.Run(context.Background()) }()
	<-channel.Commands()
	channel.Close()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, link.ErrClosed)
	case <-time.After(waitTimeout):
		t.Fatal("Run did not return")
	}
	_, open := <-updates
	assert.False(t, open)
}
