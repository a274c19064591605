// Package observer mirrors the engine's timer state for the UI. It never
// counts down itself; the only timing it owns is the cooldown fallback.
package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resttimer/internal/core/link"
	"resttimer/internal/core/model"
	"resttimer/internal/logger"
)

// Feedback plays the completion cue.
type Feedback interface {
	Play(ctx context.Context, settings model.Settings) error
}

// Options contains runtime options for the Observer.
type Options struct {
	CooldownFallback time.Duration
	SendTimeout      time.Duration
	EventBuffer      int
	Now              func() time.Time
	Logger           *logger.Logger
}

func (options Options) withDefaults() Options {
	if options.CooldownFallback <= 0 {
		options.CooldownFallback = 3 * time.Second
	}
	if options.SendTimeout <= 0 {
		options.SendTimeout = time.Second
	}
	if options.EventBuffer <= 0 {
		options.EventBuffer = 64
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Logger == nil {
		options.Logger = logger.Discard()
	}
	return options
}

// UpdateKind tells subscribers what changed.
type UpdateKind string

const (
	UpdateState    UpdateKind = "state"
	UpdateComplete UpdateKind = "complete"
	UpdateAction   UpdateKind = "action"
	UpdateError    UpdateKind = "error"
)

// View is the UI-facing snapshot.
type View struct {
	State       model.TimerState
	Settings    model.Settings
	UpdatedAt   time.Time
	LastAction  string
	Completions int
	Error       string
}

// Update is delivered to subscribers on every change.
type Update struct {
	Kind UpdateKind
	View View
}

// Observer follows stateSync events and issues UI commands.
type Observer struct {
	channel  *link.Channel
	feedback Feedback
	options  Options
	log      *logger.Logger

	mu          sync.Mutex
	view        View
	runCtx      context.Context
	fallback    *time.Timer
	fallbackGen uint64
	subscribers []chan Update
}

// New creates an Observer showing a ready timer for the persisted settings.
func New(channel *link.Channel, settings model.Settings, feedback Feedback, options Options) *Observer {
	options = options.withDefaults()
	settings = settings.Normalized()
	return &Observer{
		channel:  channel,
		feedback: feedback,
		options:  options,
		log:      options.Logger,
		view: View{
			State:    model.NewTimerState(settings.DurationSeconds),
			Settings: settings,
		},
		runCtx: context.Background(),
	}
}

// Run consumes engine events until ctx is done or the link closes. It asks
// for the current state first so a late attach catches up.
func (observer *Observer) Run(ctx context.Context) error {
	events := observer.channel.Subscribe(observer.options.EventBuffer)
	defer observer.channel.Unsubscribe(events)

	observer.mu.Lock()
	observer.runCtx = ctx
	observer.mu.Unlock()
	defer observer.closeSubscribers()
	defer observer.stopFallback()

	if err := observer.Refresh(ctx); err != nil {
		observer.log.Warn("request initial state: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-events:
			if !ok {
				return link.ErrClosed
			}
			observer.handle(msg)
		}
	}
}

// Subscribe registers a new update channel. Updates are dropped when the
// channel is full; Snapshot always has the latest view.
func (observer *Observer) Subscribe(buffer int) <-chan Update {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Update, buffer)
	observer.mu.Lock()
	observer.subscribers = append(observer.subscribers, ch)
	observer.mu.Unlock()
	return ch
}

// Snapshot returns the current view.
func (observer *Observer) Snapshot() View {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	return observer.view
}

// Start begins a countdown over the total the engine last reported, which
// already reflects duration changes made from any other surface.
func (observer *Observer) Start(ctx context.Context) error {
	observer.mu.Lock()
	total := observer.view.State.TotalSeconds
	if total <= 0 {
		total = observer.view.Settings.DurationSeconds
	}
	observer.mu.Unlock()
	return observer.send(ctx, link.Start(total, total))
}

// Pause pauses a running countdown.
func (observer *Observer) Pause(ctx context.Context) error {
	return observer.send(ctx, link.Pause())
}

// Resume continues a paused countdown.
func (observer *Observer) Resume(ctx context.Context) error {
	return observer.send(ctx, link.Resume())
}

// Reset stops the countdown and returns to ready.
func (observer *Observer) Reset(ctx context.Context) error {
	return observer.send(ctx, link.Stop())
}

// Refresh asks the engine to re-broadcast its state.
func (observer *Observer) Refresh(ctx context.Context) error {
	return observer.send(ctx, link.GetState())
}

// UpdateDuration stores a new default duration. A ready mirror shows it
// immediately; otherwise the display waits for the engine.
func (observer *Observer) UpdateDuration(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("update duration: %d seconds is not positive", seconds)
	}
	seconds = model.ClampDuration(seconds)

	observer.mu.Lock()
	observer.view.Settings.DurationSeconds = seconds
	if observer.view.State.Phase == model.PhaseReady {
		observer.view.State = model.NewTimerState(seconds)
		observer.emitLocked(UpdateState)
	}
	observer.mu.Unlock()

	return observer.send(ctx, link.UpdateDuration(seconds))
}

// SetLanguage switches the notification language.
func (observer *Observer) SetLanguage(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("set language: empty code")
	}
	observer.mu.Lock()
	observer.view.Settings.Language = code
	observer.mu.Unlock()
	return observer.send(ctx, link.SetLanguage(code))
}

// UpdateSettings applies settings edited elsewhere, forwarding only the
// fields the engine cares about when they changed.
func (observer *Observer) UpdateSettings(ctx context.Context, settings model.Settings) error {
	settings = settings.Normalized()

	observer.mu.Lock()
	previous := observer.view.Settings
	observer.view.Settings.SoundEnabled = settings.SoundEnabled
	observer.view.Settings.VibrationEnabled = settings.VibrationEnabled
	observer.view.Settings.Volume = settings.Volume
	observer.mu.Unlock()

	if settings.DurationSeconds != previous.DurationSeconds {
		if err := observer.UpdateDuration(ctx, settings.DurationSeconds); err != nil {
			return err
		}
	}
	if settings.Language != previous.Language {
		if err := observer.SetLanguage(ctx, settings.Language); err != nil {
			return err
		}
	}
	return nil
}

// ReportError shows err in the UI. A nil error clears it.
func (observer *Observer) ReportError(err error) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	if err == nil {
		observer.view.Error = ""
	} else {
		observer.view.Error = err.Error()
	}
	observer.emitLocked(UpdateError)
}

func (observer *Observer) send(ctx context.Context, msg link.Message) error {
	ctx, cancel := context.WithTimeout(ctx, observer.options.SendTimeout)
	defer cancel()
	if err := observer.channel.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Name, err)
	}
	return nil
}

func (observer *Observer) handle(msg link.Message) {
	switch msg.Name {
	case link.EventStateSync:
		observer.applyState(msg)
	case link.EventTimerComplete:
		observer.mu.Lock()
		observer.view.Completions++
		observer.emitLocked(UpdateComplete)
		observer.mu.Unlock()
	case link.EventActionFromNotification:
		action, _ := msg.String(link.KeyAction)
		observer.mu.Lock()
		observer.view.LastAction = action
		observer.emitLocked(UpdateAction)
		observer.mu.Unlock()
	case link.EventServiceError:
		text, _ := msg.String(link.KeyMessage)
		if text == "" {
			text = "service error"
		}
		observer.mu.Lock()
		observer.view.Error = text
		observer.emitLocked(UpdateError)
		observer.mu.Unlock()
	}
}

// applyState copies a stateSync into the mirror. Events without a known
// status are dropped; missing numbers fall back to the configured duration.
func (observer *Observer) applyState(msg link.Message) {
	status, _ := msg.String(link.KeyStatus)
	phase, ok := model.ParsePhase(status)
	if !ok {
		observer.log.Debug("discarding stateSync with status %q", status)
		return
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()

	fallback := observer.view.Settings.DurationSeconds
	total, ok := msg.Int(link.KeyTotalSeconds)
	if !ok || total <= 0 {
		total = fallback
	}
	remaining, ok := msg.Int(link.KeyRemainingSeconds)
	if !ok {
		remaining = fallback
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > total {
		remaining = total
	}

	next := model.TimerState{Phase: phase, TotalSeconds: total, RemainingSeconds: remaining}.WithPhase(phase)
	previous := observer.view.State.Phase
	observer.view.State = next
	observer.view.UpdatedAt = observer.options.Now()

	if next.Phase == model.PhaseCooldown && previous != model.PhaseCooldown {
		observer.enterCooldownLocked()
	} else if next.Phase != model.PhaseCooldown {
		observer.stopFallbackLocked()
	}
	observer.emitLocked(UpdateState)
}

func (observer *Observer) enterCooldownLocked() {
	observer.stopFallbackLocked()
	observer.fallbackGen++
	generation := observer.fallbackGen
	observer.fallback = time.AfterFunc(observer.options.CooldownFallback, func() {
		observer.fallbackToReady(generation)
	})

	if observer.feedback == nil {
		return
	}
	ctx := observer.runCtx
	settings := observer.view.Settings
	go func() {
		if err := observer.feedback.Play(ctx, settings); err != nil {
			observer.log.Warn("play completion feedback: %v", err)
		}
	}()
}

// fallbackToReady covers a lost ready broadcast from the engine.
func (observer *Observer) fallbackToReady(generation uint64) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	if generation != observer.fallbackGen || observer.view.State.Phase != model.PhaseCooldown {
		return
	}
	observer.fallback = nil
	observer.view.State = observer.view.State.WithPhase(model.PhaseReady)
	observer.view.UpdatedAt = observer.options.Now()
	observer.log.Debug("cooldown fallback moved mirror to ready")
	observer.emitLocked(UpdateState)
}

func (observer *Observer) stopFallback() {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	observer.stopFallbackLocked()
}

func (observer *Observer) stopFallbackLocked() {
	if observer.fallback == nil {
		return
	}
	observer.fallback.Stop()
	observer.fallback = nil
	observer.fallbackGen++
}

func (observer *Observer) emitLocked(kind UpdateKind) {
	update := Update{Kind: kind, View: observer.view}
	for _, ch := range observer.subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}

func (observer *Observer) closeSubscribers() {
	observer.mu.Lock()
	subscribers := observer.subscribers
	observer.subscribers = nil
	observer.mu.Unlock()

	for _, ch := range subscribers {
		close(ch)
	}
}
