// Package engine owns the authoritative countdown. All timer state lives in
// a single loop goroutine; the UI reaches it only through a link.Channel.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"resttimer/internal/core/link"
	"resttimer/internal/core/model"
	"resttimer/internal/logger"
	"resttimer/internal/notification"
)

// ErrAlreadyRunning is returned by Start when the loop is already active.
var ErrAlreadyRunning = errors.New("engine already running")

var errRenderQueueFull = errors.New("render queue full")

// Renderer shows a frame on the notification surface. It may block.
type Renderer interface {
	Render(ctx context.Context, frame notification.Frame) error
}

// Preparer is implemented by renderers that need a startup check.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Options contains runtime options for the Engine.
type Options struct {
	TickInterval     time.Duration
	CooldownDuration time.Duration
	// EndPadding is added to the chronometer end time so the notification
	// clock and the first tick stay in step.
	EndPadding    time.Duration
	RenderTimeout time.Duration
	RenderQueue   int
	ActionTimeout time.Duration
	Now           func() time.Time
	Logger        *logger.Logger
}

func (options Options) withDefaults() Options {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.CooldownDuration <= 0 {
		options.CooldownDuration = 3 * time.Second
	}
	if options.EndPadding <= 0 {
		options.EndPadding = options.TickInterval
	}
	if options.RenderTimeout <= 0 {
		options.RenderTimeout = 5 * time.Second
	}
	if options.RenderQueue <= 0 {
		options.RenderQueue = 16
	}
	if options.ActionTimeout <= 0 {
		options.ActionTimeout = time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Logger == nil {
		options.Logger = logger.Discard()
	}
	return options
}

type renderJob struct {
	frame      notification.Frame
	generation uint64
	// resume marks the running render whose return schedules ticks.
	resume bool
}

type renderResult struct {
	generation uint64
	err        error
}

// Engine is the background countdown state machine.
type Engine struct {
	channel  *link.Channel
	renderer Renderer
	options  Options
	log      *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Everything below is owned by the loop goroutine.
	state      model.TimerState
	language   string
	generation uint64
	endsAt     time.Time
	ticker     *time.Ticker
	tickC      <-chan time.Time
	cooldown   *time.Timer
	cooldownC  <-chan time.Time
	renders    chan renderJob
	results    chan renderResult

	tickLoops atomic.Int32
}

// New creates an Engine seeded from the persisted settings.
func New(channel *link.Channel, renderer Renderer, settings model.Settings, options Options) *Engine {
	options = options.withDefaults()
	settings = settings.Normalized()
	return &Engine{
		channel:  channel,
		renderer: renderer,
		options:  options,
		log:      options.Logger,
		state:    model.NewTimerState(settings.DurationSeconds),
		language: settings.Language,
	}
}

// Start launches the loop. A failing Prepare is reported both as the
// returned error and as a serviceError event.
func (engine *Engine) Start(ctx context.Context) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.running {
		return ErrAlreadyRunning
	}

	if preparer, ok := engine.renderer.(Preparer); ok {
		if err := preparer.Prepare(ctx); err != nil {
			err = fmt.Errorf("prepare notification surface: %w", err)
			engine.log.Error("start failed: %v", err)
			engine.channel.Publish(link.ServiceError(err))
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	engine.running = true
	engine.cancel = cancel
	engine.done = make(chan struct{})
	engine.renders = make(chan renderJob, engine.options.RenderQueue)
	engine.results = make(chan renderResult, engine.options.RenderQueue)

	var worker sync.WaitGroup
	worker.Add(1)
	go func() {
		defer worker.Done()
		engine.renderLoop(runCtx)
	}()

	done := engine.done
	go func() {
		engine.run(runCtx)
		cancel()
		worker.Wait()
		engine.mu.Lock()
		engine.running = false
		engine.mu.Unlock()
		close(done)
	}()
	return nil
}

// Shutdown stops the loop and waits for it to exit. The timer state is
// kept, so a later Start resumes from the same snapshot: a running
// countdown keeps ticking and a cooldown is re-armed.
func (engine *Engine) Shutdown() {
	engine.mu.Lock()
	if !engine.running {
		engine.mu.Unlock()
		return
	}
	cancel := engine.cancel
	done := engine.done
	engine.mu.Unlock()

	cancel()
	<-done
}

// Done is closed when the current loop exits.
func (engine *Engine) Done() <-chan struct{} {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.done
}

// HandleAction relays a notification button press into the command queue,
// so it is handled exactly like a UI command.
func (engine *Engine) HandleAction(action notification.Action) {
	msg, ok := commandForAction(action)
	if !ok {
		engine.log.Warn("ignoring unknown notification action %q", action)
		return
	}
	msg = msg.WithSource(link.SourceNotification).With(link.KeyAction, string(action))

	ctx, cancel := context.WithTimeout(context.Background(), engine.options.ActionTimeout)
	defer cancel()
	if err := engine.channel.Send(ctx, msg); err != nil {
		engine.log.Warn("relay %s action: %v", action, err)
	}
}

func commandForAction(action notification.Action) (link.Message, bool) {
	switch action {
	case notification.ActionPause:
		return link.Pause(), true
	case notification.ActionResume:
		return link.Resume(), true
	case notification.ActionStop:
		return link.Stop(), true
	case notification.ActionStart, notification.ActionRestart:
		return link.Start(0, 0), true
	}
	return link.Message{}, false
}

func (engine *Engine) run(ctx context.Context) {
	defer engine.stopTicker()
	defer engine.stopCooldown()

	engine.log.Info("started: phase=%s total=%ds language=%s", engine.state.Phase, engine.state.TotalSeconds, engine.language)
	engine.restore()

	for {
		select {
		case <-ctx.Done():
			engine.log.Info("stopped")
			return
		case <-engine.channel.Done():
			engine.log.Info("link closed, stopping")
			return
		case msg := <-engine.channel.Commands():
			engine.handle(msg)
		case <-engine.tickC:
			engine.tick()
		case <-engine.cooldownC:
			engine.finishCooldown()
		case result := <-engine.results:
			engine.resumeAfterRender(result)
		}
	}
}

// restore publishes the snapshot a new loop starts from and re-arms the
// timers a previous loop dropped on exit.
func (engine *Engine) restore() {
	switch engine.state.Phase {
	case model.PhaseRunning:
		engine.beginCountdown(engine.state.TotalSeconds, engine.state.RemainingSeconds)
	case model.PhaseCooldown:
		engine.broadcast()
		engine.renderCurrent()
		engine.armCooldown()
	default:
		engine.broadcast()
		engine.renderCurrent()
	}
}

func (engine *Engine) handle(msg link.Message) {
	if msg.Source() == link.SourceNotification {
		action, _ := msg.String(link.KeyAction)
		engine.channel.Publish(link.ActionFromNotification(action, engine.state.RemainingSeconds))
	}
	engine.log.Debug("command %s (phase=%s remaining=%d)", msg.Name, engine.state.Phase, engine.state.RemainingSeconds)

	switch msg.Name {
	case link.CommandStart:
		total, _ := msg.Int(link.KeyTotal)
		remaining, _ := msg.Int(link.KeyRemaining)
		engine.start(total, remaining)
	case link.CommandPause:
		engine.pause()
	case link.CommandResume:
		engine.resume()
	case link.CommandStop:
		engine.stop()
	case link.CommandUpdateDuration:
		seconds, ok := msg.Int(link.KeySeconds)
		if !ok || seconds <= 0 {
			engine.log.Warn("ignoring updateDuration without a positive duration")
			return
		}
		engine.updateDuration(seconds)
	case link.CommandSetLanguage:
		code, ok := msg.String(link.KeyCode)
		if !ok || code == "" {
			engine.log.Warn("ignoring setLanguage without a language code")
			return
		}
		engine.language = code
		engine.renderCurrent()
	case link.CommandGetState:
		engine.broadcast()
	default:
		engine.log.Warn("ignoring unknown command %q", msg.Name)
	}
}

func (engine *Engine) start(total, remaining int) {
	if total <= 0 {
		total = engine.state.TotalSeconds
	}
	total = model.ClampDuration(total)
	if remaining <= 0 || remaining > total {
		remaining = total
	}
	engine.beginCountdown(total, remaining)
}

func (engine *Engine) beginCountdown(total, remaining int) {
	engine.stopTicker()
	engine.stopCooldown()

	engine.generation++
	engine.state = model.TimerState{
		Phase:            model.PhaseRunning,
		TotalSeconds:     total,
		RemainingSeconds: remaining,
	}
	engine.endsAt = engine.options.Now().
		Add(time.Duration(remaining) * engine.options.TickInterval).
		Add(engine.options.EndPadding)

	engine.broadcast()
	engine.enqueue(renderJob{
		frame:      engine.frame(),
		generation: engine.generation,
		resume:     true,
	})
}

// resumeAfterRender runs when the running notification has been posted. A
// newer countdown or a pause/stop issued during the render makes it a no-op.
func (engine *Engine) resumeAfterRender(result renderResult) {
	if result.generation != engine.generation {
		engine.log.Debug("discarding stale countdown generation %d (current %d)", result.generation, engine.generation)
		return
	}
	if engine.state.Phase != model.PhaseRunning || engine.tickC != nil {
		engine.log.Debug("countdown generation %d no longer needs ticks (phase=%s)", result.generation, engine.state.Phase)
		return
	}
	engine.ticker = time.NewTicker(engine.options.TickInterval)
	engine.tickC = engine.ticker.C
	engine.tickLoops.Add(1)
}

func (engine *Engine) tick() {
	if engine.state.Phase != model.PhaseRunning {
		return
	}
	if engine.state.RemainingSeconds > 1 {
		engine.state.RemainingSeconds--
		engine.broadcast()
		return
	}

	engine.stopTicker()
	engine.state = engine.state.WithPhase(model.PhaseCooldown)
	engine.broadcast()
	engine.channel.Publish(link.TimerComplete())
	engine.enqueue(renderJob{frame: engine.frame()})
	engine.armCooldown()
	engine.log.Info("countdown complete (total=%ds)", engine.state.TotalSeconds)
}

func (engine *Engine) armCooldown() {
	engine.stopCooldown()
	engine.cooldown = time.NewTimer(engine.options.CooldownDuration)
	engine.cooldownC = engine.cooldown.C
}

func (engine *Engine) finishCooldown() {
	engine.stopCooldown()
	if engine.state.Phase != model.PhaseCooldown {
		return
	}
	engine.state = engine.state.WithPhase(model.PhaseReady)
	engine.broadcast()
	engine.enqueue(renderJob{frame: engine.frame()})
}

func (engine *Engine) pause() {
	if engine.state.Phase != model.PhaseRunning {
		engine.log.Debug("ignoring pause in phase %s", engine.state.Phase)
		return
	}
	engine.stopTicker()
	engine.state.Phase = model.PhasePaused
	engine.broadcast()
	engine.enqueue(renderJob{frame: engine.frame()})
}

func (engine *Engine) resume() {
	if engine.state.Phase != model.PhasePaused {
		engine.log.Debug("ignoring resume in phase %s", engine.state.Phase)
		return
	}
	engine.beginCountdown(engine.state.TotalSeconds, engine.state.RemainingSeconds)
}

func (engine *Engine) stop() {
	engine.stopTicker()
	engine.stopCooldown()
	engine.state = engine.state.WithPhase(model.PhaseReady)
	engine.broadcast()
	engine.enqueue(renderJob{frame: engine.frame()})
}

// updateDuration changes the configured total. Only a ready timer follows
// the new value; a running or paused countdown keeps its remaining time
// unless it would exceed the new total.
func (engine *Engine) updateDuration(seconds int) {
	seconds = model.ClampDuration(seconds)
	engine.state.TotalSeconds = seconds

	switch engine.state.Phase {
	case model.PhaseReady:
		engine.state.RemainingSeconds = seconds
		engine.broadcast()
		engine.enqueue(renderJob{frame: engine.frame()})
		return
	case model.PhaseCooldown:
		engine.state.RemainingSeconds = seconds
	default:
		if engine.state.RemainingSeconds > seconds {
			engine.state.RemainingSeconds = seconds
		}
	}
	engine.broadcast()
}

func (engine *Engine) renderCurrent() {
	engine.enqueue(renderJob{frame: engine.frame()})
}

func (engine *Engine) frame() notification.Frame {
	frame := notification.Frame{
		State:    engine.state,
		Language: engine.language,
	}
	if engine.state.Phase == model.PhaseRunning {
		frame.EndsAt = engine.endsAt
		frame.Tick = engine.options.TickInterval
	}
	return frame
}

func (engine *Engine) broadcast() {
	engine.channel.Publish(link.StateSync(engine.state, engine.options.Now()))
}

// enqueue hands a frame to the render worker. When the queue is full the
// frame is dropped and treated as a failed render so the countdown still
// proceeds.
func (engine *Engine) enqueue(job renderJob) {
	select {
	case engine.renders <- job:
	default:
		engine.log.Warn("render %s notification: %v", notification.KindFor(job.frame.State.Phase), errRenderQueueFull)
		if job.resume {
			engine.resumeAfterRender(renderResult{generation: job.generation, err: errRenderQueueFull})
		}
	}
}

// renderLoop serialises every write to the notification surface in the
// order the loop issued them.
func (engine *Engine) renderLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-engine.renders:
			renderCtx, cancel := context.WithTimeout(ctx, engine.options.RenderTimeout)
			err := engine.renderer.Render(renderCtx, job.frame)
			cancel()
			if err != nil {
				engine.log.Warn("render %s notification: %v", notification.KindFor(job.frame.State.Phase), err)
			}
			if !job.resume {
				continue
			}
			select {
			case engine.results <- renderResult{generation: job.generation, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (engine *Engine) stopTicker() {
	if engine.ticker == nil {
		return
	}
	engine.ticker.Stop()
	engine.ticker = nil
	engine.tickC = nil
	engine.tickLoops.Add(-1)
}

func (engine *Engine) stopCooldown() {
	if engine.cooldown == nil {
		return
	}
	engine.cooldown.Stop()
	engine.cooldown = nil
	engine.cooldownC = nil
}
