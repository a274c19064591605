package timerview

import (
	"context"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"resttimer/internal/core/observer"
	"resttimer/internal/logger"
	"resttimer/internal/notification"
)

// Controller is the part of the observer the window drives.
type Controller interface {
	Start(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Reset(ctx context.Context) error
	Snapshot() observer.View
}

// Callbacks are window actions handled by main.
type Callbacks struct {
	OnSettings func()
	OnRetry    func()
}

// Window is the main timer window.
type Window struct {
	window     fyne.Window
	controller Controller
	translator notification.Translator
	callbacks  Callbacks
	log        *logger.Logger

	clock      *canvas.Text
	phase      *widget.Label
	progress   *widget.ProgressBar
	primary    *widget.Button
	reset      *widget.Button
	settings   *widget.Button
	errorLabel *widget.Label
	retry      *widget.Button
	errorBox   *fyne.Container

	current Display
}

// New creates the timer window. Nothing is shown until Show.
func New(app fyne.App, controller Controller, translator notification.Translator, callbacks Callbacks, log *logger.Logger) *Window {
	if log == nil {
		log = logger.Discard()
	}
	window := app.NewWindow(translator.Text(controller.Snapshot().Settings.Language, "NotificationTitle", nil))
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	clock := canvas.NewText("--:--", color.NRGBA{R: 46, G: 157, B: 91, A: 255})
	clock.Alignment = fyne.TextAlignCenter
	clock.TextStyle = fyne.TextStyle{Monospace: true}
	clock.TextSize = 56

	view := &Window{
		window:     window,
		controller: controller,
		translator: translator,
		callbacks:  callbacks,
		log:        log,
		clock:      clock,
		phase:      widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{}),
		progress:   widget.NewProgressBar(),
		primary:    widget.NewButton("", nil),
		reset:      widget.NewButton("", nil),
		settings:   widget.NewButton("", nil),
		errorLabel: widget.NewLabel(""),
		retry:      widget.NewButton("", nil),
	}
	view.progress.TextFormatter = func() string { return "" }
	view.errorLabel.Wrapping = fyne.TextWrapWord
	view.errorBox = container.NewVBox(view.errorLabel, view.retry)
	view.errorBox.Hide()

	view.primary.Importance = widget.HighImportance
	view.primary.OnTapped = view.handlePrimary
	view.reset.OnTapped = func() { view.command("reset", controller.Reset) }
	view.settings.OnTapped = func() {
		if callbacks.OnSettings != nil {
			callbacks.OnSettings()
		}
	}
	view.retry.OnTapped = func() {
		if callbacks.OnRetry != nil {
			callbacks.OnRetry()
		}
	}

	buttons := container.NewHBox(layout.NewSpacer(), view.primary, view.reset, view.settings, layout.NewSpacer())
	window.SetContent(container.NewVBox(
		clock,
		view.phase,
		view.progress,
		buttons,
		view.errorBox,
	))
	window.Resize(fyne.NewSize(340, 260))
	window.SetCloseIntercept(window.Hide)

	view.renderUnsafe(controller.Snapshot())
	return view
}

// Window exposes the underlying fyne window.
func (view *Window) Window() fyne.Window {
	return view.window
}

// Show displays the window.
func (view *Window) Show() {
	view.window.Show()
	view.window.RequestFocus()
}

// Follow redraws on every observer update until updates closes.
func (view *Window) Follow(updates <-chan observer.Update) {
	go func() {
		for update := range updates {
			snapshot := update.View
			fyne.Do(func() {
				view.renderUnsafe(snapshot)
			})
		}
	}()
}

// Render redraws from a snapshot.
func (view *Window) Render(snapshot observer.View) {
	fyne.Do(func() {
		view.renderUnsafe(snapshot)
	})
}

func (view *Window) renderUnsafe(snapshot observer.View) {
	display := Describe(snapshot, view.translator)
	view.current = display

	view.window.SetTitle(view.translator.Text(snapshot.Settings.Language, "NotificationTitle", nil))
	view.clock.Text = display.Clock
	view.clock.Refresh()
	view.phase.SetText(display.Phase)
	view.progress.SetValue(display.Progress)
	view.primary.SetText(display.PrimaryText)
	view.reset.SetText(display.ResetText)
	if display.ResetActive {
		view.reset.Enable()
	} else {
		view.reset.Disable()
	}
	view.settings.SetText(view.translator.Text(snapshot.Settings.Language, "ButtonSettings", nil))

	if display.Error != "" {
		view.errorLabel.SetText(display.Error)
		view.retry.SetText(display.RetryText)
		view.errorBox.Show()
	} else {
		view.errorBox.Hide()
	}
}

func (view *Window) handlePrimary() {
	switch view.current.Primary {
	case PrimaryPause:
		view.command("pause", view.controller.Pause)
	case PrimaryResume:
		view.command("resume", view.controller.Resume)
	default:
		view.command("start", view.controller.Start)
	}
}

// command runs off the fyne thread so a full queue never stalls the UI.
func (view *Window) command(name string, send func(context.Context) error) {
	go func() {
		if err := send(context.Background()); err != nil {
			view.log.Warn("%s: %v", name, err)
		}
	}()
}
