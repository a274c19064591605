package tray

import (
	"context"
	"sync"

	"fyne.io/systray"

	"resttimer/internal/notification"
)

// actionSlots is the most buttons any notification kind carries.
const actionSlots = 2

// Native draws the notification with the platform tray directly, for the
// headless binary that has no fyne app.
type Native struct {
	translator notification.Translator
	onQuit     func()
	icon       func(kind string) []byte
	chrono     *chronometer

	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	handler func(notification.Action)
	current notification.Notification
	status  *systray.MenuItem
	slots   [actionSlots]*systray.MenuItem
	actions [actionSlots]notification.Action
	quit    *systray.MenuItem
}

// NewNative creates a native tray backend. icon may be nil.
func NewNative(translator notification.Translator, icon func(kind string) []byte, onQuit func()) *Native {
	return &Native{
		translator: translator,
		onQuit:     onQuit,
		icon:       icon,
		chrono:     newChronometer(nil),
		ready:      make(chan struct{}),
	}
}

// Run blocks on the tray event loop; call it from main. onReady runs once
// the tray exists.
func (native *Native) Run(onReady func()) {
	systray.Run(func() {
		native.build()
		native.readyOnce.Do(func() { close(native.ready) })
		if onReady != nil {
			onReady()
		}
	}, func() {
		native.chrono.Stop()
	})
}

// Quit ends Run.
func (native *Native) Quit() {
	systray.Quit()
}

// Prepare waits for the tray to come up.
func (native *Native) Prepare(ctx context.Context) error {
	select {
	case <-native.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetActionHandler receives timer button presses.
func (native *Native) SetActionHandler(handler func(notification.Action)) {
	native.mu.Lock()
	native.handler = handler
	native.mu.Unlock()
}

// Post updates the tray title, tooltip and action items.
func (native *Native) Post(ctx context.Context, n notification.Notification) error {
	if err := native.Prepare(ctx); err != nil {
		return err
	}

	native.chrono.Stop()
	native.mu.Lock()
	native.current = n
	for i, slot := range native.slots {
		if i < len(n.Buttons) {
			native.actions[i] = n.Buttons[i].Action
			slot.SetTitle(n.Buttons[i].Label)
			slot.Show()
		} else {
			native.actions[i] = ""
			slot.Hide()
		}
	}
	native.quit.SetTitle(native.translator.Text(n.Language, "MenuQuit", nil))
	native.mu.Unlock()

	if native.icon != nil {
		if data := native.icon(string(n.Kind)); len(data) > 0 {
			systray.SetIcon(data)
		}
	}
	native.showBody(n, n.Body)

	if n.Chronometer && !n.EndsAt.IsZero() {
		native.chrono.Start(n.EndsAt, n.Tick, func(seconds int) {
			native.mu.Lock()
			stale := !native.current.EndsAt.Equal(n.EndsAt)
			native.mu.Unlock()
			if stale {
				return
			}
			native.showBody(n, native.translator.Text(n.Language, "RunningBody", map[string]any{
				"Clock": notification.FormatClock(seconds),
			}))
		})
	}
	return nil
}

func (native *Native) showBody(n notification.Notification, body string) {
	systray.SetTitle(body)
	systray.SetTooltip(n.Title + ": " + body)
	native.status.SetTitle(body)
}

func (native *Native) build() {
	native.mu.Lock()
	defer native.mu.Unlock()

	systray.SetTitle(native.translator.Text("", "NotificationTitle", nil))
	native.status = systray.AddMenuItem("", "")
	native.status.Disable()
	for i := range native.slots {
		native.slots[i] = systray.AddMenuItem("", "")
		native.slots[i].Hide()
		go native.listen(i, native.slots[i])
	}
	systray.AddSeparator()
	native.quit = systray.AddMenuItem(native.translator.Text("", "MenuQuit", nil), "")
	go func() {
		for range native.quit.ClickedCh {
			if native.onQuit != nil {
				native.onQuit()
			}
		}
	}()
}

func (native *Native) listen(index int, item *systray.MenuItem) {
	for range item.ClickedCh {
		native.mu.Lock()
		action := native.actions[index]
		handler := native.handler
		native.mu.Unlock()
		if action != "" && handler != nil {
			handler(action)
		}
	}
}
