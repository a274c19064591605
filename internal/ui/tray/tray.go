package tray

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"resttimer/internal/notification"
	"resttimer/resources"
)

// ErrTrayUnsupported indicates the running driver has no system tray.
var ErrTrayUnsupported = errors.New("system tray unsupported")

// Callbacks defines tray menu handlers outside the timer buttons.
type Callbacks struct {
	OnShow        func()
	OnPreferences func()
	OnQuit        func()
}

// Manager shows the rest timer notification in the fyne system tray.
type Manager struct {
	app        fyne.App
	desk       desktop.App
	translator notification.Translator
	callbacks  Callbacks
	chrono     *chronometer

	mu      sync.Mutex
	handler func(notification.Action)
	current notification.Notification
}

// New creates a tray manager for app. Prepare reports whether the driver
// actually supports a tray.
func New(app fyne.App, translator notification.Translator, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:        app,
		translator: translator,
		callbacks:  callbacks,
		chrono:     newChronometer(nil),
	}
	if desk, ok := app.(desktop.App); ok {
		manager.desk = desk
	}
	return manager
}

// Prepare fails when there is no tray to draw into.
func (manager *Manager) Prepare(ctx context.Context) error {
	if manager.desk == nil {
		return ErrTrayUnsupported
	}
	return nil
}

// SetActionHandler receives timer button presses.
func (manager *Manager) SetActionHandler(handler func(notification.Action)) {
	manager.mu.Lock()
	manager.handler = handler
	manager.mu.Unlock()
}

// Post replaces the tray menu with the notification. A running notification
// keeps its status line counting down on its own.
func (manager *Manager) Post(ctx context.Context, n notification.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if manager.desk == nil {
		return ErrTrayUnsupported
	}

	manager.chrono.Stop()
	manager.mu.Lock()
	manager.current = n
	manager.mu.Unlock()

	fyne.DoAndWait(func() {
		manager.apply(n, n.Body)
	})

	if n.Chronometer && !n.EndsAt.IsZero() {
		manager.chrono.Start(n.EndsAt, n.Tick, func(seconds int) {
			body := manager.translator.Text(n.Language, "RunningBody", map[string]any{
				"Clock": notification.FormatClock(seconds),
			})
			fyne.Do(func() {
				manager.mu.Lock()
				stale := manager.current.Kind != n.Kind || !manager.current.EndsAt.Equal(n.EndsAt)
				manager.mu.Unlock()
				if !stale {
					manager.apply(n, body)
				}
			})
		})
	}

	if n.Kind == notification.KindFinished {
		manager.app.SendNotification(fyne.NewNotification(
			manager.translator.Text(n.Language, "AlertTitle", nil),
			manager.translator.Text(n.Language, "AlertBody", nil),
		))
	}
	return nil
}

// apply must run on the fyne thread.
func (manager *Manager) apply(n notification.Notification, body string) {
	if icon, err := resources.Icon(string(n.Kind)); err == nil {
		manager.desk.SetSystemTrayIcon(icon)
	}
	manager.desk.SetSystemTrayMenu(buildMenu(n, body, manager.translator, manager.dispatch, manager.callbacks))
}

func (manager *Manager) dispatch(action notification.Action) {
	manager.mu.Lock()
	handler := manager.handler
	manager.mu.Unlock()
	if handler != nil {
		handler(action)
	}
}

func buildMenu(n notification.Notification, body string, translator notification.Translator, dispatch func(notification.Action), callbacks Callbacks) *fyne.Menu {
	label := func(id string) string {
		return translator.Text(n.Language, id, nil)
	}

	status := fyne.NewMenuItem(fmt.Sprintf("%s: %s", n.Title, body), nil)
	status.Disabled = true

	items := []*fyne.MenuItem{status}
	for _, button := range n.Buttons {
		action := button.Action
		items = append(items, fyne.NewMenuItem(button.Label, func() {
			dispatch(action)
		}))
	}

	items = append(items,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem(label("MenuShow"), func() {
			if callbacks.OnShow != nil {
				callbacks.OnShow()
			}
		}),
		fyne.NewMenuItem(label("ButtonSettings"), func() {
			if callbacks.OnPreferences != nil {
				callbacks.OnPreferences()
			}
		}),
	)

	quit := fyne.NewMenuItem(label("MenuQuit"), func() {
		if callbacks.OnQuit != nil {
			callbacks.OnQuit()
		}
	})
	quit.IsQuit = true
	items = append(items, quit)

	return fyne.NewMenu(n.Title, items...)
}
