package notification

import (
	"context"
	"fmt"
	"sync"
)

// Presenter renders frames through a backend and forwards button presses to
// a single action handler.
type Presenter struct {
	backend    Backend
	translator Translator

	mu      sync.Mutex
	handler func(Action)
	last    Notification
}

// NewPresenter wires the presenter to a backend. Backends implementing
// ActionSource deliver their button presses through OnAction's handler.
func NewPresenter(backend Backend, translator Translator) *Presenter {
	presenter := &Presenter{
		backend:    backend,
		translator: translator,
	}
	if source, ok := backend.(ActionSource); ok {
		source.SetActionHandler(presenter.Dispatch)
	}
	return presenter
}

// Render posts the notification derived from frame.
func (presenter *Presenter) Render(ctx context.Context, frame Frame) error {
	notification := Visual(frame, presenter.translator)
	if err := presenter.backend.Post(ctx, notification); err != nil {
		return fmt.Errorf("post %s notification: %w", notification.Kind, err)
	}
	presenter.mu.Lock()
	presenter.last = notification
	presenter.mu.Unlock()
	return nil
}

// Prepare lets backends with a startup step report failures before the
// engine begins.
func (presenter *Presenter) Prepare(ctx context.Context) error {
	if preparer, ok := presenter.backend.(interface {
		Prepare(ctx context.Context) error
	}); ok {
		return preparer.Prepare(ctx)
	}
	return nil
}

// OnAction sets the receiver of button presses.
func (presenter *Presenter) OnAction(handler func(Action)) {
	presenter.mu.Lock()
	presenter.handler = handler
	presenter.mu.Unlock()
}

// Dispatch delivers an action to the registered handler.
func (presenter *Presenter) Dispatch(action Action) {
	presenter.mu.Lock()
	handler := presenter.handler
	presenter.mu.Unlock()
	if handler != nil {
		handler(action)
	}
}

// Last returns the most recently posted notification.
func (presenter *Presenter) Last() Notification {
	presenter.mu.Lock()
	defer presenter.mu.Unlock()
	return presenter.last
}
