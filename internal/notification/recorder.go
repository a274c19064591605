package notification

import (
	"context"
	"sync"
)

// Recorder is a Backend that keeps every posted notification in memory.
type Recorder struct {
	mu      sync.Mutex
	posted  []Notification
	handler func(Action)

	// PostError, if set, is returned by Post after recording.
	PostError error

	// PrepareError, if set, is returned by Prepare.
	PrepareError error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Post records the notification.
func (recorder *Recorder) Post(ctx context.Context, notification Notification) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.posted = append(recorder.posted, notification)
	return recorder.PostError
}

// Prepare returns PrepareError.
func (recorder *Recorder) Prepare(ctx context.Context) error {
	return recorder.PrepareError
}

// SetActionHandler stores the presenter's handler.
func (recorder *Recorder) SetActionHandler(handler func(Action)) {
	recorder.mu.Lock()
	recorder.handler = handler
	recorder.mu.Unlock()
}

// Press simulates a button tap.
func (recorder *Recorder) Press(action Action) {
	recorder.mu.Lock()
	handler := recorder.handler
	recorder.mu.Unlock()
	if handler != nil {
		handler(action)
	}
}

// Posted returns a copy of every recorded notification.
func (recorder *Recorder) Posted() []Notification {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]Notification(nil), recorder.posted...)
}

// Last returns the latest notification and whether one exists.
func (recorder *Recorder) Last() (Notification, bool) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.posted) == 0 {
		return Notification{}, false
	}
	return recorder.posted[len(recorder.posted)-1], true
}
