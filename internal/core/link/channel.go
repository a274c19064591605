// Package link carries commands from the UI to the countdown engine and
// state events back. Both directions move plain Message values only.
package link

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when sending on a closed channel.
var ErrClosed = errors.New("link closed")

// DefaultCommandBuffer is the command queue capacity used by New when a
// non-positive size is given.
const DefaultCommandBuffer = 32

// Channel is the bidirectional transport between the engine and its
// observers. Commands go through a single bounded queue; events fan out to
// every subscriber with a non-blocking send.
type Channel struct {
	commands chan Message
	done     chan struct{}

	mu          sync.Mutex
	subscribers []chan Message
	closed      bool

	published atomic.Uint64
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// New creates a Channel with the given command queue capacity.
func New(commandBuffer int) *Channel {
	if commandBuffer <= 0 {
		commandBuffer = DefaultCommandBuffer
	}
	return &Channel{
		commands: make(chan Message, commandBuffer),
		done:     make(chan struct{}),
	}
}

// Send queues a command for the engine. It blocks while the queue is full
// until ctx is done.
func (channel *Channel) Send(ctx context.Context, msg Message) error {
	select {
	case <-channel.done:
		return ErrClosed
	default:
	}

	select {
	case channel.commands <- msg:
		return nil
	case <-channel.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Commands is the engine's single command intake.
func (channel *Channel) Commands() <-chan Message {
	return channel.commands
}

// Done is closed once Close has been called.
func (channel *Channel) Done() <-chan struct{} {
	return channel.done
}

// Subscribe registers a new event observer.
func (channel *Channel) Subscribe(buffer int) <-chan Message {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Message, buffer)
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.closed {
		close(ch)
		return ch
	}
	channel.subscribers = append(channel.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes an observer channel.
func (channel *Channel) Unsubscribe(events <-chan Message) {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	for index, ch := range channel.subscribers {
		if ch == events {
			channel.subscribers = append(channel.subscribers[:index], channel.subscribers[index+1:]...)
			close(ch)
			return
		}
	}
}

// Publish delivers an event to every subscriber. A subscriber whose buffer
// is full misses the event; getState is the recovery path.
func (channel *Channel) Publish(msg Message) {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.closed {
		return
	}
	channel.published.Add(1)
	for _, ch := range channel.subscribers {
		select {
		case ch <- msg:
		default:
			channel.dropped.Add(1)
		}
	}
}

// Published returns the number of events published so far.
func (channel *Channel) Published() uint64 {
	return channel.published.Load()
}

// Dropped returns the number of per-subscriber deliveries that were skipped.
func (channel *Channel) Dropped() uint64 {
	return channel.dropped.Load()
}

// Close stops the channel and closes every subscriber.
func (channel *Channel) Close() {
	channel.closeOnce.Do(func() {
		channel.mu.Lock()
		channel.closed = true
		subscribers := channel.subscribers
		channel.subscribers = nil
		channel.mu.Unlock()

		close(channel.done)
		for _, ch := range subscribers {
			close(ch)
		}
	})
}
