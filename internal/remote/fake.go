package remote

import "sync"

// Published is one message recorded by FakeClient.
type Published struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakeClient records publishes and lets tests deliver messages.
type FakeClient struct {
	mu        sync.Mutex
	published []Published
	handlers  map[string]func(topic string, payload []byte)

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{handlers: make(map[string]func(string, []byte))}
}

// Publish records the message.
func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.published = append(f.published, Published{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	return nil
}

// Subscribe stores the handler.
func (f *FakeClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.handlers[topic] = handler
	return nil
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Deliver simulates a broker message. It reports whether anyone listened.
func (f *FakeClient) Deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	handler := f.handlers[topic]
	f.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(topic, payload)
	return true
}

// Subscribed reports whether a handler exists for topic.
func (f *FakeClient) Subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[topic] != nil
}

// Messages returns a copy of every recorded publish.
func (f *FakeClient) Messages() []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Published(nil), f.published...)
}
