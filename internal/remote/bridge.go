package remote

import (
	"context"
	"fmt"
	"time"

	"resttimer/internal/core/link"
	"resttimer/internal/logger"
)

// Config contains bridge options.
type Config struct {
	Prefix      string
	Instance    string
	SendTimeout time.Duration
	EventBuffer int
	Logger      *logger.Logger
}

func (config Config) withDefaults() Config {
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}
	if config.Instance == "" {
		config.Instance = NewInstanceID()
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = time.Second
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}
	return config
}

// Bridge connects a link.Channel to a broker. Remote commands join the same
// queue as UI and notification commands.
type Bridge struct {
	client  Client
	channel *link.Channel
	config  Config
	log     *logger.Logger
}

// NewBridge creates a bridge. Run starts it.
func NewBridge(client Client, channel *link.Channel, config Config) *Bridge {
	config = config.withDefaults()
	return &Bridge{
		client:  client,
		channel: channel,
		config:  config,
		log:     config.Logger,
	}
}

// EventsTopic returns the topic events are published on.
func (bridge *Bridge) EventsTopic() string {
	return EventsTopic(bridge.config.Prefix, bridge.config.Instance)
}

// CommandsTopic returns the topic commands are read from.
func (bridge *Bridge) CommandsTopic() string {
	return CommandsTopic(bridge.config.Prefix, bridge.config.Instance)
}

// Run forwards events until ctx is done or the link closes, then closes the
// client.
func (bridge *Bridge) Run(ctx context.Context) error {
	defer bridge.client.Close()

	events := bridge.channel.Subscribe(bridge.config.EventBuffer)
	defer bridge.channel.Unsubscribe(events)

	if err := bridge.client.Subscribe(bridge.CommandsTopic(), 1, func(_ string, payload []byte) {
		bridge.relay(ctx, payload)
	}); err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	bridge.log.Info("bridging %s <-> %s", bridge.EventsTopic(), bridge.CommandsTopic())

	// Seed the retained state for late subscribers.
	if err := bridge.send(ctx, link.GetState()); err != nil {
		bridge.log.Warn("request state: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-events:
			if !ok {
				return nil
			}
			bridge.publish(msg)
		}
	}
}

// publish keeps stateSync retained so a new subscriber sees the current
// state at once.
func (bridge *Bridge) publish(msg link.Message) {
	payload, err := link.Encode(msg)
	if err != nil {
		bridge.log.Warn("encode %s: %v", msg.Name, err)
		return
	}
	var (
		qos      byte
		retained bool
	)
	if msg.Name == link.EventStateSync {
		qos, retained = 1, true
	}
	if err := bridge.client.Publish(bridge.EventsTopic(), qos, retained, payload); err != nil {
		bridge.log.Warn("publish %s: %v", msg.Name, err)
	}
}

// relay validates a remote payload and queues it. Malformed payloads and
// unknown names are dropped.
func (bridge *Bridge) relay(ctx context.Context, payload []byte) {
	msg, err := link.Decode(payload)
	if err != nil {
		bridge.log.Warn("drop remote command: %v", err)
		return
	}
	if !link.IsCommand(msg.Name) {
		bridge.log.Warn("drop remote command: unknown name %q", msg.Name)
		return
	}
	// Only the notification surface may tag a command with a source.
	delete(msg.Data, link.KeySource)
	if err := bridge.send(ctx, msg); err != nil {
		bridge.log.Warn("queue remote %s: %v", msg.Name, err)
	}
}

func (bridge *Bridge) send(ctx context.Context, msg link.Message) error {
	ctx, cancel := context.WithTimeout(ctx, bridge.config.SendTimeout)
	defer cancel()
	return bridge.channel.Send(ctx, msg)
}
