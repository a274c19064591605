package remote

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"resttimer/internal/logger"
)

type subscription struct {
	qos      byte
	callback paho.MessageHandler
}

// PahoClient talks to an actual MQTT broker.
type PahoClient struct {
	client paho.Client
	log    *logger.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

// Dial connects to the broker. Reconnects are handled by paho, and every
// subscription is restored after each reconnect since the session is clean.
func Dial(broker, clientID string, log *logger.Logger) (*PahoClient, error) {
	if log == nil {
		log = logger.Discard()
	}
	p := &PahoClient{log: log, subs: make(map[string]subscription)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(client paho.Client) {
			p.restore(client.Subscribe)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// Publish sends one message.
func (p *PahoClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Subscribe registers handler for topic. The subscription survives
// reconnects.
func (p *PahoClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	callback := func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	}
	if err := waitToken(p.client.Subscribe(topic, qos, callback)); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	p.mu.Lock()
	p.subs[topic] = subscription{qos: qos, callback: callback}
	p.mu.Unlock()
	return nil
}

// restore re-issues every recorded subscription.
func (p *PahoClient) restore(subscribe func(topic string, qos byte, callback paho.MessageHandler) paho.Token) {
	p.mu.Lock()
	subs := make(map[string]subscription, len(p.subs))
	for topic, sub := range p.subs {
		subs[topic] = sub
	}
	p.mu.Unlock()

	for topic, sub := range subs {
		if err := waitToken(subscribe(topic, sub.qos, sub.callback)); err != nil {
			p.log.Warn("resubscribe %s: %v", topic, err)
			continue
		}
		p.log.Debug("resubscribed %s", topic)
	}
}

// Close disconnects from the broker.
func (p *PahoClient) Close() error {
	p.client.Disconnect(1000)
	return nil
}

func waitToken(token paho.Token) error {
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("timeout")
	}
	return token.Error()
}
