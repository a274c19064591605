package remote

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doneToken is an already completed paho token.
type doneToken struct {
	err error
}

func (token doneToken) Wait() bool                     { return true }
func (token doneToken) WaitTimeout(time.Duration) bool { return true }
func (token doneToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}
func (token doneToken) Error() error { return token.err }

func TestRestoreResubscribesAfterReconnect(t *testing.T) {
	client := &PahoClient{subs: map[string]subscription{}}
	client.subs["resttimer/desk/commands"] = subscription{
		qos:      1,
		callback: func(paho.Client, paho.Message) {},
	}

	type call struct {
		topic string
		qos   byte
	}
	var calls []call
	var restored paho.MessageHandler
	client.restore(func(topic string, qos byte, callback paho.MessageHandler) paho.Token {
		calls = append(calls, call{topic, qos})
		restored = callback
		return doneToken{}
	})

	require.Equal(t, []call{{"resttimer/desk/commands", 1}}, calls)
	require.NotNil(t, restored)
}

func TestRestoreKeepsGoingAfterFailure(t *testing.T) {
	client := &PahoClient{subs: map[string]subscription{
		"a": {qos: 0},
		"b": {qos: 0},
	}}

	attempts := 0
	client.restore(func(topic string, qos byte, callback paho.MessageHandler) paho.Token {
		attempts++
		return doneToken{err: errors.New("not authorised")}
	})
	assert.Equal(t, 2, attempts)
}
