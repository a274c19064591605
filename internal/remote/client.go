// Package remote mirrors timer events to an MQTT broker and accepts timer
// commands from it.
package remote

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultPrefix is the first topic level.
const DefaultPrefix = "resttimer"

// Client is the broker surface the bridge needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Close() error
}

// NewInstanceID returns a short random instance name for topics.
func NewInstanceID() string {
	return strings.SplitN(uuid.New().String(), "-", 2)[0]
}

// EventsTopic is where engine events are published.
func EventsTopic(prefix, instance string) string {
	return fmt.Sprintf("%s/%s/events", prefix, instance)
}

// CommandsTopic is where remote commands are read.
func CommandsTopic(prefix, instance string) string {
	return fmt.Sprintf("%s/%s/commands", prefix, instance)
}
