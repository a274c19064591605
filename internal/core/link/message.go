package link

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"resttimer/internal/core/model"
)

// Command names accepted by the engine.
const (
	CommandStart          = "start"
	CommandPause          = "pause"
	CommandResume         = "resume"
	CommandStop           = "stop"
	CommandUpdateDuration = "updateDuration"
	CommandSetLanguage    = "setLanguage"
	CommandGetState       = "getState"
)

// Event names produced by the engine.
const (
	EventStateSync              = "stateSync"
	EventTimerComplete          = "timerComplete"
	EventActionFromNotification = "actionFromNotification"
	EventServiceError           = "serviceError"
)

// Payload keys.
const (
	KeyTotal     = "total"
	KeyRemaining = "remaining"
	KeySeconds   = "seconds"
	KeyCode      = "code"
	KeySource    = "source"

	KeyRemainingSeconds = "remainingSeconds"
	KeyTotalSeconds     = "totalSeconds"
	KeyStatus           = "status"
	KeyTimestamp        = "timestamp"
	KeyAction           = "action"
	KeyMessage          = "message"
)

// SourceNotification marks commands relayed from notification buttons.
const SourceNotification = "notification"

// Message is the only value that crosses the channel. Data holds plain
// JSON-compatible values so a message survives serialization unchanged.
type Message struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// IsCommand reports whether name is a known command.
func IsCommand(name string) bool {
	switch name {
	case CommandStart, CommandPause, CommandResume, CommandStop,
		CommandUpdateDuration, CommandSetLanguage, CommandGetState:
		return true
	}
	return false
}

// Start builds a start command. Zero values let the engine use its
// configured duration.
func Start(total, remaining int) Message {
	return Message{Name: CommandStart, Data: map[string]any{
		KeyTotal:     total,
		KeyRemaining: remaining,
	}}
}

// Pause builds a pause command.
func Pause() Message { return Message{Name: CommandPause} }

// Resume builds a resume command.
func Resume() Message { return Message{Name: CommandResume} }

// Stop builds a stop command, which returns the timer to ready.
func Stop() Message { return Message{Name: CommandStop} }

// GetState asks the engine to re-broadcast its snapshot.
func GetState() Message { return Message{Name: CommandGetState} }

// UpdateDuration builds an updateDuration command.
func UpdateDuration(seconds int) Message {
	return Message{Name: CommandUpdateDuration, Data: map[string]any{KeySeconds: seconds}}
}

// SetLanguage builds a setLanguage command.
func SetLanguage(code string) Message {
	return Message{Name: CommandSetLanguage, Data: map[string]any{KeyCode: code}}
}

// StateSync builds the snapshot broadcast.
func StateSync(state model.TimerState, at time.Time) Message {
	return Message{Name: EventStateSync, Data: map[string]any{
		KeyRemainingSeconds: state.RemainingSeconds,
		KeyTotalSeconds:     state.TotalSeconds,
		KeyStatus:           string(state.Phase),
		KeyTimestamp:        at.UnixMilli(),
	}}
}

// TimerComplete builds the completion signal.
func TimerComplete() Message { return Message{Name: EventTimerComplete} }

// ActionFromNotification builds the relay event for a button press.
func ActionFromNotification(action string, remaining int) Message {
	return Message{Name: EventActionFromNotification, Data: map[string]any{
		KeyAction:           action,
		KeyRemainingSeconds: remaining,
	}}
}

// ServiceError builds the startup failure event.
func ServiceError(err error) Message {
	return Message{Name: EventServiceError, Data: map[string]any{KeyMessage: err.Error()}}
}

// With returns a copy with one extra payload field. The original Data map
// is never modified.
func (msg Message) With(key string, value any) Message {
	data := make(map[string]any, len(msg.Data)+1)
	for existing, v := range msg.Data {
		data[existing] = v
	}
	data[key] = value
	msg.Data = data
	return msg
}

// WithSource returns a copy tagged with the given command source.
func (msg Message) WithSource(source string) Message {
	return msg.With(KeySource, source)
}

// Source returns the command source, empty for direct UI commands.
func (msg Message) Source() string {
	source, _ := msg.String(KeySource)
	return source
}

// Int reads a numeric field. Values decoded from JSON arrive as float64 and
// numeric strings are accepted too.
func (msg Message) Int(key string) (int, bool) {
	raw, ok := msg.Data[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch value := raw.(type) {
	case int:
		return value, true
	case int32:
		return int(value), true
	case int64:
		return int(value), true
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, false
		}
		return int(value), true
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	case string:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// String reads a string field.
func (msg Message) String(key string) (string, bool) {
	value, ok := msg.Data[key].(string)
	return value, ok
}

// Encode serializes a message as JSON.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Name, err)
	}
	return data, nil
}

// Decode parses a JSON message. A message without a name is rejected.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if msg.Name == "" {
		return Message{}, fmt.Errorf("decode message: missing name")
	}
	return msg, nil
}
