package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resttimer/internal/core/model"
)

func TestSendAndReceiveCommand(t *testing.T) {
	channel := New(1)
	require.NoError(t, channel.Send(context.Background(), Start(30, 30)))

	msg := <-channel.Commands()
	assert.Equal(t, CommandStart, msg.Name)
	total, ok := msg.Int(KeyTotal)
	assert.True(t, ok)
	assert.Equal(t, 30, total)
}

func TestSendBlocksUntilContextDone(t *testing.T) {
	channel := New(1)
	require.NoError(t, channel.Send(context.Background(), Pause()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := channel.Send(ctx, Resume())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSendAfterClose(t *testing.T) {
	channel := New(1)
	channel.Close()
	channel.Close()

	err := channel.Send(context.Background(), Stop())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublishFansOutInOrder(t *testing.T) {
	channel := New(1)
	first := channel.Subscribe(4)
	second := channel.Subscribe(4)

	channel.Publish(TimerComplete())
	channel.Publish(GetState())

	for _, events := range []<-chan Message{first, second} {
		assert.Equal(t, EventTimerComplete, (<-events).Name)
		assert.Equal(t, CommandGetState, (<-events).Name)
	}
	assert.Equal(t, uint64(2), channel.Published())
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	channel := New(1)
	events := channel.Subscribe(1)

	channel.Publish(TimerComplete())
	channel.Publish(TimerComplete())

	assert.Equal(t, uint64(1), channel.Dropped())
	assert.Len(t, events, 1)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	channel := New(1)
	events := channel.Subscribe(1)
	channel.Unsubscribe(events)

	_, open := <-events
	assert.False(t, open)

	channel.Publish(TimerComplete())
	assert.Equal(t, uint64(0), channel.Dropped())
}

func TestCloseClosesSubscribers(t *testing.T) {
	channel := New(1)
	events := channel.Subscribe(1)
	channel.Close()

	_, open := <-events
	assert.False(t, open)

	late := channel.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestEncodeDecodeStateSync(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state := model.TimerState{Phase: model.PhasePaused, TotalSeconds: 90, RemainingSeconds: 42}

	data, err := Encode(StateSync(state, at))
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, EventStateSync, msg.Name)

	remaining, ok := msg.Int(KeyRemainingSeconds)
	assert.True(t, ok)
	assert.Equal(t, 42, remaining)
	status, ok := msg.String(KeyStatus)
	assert.True(t, ok)
	assert.Equal(t, "paused", status)
	timestamp, ok := msg.Int(KeyTimestamp)
	assert.True(t, ok)
	assert.Equal(t, int(at.UnixMilli()), timestamp)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestIntAccessor(t *testing.T) {
	msg := Message{Data: map[string]any{
		"int":    5,
		"float":  7.0,
		"string": "9",
		"bad":    "nine",
		"nil":    nil,
		"bool":   true,
	}}

	for key, want := range map[string]int{"int": 5, "float": 7, "string": 9} {
		got, ok := msg.Int(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	for _, key := range []string{"bad", "nil", "bool", "missing"} {
		_, ok := msg.Int(key)
		assert.False(t, ok, key)
	}
}

func TestWithSourceCopiesData(t *testing.T) {
	original := Start(10, 10)
	tagged := original.WithSource(SourceNotification)

	assert.Equal(t, SourceNotification, tagged.Source())
	assert.Equal(t, "", original.Source())
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand(CommandUpdateDuration))
	assert.False(t, IsCommand(EventStateSync))
}

func TestBareCommandBuilders(t *testing.T) {
	for want, msg := range map[string]Message{
		CommandPause:    Pause(),
		CommandResume:   Resume(),
		CommandStop:     Stop(),
		CommandGetState: GetState(),
	} {
		assert.Equal(t, want, msg.Name)
		assert.True(t, IsCommand(msg.Name))
		assert.Empty(t, msg.Data)
	}
}
