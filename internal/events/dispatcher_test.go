package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishLogsHandlerFailureAndContinues(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "failing")
		return errors.New("smtp relay down")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "evt-1", Type: EventTicketCreated})
	require.NoError(t, err)
	require.Equal(t, []string{"failing", "second"}, calls)

	entries := logs.FilterMessage("event handler failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "evt-1", entries[0].ContextMap()["event_id"])
}

func TestPublishIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	called := false
	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		called = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	require.False(t, called)
}
