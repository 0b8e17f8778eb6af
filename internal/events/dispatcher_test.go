package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublish_DeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "a:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "b:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(_ context.Context, _ Event) error {
		got = append(got, "wrong-type")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"})
	require.NoError(t, err)
	require.Equal(t, []string{"a:t1", "b:t1"}, got)
}

func TestPublish_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var second bool
	d.Subscribe(EventCommentAdded, func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventCommentAdded, func(_ context.Context, _ Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventCommentAdded}))
	require.True(t, second)
}

func TestPublish_NoSubscribersIsNoop(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventUserRegistered}))
}
