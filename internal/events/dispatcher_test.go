package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var got []int
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketDowngraded, func(_ context.Context, e Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	_ = d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 3})
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))
	called := false
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { return errors.New("boom") })
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		called = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 1}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !called {
		t.Fatal("second handler not invoked")
	}
	if logs.FilterMessage("event handler failed").Len() != 1 {
		t.Fatalf("expected handler failure to be logged, got %v", logs.All())
	}
}
