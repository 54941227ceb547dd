package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenCmd creates a Bubble Tea command that waits for the next payload
// on a subscription channel. Returns nil when the context is cancelled
// or the channel is closed.
func ListenCmd[T any](ctx context.Context, ch <-chan T) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-ch:
			if !ok {
				return nil
			}
			return payload
		}
	}
}

// Listener maintains subscription state for a Bubble Tea update loop.
type Listener[T any] struct {
	ctx context.Context
	ch  <-chan T
}

// NewListener subscribes to the broker. The subscription is cleaned up
// when ctx is cancelled.
func NewListener[T any](ctx context.Context, broker *Broker[T]) *Listener[T] {
	return &Listener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx),
	}
}

// Listen returns a tea.Cmd that waits for the next payload. Call it
// again from Update after handling each message to keep receiving.
func (l *Listener[T]) Listen() tea.Cmd {
	return ListenCmd(l.ctx, l.ch)
}
