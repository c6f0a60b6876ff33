package event

import (
	"context"
	"log"
	"time"
)

// Listener drains a publisher's queue on a background goroutine and hands
// each event to its handler. Stop cancels the goroutine; a stopped listener
// consumes nothing further.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (l *Listener[T]) Stop() {
	l.cancel()
}

func (l *Listener[T]) Start() {
	go func() {
		for {
			event, err := l.publisher.Consume(l.ctx)
			if l.ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("Error consuming event: %v", err)
				continue
			}
			if event == nil {
				// Polling vendors report an empty queue as a nil event.
				time.Sleep(10 * time.Millisecond)
				continue
			}
			l.handler(event)
		}
	}()
}
