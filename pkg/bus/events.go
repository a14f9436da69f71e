package bus

import (
	"context"
	"sync"
	"time"
)

type EventType string

const (
	EventFrameReceived EventType = "frame_received"
	EventStatusChanged EventType = "status_changed"
	EventBatchReleased EventType = "batch_released"
	EventErrorReceived EventType = "error_received"
)

type Event struct {
	Type    EventType      `json:"type"`
	At      time.Time      `json:"at"`
	Channel string         `json:"channel,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func (gb *GameBus) PublishEvent(ctx context.Context, event Event) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return false
	case <-gb.done:
		return false
	default:
	}

	gb.mu.RLock()
	subs := make([]chan Event, 0, len(gb.eventSubscribers))
	for _, ch := range gb.eventSubscribers {
		subs = append(subs, ch)
	}
	gb.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop instead of blocking the publisher on slow subscribers.
		}
	}

	return true
}

func (gb *GameBus) SubscribeEvents(ctx context.Context, buffer int) (<-chan Event, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if buffer <= 0 {
		buffer = defaultBufferSize
	}

	ch := make(chan Event, buffer)

	gb.mu.Lock()
	select {
	case <-gb.done:
		gb.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}

	id := gb.nextEventSubscriberID
	gb.nextEventSubscriberID++
	gb.eventSubscribers[id] = ch
	gb.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			gb.mu.Lock()
			if eventCh, ok := gb.eventSubscribers[id]; ok {
				delete(gb.eventSubscribers, id)
				close(eventCh)
			}
			gb.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-gb.done:
			unsubscribe()
		}
	}()

	return ch, unsubscribe
}
