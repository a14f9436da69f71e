// Package bus decouples the transport, the intake pipeline, and the UI.
// Frames flow from the transport to the pipeline; commands flow from the UI
// to the transport; events fan out to any subscriber.
package bus

import (
	"context"
	"sync"
)

const defaultBufferSize = 100

type GameBus struct {
	frames   chan Frame
	commands chan Command

	eventSubscribers      map[uint64]chan Event
	nextEventSubscriberID uint64

	done      chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

func NewGameBus() *GameBus {
	return &GameBus{
		frames:           make(chan Frame, defaultBufferSize),
		commands:         make(chan Command, defaultBufferSize),
		eventSubscribers: make(map[uint64]chan Event),
		done:             make(chan struct{}),
	}
}

func (gb *GameBus) PublishFrame(ctx context.Context, frame Frame) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return false
	case <-gb.done:
		return false
	default:
	}

	select {
	case <-ctx.Done():
		return false
	case <-gb.done:
		return false
	case gb.frames <- frame:
		return true
	}
}

func (gb *GameBus) ConsumeFrame(ctx context.Context) (Frame, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return Frame{}, false
	case <-gb.done:
		return Frame{}, false
	case frame := <-gb.frames:
		return frame, true
	}
}

func (gb *GameBus) PublishCommand(ctx context.Context, command Command) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return false
	case <-gb.done:
		return false
	default:
	}

	select {
	case <-ctx.Done():
		return false
	case <-gb.done:
		return false
	case gb.commands <- command:
		return true
	}
}

func (gb *GameBus) ConsumeCommand(ctx context.Context) (Command, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return Command{}, false
	case <-gb.done:
		return Command{}, false
	case command := <-gb.commands:
		return command, true
	}
}

func (gb *GameBus) Close() {
	gb.closeOnce.Do(func() {
		close(gb.done)

		gb.mu.Lock()
		for id, ch := range gb.eventSubscribers {
			close(ch)
			delete(gb.eventSubscribers, id)
		}
		gb.mu.Unlock()
	})
}
