package transport

import (
	"context"

	"mudlink/pkg/bus"
)

// Handler processes one inbound server frame.
type Handler func(context.Context, bus.Frame) error

// Adapter bridges one server connection (for example a TCP line stream)
// into mudlink. Run blocks until the connection ends or ctx is canceled.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}

// Sender delivers outbound player commands to the server. Retries, if any,
// are the sender's concern; the pipeline never retries.
type Sender interface {
	Send(context.Context, bus.Command) error
}
