// Package tcpline connects to a game server over line-oriented TCP. Lines
// that parse as JSON objects become typed event frames; everything else is
// a raw text frame. Outbound commands are written as single lines.
package tcpline

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"mudlink/pkg/bus"
	"mudlink/pkg/config"
	"mudlink/pkg/transport"
)

const adapterName = "tcpline"

// maxLineBytes bounds a single server line; anything longer is a protocol
// violation.
const maxLineBytes = 1 << 20

// Adapter is a transport.Adapter and transport.Sender over one TCP
// connection.
type Adapter struct {
	cfg config.ServerConfig
	log *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewAdapter validates server configuration and constructs an adapter.
func NewAdapter(cfg config.ServerConfig, log *slog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, errors.New("server.address is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg: cfg,
		log: log.With("component", "transport.tcpline"),
	}, nil
}

// Name returns the adapter identifier used in logs.
func (a *Adapter) Name() string {
	return adapterName
}

// Run dials the server and feeds every received line to the handler as a
// decoded frame. It returns when the connection closes, the handler fails,
// or ctx is canceled.
func (a *Adapter) Run(ctx context.Context, handler transport.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", a.cfg.Address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", a.cfg.Address, err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	// Unblock the read loop when ctx ends.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	a.log.Info("Connected", "address", a.cfg.Address)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for scanner.Scan() {
		frame := DecodeLine(scanner.Text(), time.Now().UTC())
		if err := handler(ctx, frame); err != nil {
			return fmt.Errorf("handle frame: %w", err)
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", a.cfg.Address, err)
	}

	a.log.Info("Server closed the connection", "address", a.cfg.Address)
	return nil
}

// Send writes one command line to the server.
func (a *Adapter) Send(_ context.Context, command bus.Command) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()

	if conn == nil {
		return errors.New("not connected")
	}

	if _, err := fmt.Fprintf(conn, "%s\n", command.Text); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	return nil
}

// DecodeLine turns one received line into a frame. A line that unmarshals
// to a JSON object is an event frame tagged with its "type" field; any
// other line, including malformed JSON, stays a raw text frame.
func DecodeLine(line string, receivedAt time.Time) bus.Frame {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			frameType, _ := payload["type"].(string)
			return bus.Frame{
				Kind:       bus.FrameEvent,
				Raw:        line,
				Type:       frameType,
				Payload:    payload,
				ReceivedAt: receivedAt,
			}
		}
	}

	return bus.Frame{Kind: bus.FrameText, Raw: line, ReceivedAt: receivedAt}
}
