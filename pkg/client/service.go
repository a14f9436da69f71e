// Package client runs the event-intake pipeline: frames delivered by the
// transport are classified or reduced, coalesced into batches, and handed
// to the UI as bus events. Outbound player commands flow the other way.
package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mudlink/pkg/apierr"
	"mudlink/pkg/batch"
	"mudlink/pkg/bus"
	"mudlink/pkg/classify"
	"mudlink/pkg/config"
	"mudlink/pkg/status"
	"mudlink/pkg/transport"
)

// Service owns the intake pipeline for one server connection.
type Service struct {
	cfg        *config.Config
	log        *slog.Logger
	adapter    transport.Adapter
	sender     transport.Sender
	bus        *bus.GameBus
	classifier *classify.Classifier
	batcher    *batch.Batcher

	mu              sync.RWMutex
	startedAt       time.Time
	connected       bool
	lastErr         string
	vitals          *status.Status
	framesSeen      int64
	batchesReleased int64
}

// Snapshot is the UI-facing view of pipeline state.
type Snapshot struct {
	Connected       bool
	UptimeSeconds   int64
	FramesSeen      int64
	BatchesReleased int64
	LastError       string
	Vitals          *status.Status
}

// New wires the pipeline. sender may be nil when the adapter is
// receive-only; commands are then echoed locally but not delivered.
func New(cfg *config.Config, adapter transport.Adapter, sender transport.Sender, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if adapter == nil {
		return nil, errors.New("transport adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "client")

	s := &Service{
		cfg:       cfg,
		log:       log,
		adapter:   adapter,
		sender:    sender,
		bus:       bus.NewGameBus(),
		startedAt: time.Now(),
	}

	s.classifier = classify.New(func(line string, result classify.Result) {
		log.Debug("Classified line", "type", string(result.Type), "channel", result.Channel, "line", line)
	})

	batcher, err := batch.New(cfg.Batch.BatcherConfig(), s.onBatchReleased)
	if err != nil {
		return nil, err
	}
	s.batcher = batcher

	return s, nil
}

// Run starts the transport and the pipeline loops and blocks until ctx ends
// or the transport fails. Teardown flushes the batcher before the bus
// closes so buffered units still reach subscribers.
func (s *Service) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.intakeLoop(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.commandLoop(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		s.setConnected(true)
		err := s.adapter.Run(runCtx, s.receiveFrame)
		s.setConnected(false)

		if err != nil && !errors.Is(err, context.Canceled) {
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	<-runCtx.Done()

	s.batcher.Close()
	s.bus.Close()
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
	}

	return ctx.Err()
}

// SendCommand queues one player command for delivery and local echo.
func (s *Service) SendCommand(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	return s.bus.PublishCommand(ctx, bus.Command{Text: text, IssuedAt: time.Now().UTC()})
}

// Events subscribes the caller to pipeline events.
func (s *Service) Events(ctx context.Context, buffer int) (<-chan bus.Event, func()) {
	return s.bus.SubscribeEvents(ctx, buffer)
}

// Snapshot reports current pipeline state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Connected:       s.connected,
		UptimeSeconds:   int64(time.Since(s.startedAt).Seconds()),
		FramesSeen:      s.framesSeen,
		BatchesReleased: s.batchesReleased,
		LastError:       s.lastErr,
		Vitals:          s.vitals,
	}
}

// receiveFrame is the transport handler; it only enqueues so the read loop
// never stalls on pipeline work.
func (s *Service) receiveFrame(ctx context.Context, frame bus.Frame) error {
	s.bus.PublishFrame(ctx, frame)
	return nil
}

func (s *Service) intakeLoop(ctx context.Context) {
	for {
		frame, ok := s.bus.ConsumeFrame(ctx)
		if !ok {
			return
		}
		s.processFrame(ctx, frame)
	}
}

func (s *Service) processFrame(ctx context.Context, frame bus.Frame) {
	s.mu.Lock()
	s.framesSeen++
	s.mu.Unlock()

	s.bus.PublishEvent(ctx, bus.Event{
		Type:    bus.EventFrameReceived,
		Payload: map[string]any{"kind": string(frame.Kind), "type": frame.Type},
	})

	if frame.Kind == bus.FrameEvent {
		s.processEventFrame(ctx, frame)
		return
	}

	result := s.classifier.Classify(frame.Raw)
	unit := batch.Unit{Type: unitTypeFor(result.Type), Content: frame.Raw}
	if result.Type == classify.TypeChat {
		unit.Metadata = map[string]string{"channel": result.Channel}
	}

	s.batcher.Add(unit)
}

func (s *Service) processEventFrame(ctx context.Context, frame bus.Frame) {
	if frame.Type == "error" || apierr.IsErrorResponse(frame.Payload) {
		normalized := apierr.Normalize(frame.Payload)
		s.setLastError(normalized.Message)

		s.batcher.Add(batch.Unit{
			Type:    batch.UnitError,
			Content: normalized.Message,
			Metadata: map[string]string{
				"error_type": normalized.Type,
				"severity":   normalized.Severity,
			},
		})
		s.bus.PublishEvent(ctx, bus.Event{
			Type:  bus.EventErrorReceived,
			Error: normalized.Message,
			Payload: map[string]any{
				"error_type": normalized.Type,
				"severity":   normalized.Severity,
				"details":    normalized.Details,
			},
		})
		return
	}

	if frame.Type == "vitals_update" || status.HasVitalFields(frame.Payload) {
		s.mu.Lock()
		next, delta := status.Reduce(s.vitals, frame.Payload, frame.ReceivedAt.Format(time.RFC3339))
		s.vitals = &next
		s.mu.Unlock()

		s.batcher.Add(batch.Unit{
			Type:    batch.UnitSystem,
			Content: status.FormatChangeMessage(next, delta, frame.Payload),
		})
		s.bus.PublishEvent(ctx, bus.Event{
			Type:    bus.EventStatusChanged,
			Payload: map[string]any{"status": next, "delta": delta},
		})
		return
	}

	// Unrecognized event frames render raw; nothing is silently dropped.
	s.batcher.Add(batch.Unit{Type: batch.UnitSystem, Content: frame.Raw})
}

func (s *Service) commandLoop(ctx context.Context) {
	for {
		command, ok := s.bus.ConsumeCommand(ctx)
		if !ok {
			return
		}

		echoType := batch.UnitMove
		if isChatCommand(command.Text) {
			echoType = batch.UnitChat
		}
		s.batcher.Add(batch.Unit{Type: echoType, Content: "> " + command.Text})

		if s.sender == nil {
			continue
		}
		if err := s.sender.Send(ctx, command); err != nil {
			message := apierr.Message(err.Error())
			s.setLastError(message)
			s.log.Warn("Command delivery failed", "command", command.Text, "error", err)

			s.batcher.Add(batch.Unit{
				Type:     batch.UnitError,
				Content:  message,
				Metadata: map[string]string{"error_type": apierr.UnknownType, "severity": apierr.DefaultSeverity},
			})
			s.bus.PublishEvent(ctx, bus.Event{Type: bus.EventErrorReceived, Error: message})
		}
	}
}

// onBatchReleased forwards each released batch to subscribers in release
// order.
func (s *Service) onBatchReleased(units []batch.Unit) {
	s.mu.Lock()
	s.batchesReleased++
	s.mu.Unlock()

	s.bus.PublishEvent(context.Background(), bus.Event{
		Type:    bus.EventBatchReleased,
		Payload: map[string]any{"units": units},
	})
}

func (s *Service) setConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()
}

func (s *Service) setLastError(message string) {
	s.mu.Lock()
	s.lastErr = message
	s.mu.Unlock()
}

func unitTypeFor(t classify.Type) batch.UnitType {
	switch t {
	case classify.TypeChat:
		return batch.UnitChat
	case classify.TypeSystem:
		return batch.UnitSystem
	default:
		// Command feedback renders in the log alongside system notices.
		return batch.UnitSystem
	}
}

func isChatCommand(text string) bool {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "'") {
		return true
	}
	for _, prefix := range []string{"say ", "tell ", "whisper ", "shout ", "emote "} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}
