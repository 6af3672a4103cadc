// Package stream runs one long-lived session per live subscriber, draining
// hub deliveries in order and injecting keep-alives when idle.
package stream

import (
	"context"
	"time"

	"accident-monitor/internal/hub"
	"accident-monitor/internal/metrics"
)

// FrameWriter delivers one self-delimited frame to the transport. A write
// error closes the session; it is never reported to any other caller.
type FrameWriter interface {
	WriteFrame(payload []byte) error
}

type State int

const (
	StateConnecting State = iota
	StateStreaming
	StateClosed
)

type Session struct {
	ref            string
	hub            *hub.Hub
	w              FrameWriter
	pollInterval   time.Duration
	heartbeatPolls int
	state          State
}

func NewSession(h *hub.Hub, ref string, w FrameWriter, pollInterval time.Duration, heartbeatPolls int) *Session {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if heartbeatPolls <= 0 {
		heartbeatPolls = 10
	}
	return &Session{
		ref:            ref,
		hub:            h,
		w:              w,
		pollInterval:   pollInterval,
		heartbeatPolls: heartbeatPolls,
	}
}

func (s *Session) State() State {
	return s.state
}

// Run subscribes, emits the connection ack, then streams until the context
// is cancelled or a write fails. The subscription is released on every exit
// path so the hub's handle lists cannot grow unboundedly.
func (s *Session) Run(ctx context.Context) error {
	sub := s.hub.Subscribe(s.ref)
	metrics.StreamsOpened.Add(1)
	defer func() {
		s.hub.Unsubscribe(s.ref, sub)
		s.state = StateClosed
		metrics.StreamsClosed.Add(1)
	}()

	ack, err := AckFrame(s.ref)
	if err != nil {
		return err
	}
	if err := s.w.WriteFrame(ack); err != nil {
		return err
	}
	s.state = StateStreaming

	idle := 0
	for {
		select {
		case evt, ok := <-sub.C:
			if !ok {
				return nil
			}
			payload, err := EventFrame(evt)
			if err != nil {
				return err
			}
			if err := s.w.WriteFrame(payload); err != nil {
				return err
			}
			idle = 0

		case <-time.After(s.pollInterval):
			idle++
			if idle >= s.heartbeatPolls {
				idle = 0
				if err := s.w.WriteFrame(heartbeatFrame); err != nil {
					return err
				}
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
