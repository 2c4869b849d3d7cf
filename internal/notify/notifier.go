package notify

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Notifier is the one-way channel the workflow engine pushes events
// into. Implementations must never block the caller and must never
// surface delivery failures to it; the business operation succeeded
// the moment its store write committed.
type Notifier interface {
	Notify(evt Event)
}

// Sink delivers a single event to one destination (mail, websocket,
// log). Sinks fail independently of each other.
type Sink interface {
	Deliver(evt Event) error
}

// Dispatcher fans events out to its sinks from a single worker
// goroutine behind a buffered channel. Notify drops the event (with a
// log line) rather than block when the buffer is full.
type Dispatcher struct {
	sinks  []Sink
	events chan Event
	log    zerolog.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(log zerolog.Logger, buffer int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		sinks:  sinks,
		events: make(chan Event, buffer),
		log:    log,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) Notify(evt Event) {
	select {
	case d.events <- evt:
	default:
		d.log.Warn().
			Str("event", string(evt.Type)).
			Str("medicine", evt.MedicineName).
			Msg("notification buffer full, event dropped")
	}
}

// Close stops the worker after draining queued events. Intended for
// shutdown and tests.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.events) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for evt := range d.events {
		for _, s := range d.sinks {
			if err := s.Deliver(evt); err != nil {
				d.log.Error().Err(err).
					Str("event", string(evt.Type)).
					Str("medicine", evt.MedicineName).
					Msg("notification delivery failed")
			}
		}
	}
}

// LogSink writes every event as a structured log line. It doubles as
// the delivery fallback when no SMTP server is configured.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Deliver(evt Event) error {
	e := s.Log.Info().
		Str("event", string(evt.Type)).
		Str("medicine", evt.MedicineName).
		Int("quantity", evt.Quantity)
	if evt.Donor != nil {
		e = e.Str("donor", evt.Donor.Email)
	}
	if evt.Recipient != nil {
		e = e.Str("recipient", evt.Recipient.Email)
	}
	e.Msg("workflow event")
	return nil
}

// BroadcastSink pushes the JSON-encoded event to a broadcast channel,
// feeding the admin dashboard websocket hub.
type BroadcastSink struct {
	Broadcast chan<- []byte
}

func (s BroadcastSink) Deliver(evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	select {
	case s.Broadcast <- payload:
	default:
		// Hub not draining; websocket updates are best-effort.
	}
	return nil
}
