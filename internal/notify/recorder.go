// README: In-memory publisher for tests and local runs without Redis.
package notify

import (
	"context"
	"sync"
)

// Recorder keeps every published event in order. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, topic string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Topic: topic, Msg: msg})
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByType filters recorded events by message type.
func (r *Recorder) ByType(msgType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Msg.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}
