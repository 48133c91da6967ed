// Package events is the boundary to the realtime fan-out. The core publishes
// logical state-change notifications here; delivery to UI clients happens elsewhere.
package events

import (
	"context"
	"log"
	"sync"
)

type Emitter interface {
	Emit(ctx context.Context, env Envelope) error
	Close() error
}

// LogEmitter só registra o evento no log. Usado quando não há broker configurado.
type LogEmitter struct{}

func (LogEmitter) Emit(ctx context.Context, env Envelope) error {
	log.Printf("events: skipped publish (no broker) type=%s org=%d id=%s", env.Meta.Type, env.Meta.OrganizationID, env.Meta.ID)
	return nil
}

func (LogEmitter) Close() error { return nil }

// Recorder keeps every emitted envelope in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
	// Err, when set, is returned by every Emit after recording.
	Err error
}

func (r *Recorder) Emit(ctx context.Context, env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, env)
	return r.Err
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}

// Types returns the event types in emission order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Meta.Type)
	}
	return out
}
