package ledger

import (
	"context"
	"sync"

	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/domain"
)

// Recorder is an in-memory EventSink that keeps every emitted event in
// order. Used in tests and as a cheap default audit trail when no journal
// is configured.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, e domain.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}
