package outbox

import (
	"context"
	"sync"
	"time"

	appoutbox "villaledger/internal/app/outbox"
)

// MemoryStore is the process-local queue used when no database is configured.
// Sent records are dropped; everything else survives until the process exits.
type MemoryStore struct {
	mu      sync.Mutex
	pending []*EventDocument
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Add(_ context.Context, record appoutbox.EventRecord) error {
	doc := newEventDocument(record, s.now().UTC())
	s.mu.Lock()
	s.pending = append(s.pending, &doc)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Flush(context.Context) error {
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for _, doc := range s.pending {
		if doc.State == stateClaimed || doc.NextAttempt.After(now) {
			continue
		}
		doc.State = stateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		c := *doc
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range s.pending {
		if doc.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.pending {
		if doc.ID == id {
			doc.State = stateFailed
			doc.NextAttempt = next
			doc.LastError = errMsg
			doc.Attempts++
			return nil
		}
	}
	return nil
}

// Len reports how many records are waiting for delivery.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

var (
	_ appoutbox.Outbox = (*MemoryStore)(nil)
	_ Queue            = (*MemoryStore)(nil)
)
