package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"villaledger/internal/domain/reservations"
)

type ReservationRepository struct {
	mu     sync.RWMutex
	items  map[reservations.ID]*reservations.Reservation
	issued reservations.ID
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[reservations.ID]*reservations.Reservation)}
}

// NextID never hands out an id twice, even before the booking is saved.
func (r *ReservationRepository) NextID(ctx context.Context, now time.Time) (reservations.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := r.issued
	for id := range r.items {
		if id > last {
			last = id
		}
	}
	r.issued = reservations.NextID(last, now)
	return r.issued, nil
}

// List returns copies ordered by id.
func (r *ReservationRepository) List(ctx context.Context) ([]*reservations.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*reservations.Reservation, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservations.ID) (*reservations.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, reservations.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *reservations.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[res.ID] = res.Clone()
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id reservations.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return reservations.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ReservationRepository) ReplaceAll(ctx context.Context, list []*reservations.Reservation) error {
	items := make(map[reservations.ID]*reservations.Reservation, len(list))
	for _, res := range list {
		if res != nil {
			items[res.ID] = res.Clone()
		}
	}
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	return nil
}

var _ reservations.Repository = (*ReservationRepository)(nil)
