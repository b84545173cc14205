package reservations

import (
	"strconv"
	"time"

	"villaledger/internal/domain/shared/events"
	"villaledger/internal/domain/units"
)

type Saved struct {
	Reservation Reservation
	Created     bool
	At          time.Time
}

func (e Saved) EventName() string     { return "reservation.saved" }
func (e Saved) AggregateID() string   { return strconv.FormatInt(int64(e.Reservation.ID), 10) }
func (e Saved) OccurredAt() time.Time { return e.At }

type Deleted struct {
	ID   ID
	Unit units.Unit
	At   time.Time
}

func (e Deleted) EventName() string     { return "reservation.deleted" }
func (e Deleted) AggregateID() string   { return strconv.FormatInt(int64(e.ID), 10) }
func (e Deleted) OccurredAt() time.Time { return e.At }

var (
	_ events.DomainEvent = Saved{}
	_ events.DomainEvent = Deleted{}
)
