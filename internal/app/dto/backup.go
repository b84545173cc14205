package dto

import (
	"time"

	"villaledger/internal/app/policies"
)

type Backup struct {
	Reservations []Reservation `json:"reservations"`
	Prices       []PriceRule   `json:"prices"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
}

func MapBackup(b policies.Backup) Backup {
	out := Backup{
		Reservations: MapReservations(b.Reservations),
		Prices:       MapPriceRules(b.Prices),
	}
	if !b.UpdatedAt.IsZero() {
		at := b.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}

type BackupResult struct {
	Reservations int       `json:"reservations"`
	Prices       int       `json:"prices"`
	Source       string    `json:"source"`
	WrittenAt    time.Time `json:"written_at"`
}

type SyncResult struct {
	Reservations      int    `json:"reservations"`
	Prices            int    `json:"prices"`
	CommissionUpdated bool   `json:"commission_updated"`
	PriceSource       string `json:"price_source"`
	Warning           string `json:"warning,omitempty"`
}

type Settings struct {
	CommissionRate float64 `json:"commission"`
	Precedence     string  `json:"precedence"`
}
