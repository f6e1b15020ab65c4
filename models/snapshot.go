package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PropertySnapshot is one observation of a listing, keyed by the record
// fingerprint so repeated watch runs build a price history.
type PropertySnapshot struct {
	ID          int64           `json:"id" db:"id"`
	Fingerprint string          `json:"fingerprint" db:"fingerprint"`
	RunID       uuid.UUID       `json:"run_id" db:"run_id"`
	Role        string          `json:"role" db:"role"` // subject or comparable
	URL         string          `json:"url" db:"url"`
	Price       *float64        `json:"price" db:"price"`
	CapRate     *float64        `json:"cap_rate" db:"cap_rate"`
	Data        json.RawMessage `json:"data" db:"data"`
	ScrapedAt   time.Time       `json:"scraped_at" db:"scraped_at"`
}

const (
	SnapshotRoleSubject    = "subject"
	SnapshotRoleComparable = "comparable"
)

// PriceChange compares the two most recent snapshots of a property.
type PriceChange struct {
	Fingerprint string    `json:"fingerprint"`
	URL         string    `json:"url"`
	OldPrice    float64   `json:"old_price"`
	NewPrice    float64   `json:"new_price"`
	ChangedAt   time.Time `json:"changed_at"`
}
