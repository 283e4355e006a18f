package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// School represents one UK school establishment, keyed by its URN.
type School struct {
	URN                 int
	EstablishmentName   string
	LocalAuthority      string
	EstablishmentStatus string
	Website             sql.NullString
	Process             bool
	SecondScraper       bool
	ThirdScraper        bool
}

// SchoolRecord is one JSON payload snapshot tied to a school. A school can
// have many records; the most recently created one is the current record.
type SchoolRecord struct {
	ID        int
	SchoolURN int
	Payload   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PayloadValue decodes the stored JSONB payload. A stored JSON null (or an
// absent payload) decodes to nil.
func (r *SchoolRecord) PayloadValue() (any, error) {
	if len(r.Payload) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(r.Payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}
