package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names what changed in the ledger.
type EventType string

const (
	RuleCreated         EventType = "rule.created"
	RuleUpdated         EventType = "rule.updated"
	RuleArchived        EventType = "rule.archived"
	OverrideSet         EventType = "override.set"
	OverrideCleared     EventType = "override.cleared"
	TransactionCreated  EventType = "transaction.created"
	TransactionDeleted  EventType = "transaction.deleted"
	InstallmentsCreated EventType = "installments.created"
	InstallmentsDeleted EventType = "installments.deleted"
)

// LedgerEvent tells consumers which month needs recomputing. Month is 1-12,
// or 0 when the whole year is affected (rule changes).
type LedgerEvent struct {
	Type      EventType `json:"type"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	RefID     string    `json:"ref_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(t EventType, year int, month time.Month, refID string) *LedgerEvent {
	return &LedgerEvent{
		Type:      t,
		Year:      year,
		Month:     int(month),
		RefID:     refID,
		Timestamp: time.Now(),
	}
}

// WholeYear reports whether every month of Year must be recomputed.
func (m *LedgerEvent) WholeYear() bool {
	return m.Month == 0
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("missing event type")
	}
	if msg.Month < 0 || msg.Month > 12 {
		return nil, fmt.Errorf("invalid month %d", msg.Month)
	}
	if msg.Year <= 0 {
		return nil, fmt.Errorf("invalid year %d", msg.Year)
	}
	return &msg, nil
}
