package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"chitfund/internal/core"
)

// Event types carried on the ledger exchange.
const (
	EventPaymentRecorded = "payment.recorded"
	EventMemberUpdated   = "member.updated"
)

// LedgerEvent announces a single ledger mutation. Payment events fill the
// payment fields, member events fill Field and Value.
type LedgerEvent struct {
	Type        string    `json:"type"`
	Month       int       `json:"month,omitempty"`
	MemberID    int       `json:"member_id"`
	Status      string    `json:"status,omitempty"`
	Amount      int64     `json:"amount,omitempty"`
	PaymentDate string    `json:"payment_date,omitempty"`
	Field       string    `json:"field,omitempty"`
	Value       string    `json:"value,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewPaymentRecordedEvent(rec core.PaymentRecord) *LedgerEvent {
	return &LedgerEvent{
		Type:        EventPaymentRecorded,
		Month:       rec.Month,
		MemberID:    rec.MemberID,
		Status:      rec.Status.String(),
		Amount:      rec.Amount,
		PaymentDate: rec.PaymentDate.String(),
		Timestamp:   time.Now(),
	}
}

func NewMemberUpdatedEvent(m core.Member, field core.ProfileField) *LedgerEvent {
	return &LedgerEvent{
		Type:      EventMemberUpdated,
		MemberID:  m.ID,
		Field:     string(field),
		Value:     m.Get(field),
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventPaymentRecorded, EventMemberUpdated:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
