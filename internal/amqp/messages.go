package amqp

import (
	"encoding/json"
	"time"

	"wattbudget/internal/core"
)

// OutcomeMessage is the wire form of a run outcome. Amounts are cents; the
// average is a decimal string to avoid float drift in consumers.
type OutcomeMessage struct {
	Reason        string    `json:"reason"`
	Attempted     bool      `json:"attempted"`
	Applied       bool      `json:"applied"`
	PreviousKnown bool      `json:"previous_known"`
	PreviousCents int64     `json:"previous_cents"`
	NewCents      int64     `json:"new_cents"`
	AvgKWh        string    `json:"avg_kwh,omitempty"`
	WindowStart   string    `json:"window_start,omitempty"`
	WindowEnd     string    `json:"window_end,omitempty"`
	Error         string    `json:"error,omitempty"`
	RanAt         time.Time `json:"ran_at"`
}

// NewOutcomeMessage flattens a PublishOutcome for the wire.
func NewOutcomeMessage(outcome core.PublishOutcome, ranAt time.Time) *OutcomeMessage {
	msg := &OutcomeMessage{
		Reason:        string(outcome.Reason),
		Attempted:     outcome.Attempted,
		Applied:       outcome.Applied,
		PreviousKnown: outcome.PreviousKnown,
		PreviousCents: outcome.Previous.Cents,
		NewCents:      outcome.New.Cents,
		RanAt:         ranAt,
	}
	if avg := outcome.Average; avg.SampleCount > 0 {
		msg.AvgKWh = avg.KWhPerMonth.String()
		msg.WindowStart = avg.WindowStart.String()
		msg.WindowEnd = avg.WindowEnd.String()
	}
	if outcome.Err != nil {
		msg.Error = outcome.Err.Error()
	}
	return msg
}

// ToJSON converts the message to JSON bytes.
func (m *OutcomeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OutcomeMessageFromJSON creates a message from JSON bytes.
func OutcomeMessageFromJSON(data []byte) (*OutcomeMessage, error) {
	var msg OutcomeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
