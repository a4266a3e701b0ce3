package matter

import "encoding/json"

// EventType discriminates formation events.
type EventType string

const (
	EventUserInput             EventType = "user_input"
	EventConflictCheckComplete EventType = "conflict_check_complete"
	EventDocumentsReceived     EventType = "documents_received"
	EventPaymentComplete       EventType = "payment_complete"
	EventLetterSigned          EventType = "letter_signed"
)

// knownEventTypes is the set of event types the machine interprets.
var knownEventTypes = map[EventType]bool{
	EventUserInput:             true,
	EventConflictCheckComplete: true,
	EventDocumentsReceived:     true,
	EventPaymentComplete:       true,
	EventLetterSigned:          true,
}

// Known reports whether t is a recognized event type.
func (t EventType) Known() bool { return knownEventTypes[t] }

// UserInputPayload carries facts stated by the client in conversation.
type UserInputPayload struct {
	Message        string      `json:"message,omitempty"`
	ClientInfo     *ClientInfo `json:"client_info,omitempty"`
	OpposingParty  string      `json:"opposing_party,omitempty"`
	MatterType     string      `json:"matter_type,omitempty"`
	Jurisdiction   string      `json:"jurisdiction,omitempty"`
	FeeApproved    bool        `json:"fee_approved,omitempty"`
	LetterSigned   bool        `json:"letter_signed,omitempty"`
	CompletedItems []string    `json:"completed_items,omitempty"`
}

// ConflictCheckPayload reports the outcome of an external conflicts search.
type ConflictCheckPayload struct {
	Cleared bool   `json:"cleared"`
	Notes   string `json:"notes,omitempty"`
}

// ReceivedDocument is one document delivered by the client.
type ReceivedDocument struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

// DocumentsPayload lists documents received from the client.
type DocumentsPayload struct {
	Documents []ReceivedDocument `json:"documents,omitempty"`
}

// PaymentPayload confirms a fee or retainer payment.
type PaymentPayload struct {
	AmountCents int64  `json:"amount_cents,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// LetterPayload confirms a signed engagement letter.
type LetterPayload struct {
	SignedBy string `json:"signed_by,omitempty"`
	SignedAt string `json:"signed_at,omitempty"`
}

// Event is a formation command. Exactly one payload field is populated,
// selected by Type. Events are commands, not facts: an event that does not
// satisfy its stage's exit condition still updates the brief and timeline.
type Event struct {
	Type           EventType `json:"type"`
	OrganizationID string    `json:"organization_id,omitempty"`
	MatterID       string    `json:"matter_id,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`

	UserInput     *UserInputPayload     `json:"user_input,omitempty"`
	ConflictCheck *ConflictCheckPayload `json:"conflict_check,omitempty"`
	Documents     *DocumentsPayload     `json:"documents,omitempty"`
	Payment       *PaymentPayload       `json:"payment,omitempty"`
	Letter        *LetterPayload        `json:"letter,omitempty"`
}

// eventWire is the inbound JSON shape: a type tag plus an untyped payload
// object that is decoded into the matching typed payload.
type eventWire struct {
	Type           EventType       `json:"type"`
	OrganizationID string          `json:"organization_id,omitempty"`
	MatterID       string          `json:"matter_id,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// ParseEvent decodes an event body permissively. A body that cannot be
// decoded at all yields a default user_input event; an unknown type is kept
// so the machine can treat it as a no-op. Authorization stays strict at the
// caller, parsing does not.
func ParseEvent(body []byte) Event {
	var wire eventWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return Event{Type: EventUserInput, UserInput: &UserInputPayload{}}
	}

	ev := Event{
		Type:           wire.Type,
		OrganizationID: wire.OrganizationID,
		MatterID:       wire.MatterID,
		IdempotencyKey: wire.IdempotencyKey,
	}
	if ev.Type == "" {
		ev.Type = EventUserInput
	}

	switch ev.Type {
	case EventUserInput:
		p := &UserInputPayload{}
		if wire.Payload != nil {
			_ = json.Unmarshal(wire.Payload, p)
		}
		ev.UserInput = p
	case EventConflictCheckComplete:
		p := &ConflictCheckPayload{}
		if wire.Payload != nil {
			_ = json.Unmarshal(wire.Payload, p)
		}
		ev.ConflictCheck = p
	case EventDocumentsReceived:
		p := &DocumentsPayload{}
		if wire.Payload != nil {
			_ = json.Unmarshal(wire.Payload, p)
		}
		ev.Documents = p
	case EventPaymentComplete:
		p := &PaymentPayload{}
		if wire.Payload != nil {
			_ = json.Unmarshal(wire.Payload, p)
		}
		ev.Payment = p
	case EventLetterSigned:
		p := &LetterPayload{}
		if wire.Payload != nil {
			_ = json.Unmarshal(wire.Payload, p)
		}
		ev.Letter = p
	}

	return ev
}
