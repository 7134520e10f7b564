package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// topicNamespace prefixes every topic Fynd services write to.
const topicNamespace = "fynd"

// SchemaVersion is stamped on every envelope built by NewEvent. Readers
// reject envelopes from a newer schema.
const SchemaVersion = 1

// ErrMalformedEvent is returned by DecodeEvent for bytes that are not a
// usable envelope.
var ErrMalformedEvent = errors.New("malformed event")

// Topic joins domain and action under the Fynd namespace, giving names such
// as "fynd.feedback.submitted".
func Topic(domain, action string) string {
	return strings.Join([]string{topicNamespace, domain, action}, ".")
}

// Event wraps a JSON payload with the routing fields a consumer needs before
// it looks at the body. Key doubles as the partition key.
type Event struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Key           string            `json:"key"`
	Source        string            `json:"source"`
	Schema        int               `json:"schema"`
	OccurredAt    time.Time         `json:"occurred_at"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
}

// EventOption adjusts an Event while NewEvent builds it.
type EventOption func(*Event)

// WithCorrelationID ties the event to the request that caused it. An empty
// id leaves the event untouched.
func WithCorrelationID(id string) EventOption {
	return func(e *Event) {
		if id != "" {
			e.CorrelationID = id
		}
	}
}

// WithAttribute attaches a free-form string attribute.
func WithAttribute(key, value string) EventOption {
	return func(e *Event) {
		if e.Attributes == nil {
			e.Attributes = make(map[string]string)
		}
		e.Attributes[key] = value
	}
}

// NewEvent encodes payload and stamps a fresh ID and the current UTC time.
func NewEvent(eventType, key, source string, payload any, opts ...EventOption) (*Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	e := &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		Source:     source,
		Schema:     SchemaVersion,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Encode returns the wire form of e.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode unpacks the payload into target.
func (e *Event) Decode(target any) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// DecodeEvent parses the wire form of an envelope. Envelopes without a type,
// or written with a newer schema, wrap ErrMalformedEvent.
func DecodeEvent(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch {
	case e.Type == "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	case e.Schema > SchemaVersion:
		return nil, fmt.Errorf("%w: schema %d is newer than %d", ErrMalformedEvent, e.Schema, SchemaVersion)
	}
	return &e, nil
}
