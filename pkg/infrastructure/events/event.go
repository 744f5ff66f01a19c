package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is one fact recorded during a run. Events of a run share its run ID
// and are numbered from 1 in the order they were appended.
type Event interface {
	ID() string
	Type() string
	RunID() string
	Data() interface{}
	Timestamp() time.Time
	Sequence() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore records the events of each run and fans them out to subscribers
type EventStore interface {
	AppendEvent(runID string, event Event) error
	ReadEvents(runID string, fromSequence int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// Record is the concrete event kept by the store
type Record struct {
	EventID   string      `json:"id"`
	EventType string      `json:"type"`
	Run       string      `json:"run_id"`
	Payload   interface{} `json:"data,omitempty"`
	At        time.Time   `json:"timestamp"`
	Seq       int         `json:"sequence"`
}

func (r Record) ID() string {
	return r.EventID
}

func (r Record) Type() string {
	return r.EventType
}

func (r Record) RunID() string {
	return r.Run
}

func (r Record) Data() interface{} {
	return r.Payload
}

func (r Record) Timestamp() time.Time {
	return r.At
}

func (r Record) Sequence() int {
	return r.Seq
}

// NewEvent creates an unsequenced event; the store numbers it on append
func NewEvent(eventType, runID string, data interface{}) Event {
	return Record{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Run:       runID,
		Payload:   data,
		At:        time.Now().UTC(),
	}
}
