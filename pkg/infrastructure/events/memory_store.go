package events

import (
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps the events of the current process only.
// Subscribers are notified synchronously, in append order, after the store lock is released.
type InMemoryEventStore struct {
	runs        map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	position    int
	allEvents   []Event
	logger      *zap.Logger
}

// NewInMemoryEventStore creates an empty store. Handler failures are logged to logger.
func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		runs:        make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		logger:      logger,
	}
}

func (s *InMemoryEventStore) AppendEvent(runID string, event Event) error {
	s.mutex.Lock()

	if s.runs[runID] == nil {
		s.runs[runID] = make([]Event, 0)
	}

	record := Record{
		EventID:   event.ID(),
		EventType: event.Type(),
		Run:       runID,
		Payload:   event.Data(),
		At:        event.Timestamp(),
		Seq:       len(s.runs[runID]) + 1,
	}

	s.runs[runID] = append(s.runs[runID], record)
	s.allEvents = append(s.allEvents, record)
	s.position++

	handlers := append([]EventHandler(nil), s.subscribers[record.EventType]...)
	s.mutex.Unlock()

	s.notifySubscribers(record, handlers)

	return nil
}

func (s *InMemoryEventStore) ReadEvents(runID string, fromSequence int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.runs[runID]
	if !exists {
		return []Event{}, nil
	}

	if fromSequence < 1 {
		fromSequence = 1
	}

	if fromSequence > len(events) {
		return []Event{}, nil
	}

	return append([]Event(nil), events[fromSequence-1:]...), nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}

	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	return append([]Event(nil), s.allEvents[fromPosition:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		newHandlers := make([]EventHandler, 0)
		for _, h := range handlers {
			if h != handler {
				newHandlers = append(newHandlers, h)
			}
		}
		s.subscribers[eventType] = newHandlers
	}

	return nil
}

func (s *InMemoryEventStore) notifySubscribers(event Event, handlers []EventHandler) {
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_type", event.Type()),
				zap.String("run_id", event.RunID()),
				zap.Error(err))
		}
	}
}

// LoggingHandler writes every handled event to a structured logger
type LoggingHandler struct {
	logger *zap.Logger
	types  map[string]bool
}

// NewLoggingHandler creates a handler for the given event types
func NewLoggingHandler(logger *zap.Logger, eventTypes ...string) *LoggingHandler {
	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}
	return &LoggingHandler{logger: logger, types: types}
}

func (h *LoggingHandler) Handle(event Event) error {
	h.logger.Debug("event",
		zap.String("event_type", event.Type()),
		zap.String("run_id", event.RunID()),
		zap.Int("sequence", event.Sequence()),
		zap.Any("data", event.Data()))
	return nil
}

func (h *LoggingHandler) CanHandle(eventType string) bool {
	return h.types[eventType]
}
