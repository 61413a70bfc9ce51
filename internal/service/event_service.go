package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/middleware"
	"github.com/noah-isme/skillopus-api/internal/observability"
)

const eventBufferSize = 32

// Domain event types emitted by the services.
const (
	EventEnrollmentCreated = "enrollment.created"
	EventEnrollmentUpdated = "enrollment.updated"
	EventEnrollmentDeleted = "enrollment.deleted"
	EventProgressRecorded  = "progress.recorded"
	EventCourseCreated     = "course.created"
	EventCourseDeleted     = "course.deleted"
	EventLessonCreated     = "lesson.created"
)

// EventPublisher accepts domain events produced by write operations.
type EventPublisher interface {
	Publish(ctx context.Context, event dto.DomainEvent)
}

// EventService fans domain events out to websocket subscribers of the same organization.
type EventService interface {
	EventPublisher
	Subscribe(organizationID uint) (<-chan dto.DomainEvent, func())
	Start(ctx context.Context)
}

type eventService struct {
	nats        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
	broker      *eventBroker
	nodeID      string
	now         func() time.Time
}

type eventEnvelope struct {
	Source string          `json:"source"`
	Event  dto.DomainEvent `json:"event"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.DomainEvent]struct{}
}

// NewEventService constructs the event hub. A nil NATS connection keeps delivery in-process.
func NewEventService(natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventService {
	subject := ""
	if channelBase != "" {
		subject = strings.ReplaceAll(channelBase, ":", ".")
	}

	return &eventService{
		nats:        natsConn,
		subjectBase: subject,
		logger:      logger.With().Str("component", "event_service").Logger(),
		broker: &eventBroker{
			subscribers: make(map[uint]map[chan dto.DomainEvent]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *eventService) Start(ctx context.Context) {
	if s.nats != nil && s.subjectBase != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *eventService) Publish(ctx context.Context, event dto.DomainEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if event.CorrelationID == "" {
		event.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	}

	s.deliver(event, "local")

	if s.nats == nil || s.subjectBase == "" {
		return
	}

	payload, err := json.Marshal(eventEnvelope{Source: s.nodeID, Event: event})
	if err != nil {
		s.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to encode domain event")
		return
	}
	if err := s.nats.Publish(s.subject(event.OrganizationID), payload); err != nil {
		s.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish domain event to nats")
	}
}

func (s *eventService) Subscribe(organizationID uint) (<-chan dto.DomainEvent, func()) {
	channel := make(chan dto.DomainEvent, eventBufferSize)

	s.broker.subscribe(organizationID, channel)
	observability.EventStreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(organizationID, channel)
			observability.EventStreamClients().Dec()
		})
	}

	return channel, cleanup
}

func (s *eventService) subject(organizationID uint) string {
	return fmt.Sprintf("%s.%d", s.subjectBase, organizationID)
}

func (s *eventService) deliver(event dto.DomainEvent, origin string) {
	observability.DomainEventsTotal().WithLabelValues(event.Type, origin).Inc()
	s.broker.broadcast(event.OrganizationID, event)
}

// Every node subscribes without a queue group so that each one can reach its own websocket clients.
func (s *eventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.subjectBase+".*", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain events nats subscription")
		}
	}()
}

func (s *eventService) handleEvent(payload []byte) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid domain event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	s.deliver(envelope.Event, "remote")
}

func (b *eventBroker) subscribe(organizationID uint, ch chan dto.DomainEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[organizationID]; !exists {
		b.subscribers[organizationID] = make(map[chan dto.DomainEvent]struct{})
	}
	b.subscribers[organizationID][ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(organizationID uint, ch chan dto.DomainEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[organizationID]; ok {
		if _, present := subscribers[ch]; !present {
			return
		}
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, organizationID)
		}
	}
}

func (b *eventBroker) broadcast(organizationID uint, event dto.DomainEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[organizationID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// emit publishes an event when a publisher is configured.
func emit(ctx context.Context, publisher EventPublisher, eventType string, actor Actor, organizationID, entityID uint, payload map[string]interface{}) {
	if publisher == nil {
		return
	}
	publisher.Publish(ctx, dto.DomainEvent{
		Type:           eventType,
		OrganizationID: organizationID,
		ActorID:        actor.ID,
		EntityID:       entityID,
		Payload:        payload,
	})
}
