package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vyxlo/platform/internal/domain"
	pkgkafka "github.com/vyxlo/platform/pkg/kafka"
	"github.com/vyxlo/platform/pkg/logger"
)

// Event types published on the auth topic.
const (
	TypeUserRegistered = "user.registered"
	TypeUserLoggedIn   = "user.logged_in"
	TypeUserLoggedOut  = "user.logged_out"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// SourceIdentityService identifies events originating from this service.
const SourceIdentityService = "identity-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	OrganizationID   string `json:"organization_id"`
	OrganizationSlug string `json:"organization_slug"`
}

// UserLoggedInData is the payload for a user.logged_in event.
type UserLoggedInData struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	IP        string `json:"ip,omitempty"`
}

// UserLoggedOutData is the payload for a user.logged_out event.
type UserLoggedOutData struct {
	UserID          string `json:"user_id"`
	RevokedSessions int64  `json:"revoked_sessions"`
}

// Publisher is the subset of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes auth domain events to a single Kafka topic. Events are
// keyed by user ID, so one user's events stay ordered. A Producer with a nil
// Publisher drops every event, which is how Kafka is switched off.
type Producer struct {
	kafka  Publisher
	topic  string
	logger *slog.Logger
}

// NewProducer creates a new event producer for the identity service.
func NewProducer(kafka Publisher, topic string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		topic:  topic,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User, org *domain.Organization) error {
	return p.publish(ctx, TypeUserRegistered, user.ID, UserRegisteredData{
		UserID:           user.ID,
		Email:            user.Email,
		Name:             user.Name,
		OrganizationID:   org.ID,
		OrganizationSlug: org.Slug,
	})
}

// PublishUserLoggedIn publishes a user.logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, user *domain.User, session *domain.Session) error {
	data := UserLoggedInData{UserID: user.ID, SessionID: session.ID}
	if session.IP != nil {
		data.IP = *session.IP
	}
	return p.publish(ctx, TypeUserLoggedIn, user.ID, data)
}

// PublishUserLoggedOut publishes a user.logged_out event.
func (p *Producer) PublishUserLoggedOut(ctx context.Context, userID string, revoked int64) error {
	return p.publish(ctx, TypeUserLoggedOut, userID, UserLoggedOutData{
		UserID:          userID,
		RevokedSessions: revoked,
	})
}

func (p *Producer) publish(ctx context.Context, eventType, userID string, data any) error {
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(eventType, userID, AggregateTypeUser, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, p.topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published auth event",
		slog.String("event_type", eventType),
		slog.String("user_id", userID),
	)

	return nil
}
