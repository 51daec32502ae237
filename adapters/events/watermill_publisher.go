package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

const (
	LoginTopic  = "auth.login"
	LogoutTopic = "auth.logout"
)

// LoginEvent is published after a successful OTP login. The phone is masked;
// consumers that need the full number resolve it through the identity
// service.
type LoginEvent struct {
	UserID string `json:"user_id"`
	Phone  string `json:"phone"`
}

// LogoutEvent is published after a refresh token is revoked by logout.
type LogoutEvent struct {
	UserID  string `json:"user_id"`
	TokenID string `json:"token_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, userID core.UserID, phone string) error {
	return p.publish(LoginTopic, LoginEvent{
		UserID: string(userID),
		Phone:  core.MaskPhone(phone),
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, userID core.UserID, tokenID string) error {
	return p.publish(LogoutTopic, LogoutEvent{
		UserID:  string(userID),
		TokenID: tokenID,
	})
}

func (p *WatermillPublisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// NoopPublisher drops all events. Used in tests and single-instance dev
// setups where nothing consumes the stream.
type NoopPublisher struct{}

func NewNoopPublisher() ports.EventPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) PublishLogin(ctx context.Context, userID core.UserID, phone string) error {
	return nil
}

func (NoopPublisher) PublishLogout(ctx context.Context, userID core.UserID, tokenID string) error {
	return nil
}
