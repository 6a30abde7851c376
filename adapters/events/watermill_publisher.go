package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/ports"
)

// Event types carried in the "type" metadata field
const (
	TypeWalletCreated  = "wallet.created"
	TypeActionExecuted = "wallet.action"
)

// DefaultTopic is the topic wallet events are published to
const DefaultTopic = "smartwallet.events"

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher. An empty topic
// selects DefaultTopic.
func NewWatermillPublisher(publisher message.Publisher, topic string) ports.EventPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &WatermillPublisher{
		publisher: publisher,
		topic:     topic,
	}
}

// PublishWalletCreated publishes a wallet creation event
func (p *WatermillPublisher) PublishWalletCreated(ctx context.Context, event core.WalletCreated) error {
	return p.publish(ctx, TypeWalletCreated, event.Wallet, event)
}

// PublishActionExecuted publishes an executed action event
func (p *WatermillPublisher) PublishActionExecuted(ctx context.Context, event core.ActionExecuted) error {
	return p.publish(ctx, TypeActionExecuted, event.Wallet, event)
}

func (p *WatermillPublisher) publish(ctx context.Context, eventType string, wallet core.Address, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", eventType)
	msg.Metadata.Set("wallet", wallet.String())

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
