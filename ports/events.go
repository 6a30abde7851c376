package ports

import (
	"context"

	"github.com/layer-3/smartwallet/core"
)

// EventPublisher publishes wallet events to other instances
type EventPublisher interface {
	PublishWalletCreated(ctx context.Context, event core.WalletCreated) error
	PublishActionExecuted(ctx context.Context, event core.ActionExecuted) error
}
