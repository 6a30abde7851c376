package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/smartwallet/core"
)

func TestPublishActionExecuted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()
	messages, err := pubSub.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubSub, "")
	event := core.ActionExecuted{
		Wallet:        core.Address{7},
		Authenticator: core.Address{8},
		Action:        core.ActionExecuteCpi.String(),
		Nonce:         3,
		TxID:          "tx-1",
		At:            time.Unix(1_700_000_000, 0).UTC(),
	}
	require.NoError(t, publisher.PublishActionExecuted(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, TypeActionExecuted, msg.Metadata.Get("type"))
		assert.Equal(t, event.Wallet.String(), msg.Metadata.Get("wallet"))
		assert.NotEmpty(t, msg.UUID)

		var got core.ActionExecuted
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, event, got)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}

func TestPublishWalletCreatedToTopic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()
	messages, err := pubSub.Subscribe(ctx, "wallets")
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubSub, "wallets")
	require.NoError(t, publisher.PublishWalletCreated(ctx, core.WalletCreated{Wallet: core.Address{1}, ID: 4}))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, TypeWalletCreated, msg.Metadata.Get("type"))
		var got core.WalletCreated
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, uint64(4), got.ID)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}
