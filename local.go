package smartwallet

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/layer-3/smartwallet/adapters/clock"
	"github.com/layer-3/smartwallet/adapters/events"
	"github.com/layer-3/smartwallet/adapters/store"
	"github.com/layer-3/smartwallet/adapters/tokenizer"
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/ports"
	"github.com/layer-3/smartwallet/program"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/service"
)

// LocalOptions configures an in-process engine
type LocalOptions struct {
	Relayer        core.Address
	RelayerAirdrop uint64
	Clock          ports.Clock
	Init           program.InitializeArgs
}

// NewLocal runs a bootstrapped engine in memory, with events delivered
// through a Go channel pub/sub.
func NewLocal(ctx context.Context, opts LocalOptions) (*service.WalletService, error) {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystemClock()
	}
	if opts.Relayer.IsZero() {
		if _, err := rand.Read(opts.Relayer[:]); err != nil {
			return nil, err
		}
	}
	if opts.RelayerAirdrop == 0 {
		opts.RelayerAirdrop = 10 * core.LamportsPerSOL
	}
	if opts.Init.ReimbursementAllowance == 0 {
		opts.Init.ReimbursementAllowance = core.DefaultReimbursementAllowance
	}
	if opts.Init.ReplayWindow == 0 {
		opts.Init.ReplayWindow = core.DefaultReplayWindow
	}

	adminKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	rt := runtime.New(store.NewMemoryStore(), opts.Clock)
	svc := service.NewWalletService(
		rt,
		tokenizer.NewJWTTokenizer(adminKey, time.Hour),
		events.NewWatermillPublisher(pubSub, events.DefaultTopic),
		opts.Clock,
		opts.Relayer,
	)

	if err := svc.Airdrop(ctx, opts.Relayer, opts.RelayerAirdrop); err != nil {
		return nil, fmt.Errorf("failed to fund relayer: %w", err)
	}
	if err := svc.Bootstrap(ctx, opts.Init); err != nil {
		return nil, err
	}
	return svc, nil
}
