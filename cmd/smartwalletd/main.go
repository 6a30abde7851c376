package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/layer-3/smartwallet/adapters/clock"
	"github.com/layer-3/smartwallet/adapters/events"
	"github.com/layer-3/smartwallet/adapters/store"
	"github.com/layer-3/smartwallet/adapters/tokenizer"
	"github.com/layer-3/smartwallet/config"
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/ports"
	"github.com/layer-3/smartwallet/program"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/service"
	"github.com/layer-3/smartwallet/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	accounts, publisher := setupInfrastructure(cfg)

	adminKey, err := loadAdminKey(cfg.AdminKeyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load admin key")
	}
	relayer, err := relayerAddress(cfg.RelayerAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up relayer")
	}

	rt := runtime.New(accounts, clock.NewSystemClock(),
		runtime.WithLogger(log.Logger),
		runtime.WithFeePerSignature(cfg.FeePerSignature),
	)
	tokens := tokenizer.NewJWTTokenizer(adminKey, time.Duration(cfg.AdminTokenTTLSeconds)*time.Second)
	eventPub := events.NewWatermillPublisher(publisher, cfg.EventsStream)

	walletService := service.NewWalletService(rt, tokens, eventPub, clock.NewSystemClock(), relayer,
		service.WithLogger(log.Logger),
	)

	ctx := context.Background()
	if cfg.RelayerAirdrop > 0 {
		if err := walletService.Airdrop(ctx, relayer, cfg.RelayerAirdrop); err != nil {
			log.Fatal().Err(err).Msg("failed to fund relayer")
		}
	}
	if err := walletService.Bootstrap(ctx, program.InitializeArgs{
		CreateWalletFee:        cfg.CreateWalletFee,
		ReplayWindow:           cfg.ReplayWindowSeconds,
		ReimbursementAllowance: cfg.ReimbursementAllowance,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap engine")
	}

	adminToken, err := walletService.IssueAdminToken(relayer.String())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to issue admin token")
	}
	log.Info().
		Str("relayer", relayer.String()).
		Str("program", core.ProgramID.String()).
		Str("admin_token", adminToken).
		Msg("smartwallet ready")

	router := http.SetupRouter(walletService)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// setupInfrastructure selects redis-backed state and events when a redis
// URL is configured, in-memory ones otherwise.
func setupInfrastructure(cfg *config.Config) (ports.AccountStore, message.Publisher) {
	wmLogger := watermill.NewStdLogger(false, false)

	if cfg.RedisURL == "" {
		log.Warn().Msg("no redis_url configured, state is kept in memory")
		return store.NewMemoryStore(), gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse redis URL")
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		wmLogger,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create redis publisher")
	}

	return store.NewRedisStore(redisClient), publisher
}

func loadAdminKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		log.Warn().Msg("no admin_key_file configured, using an ephemeral admin key")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read admin key")
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("admin key is not PEM encoded")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parse admin key")
	}
	return key, nil
}

func relayerAddress(configured string) (core.Address, error) {
	if configured != "" {
		return core.ParseAddress(configured)
	}
	var addr core.Address
	if _, err := rand.Read(addr[:]); err != nil {
		return core.Address{}, err
	}
	return addr, nil
}
