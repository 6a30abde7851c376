package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/layer-3/smartwallet/core"
)

// EnvPrefix prefixes every environment override, e.g. SMARTWALLET_HTTP_ADDR.
const EnvPrefix = "SMARTWALLET"

// Config is the daemon configuration
type Config struct {
	HTTPAddr               string `mapstructure:"http_addr"`
	RedisURL               string `mapstructure:"redis_url"`
	LogLevel               string `mapstructure:"log_level"`
	ReplayWindowSeconds    int64  `mapstructure:"replay_window_seconds"`
	ReimbursementAllowance uint64 `mapstructure:"reimbursement_allowance"`
	CreateWalletFee        uint64 `mapstructure:"create_wallet_fee"`
	FeePerSignature        uint64 `mapstructure:"fee_per_signature"`
	AdminKeyFile           string `mapstructure:"admin_key_file"`
	AdminTokenTTLSeconds   int64  `mapstructure:"admin_token_ttl_seconds"`
	RelayerAddress         string `mapstructure:"relayer_address"`
	RelayerAirdrop         uint64 `mapstructure:"relayer_airdrop"`
	EventsStream           string `mapstructure:"events_stream"`
}

// SetDefaults registers the default of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":9000")
	v.SetDefault("redis_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("replay_window_seconds", core.DefaultReplayWindow)
	v.SetDefault("reimbursement_allowance", core.DefaultReimbursementAllowance)
	v.SetDefault("create_wallet_fee", 0)
	v.SetDefault("fee_per_signature", 5000)
	v.SetDefault("admin_key_file", "")
	v.SetDefault("admin_token_ttl_seconds", 3600)
	v.SetDefault("relayer_address", "")
	v.SetDefault("relayer_airdrop", 10*core.LamportsPerSOL)
	v.SetDefault("events_stream", "smartwallet.events")
}

// Load reads the YAML file at path, if any, and applies environment
// overrides on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	if c.ReplayWindowSeconds < 0 {
		return errors.New("replay_window_seconds must not be negative")
	}
	if c.RelayerAddress != "" {
		if _, err := core.ParseAddress(c.RelayerAddress); err != nil {
			return errors.Wrap(err, "relayer_address")
		}
	}
	return nil
}
