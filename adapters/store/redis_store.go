package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
	"github.com/layer-3/smartwallet/ports"
)

// RedisStore is a Redis implementation of the AccountStore interface
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) ports.AccountStore {
	return &RedisStore{
		client: client,
		prefix: "smartwallet:account:",
	}
}

func (s *RedisStore) key(address core.Address) string {
	return s.prefix + address.String()
}

// GetAccount loads an account from Redis
func (s *RedisStore) GetAccount(ctx context.Context, address core.Address) (*core.Account, error) {
	val, err := s.client.Get(ctx, s.key(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load account")
	}

	acc, err := decodeAccount(val)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode account %s", address)
	}
	return acc, nil
}

// CommitAccounts writes all accounts in one MULTI/EXEC block
func (s *RedisStore) CommitAccounts(ctx context.Context, accounts map[core.Address]*core.Account) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for addr, acc := range accounts {
			if acc == nil || acc.IsEmpty() {
				pipe.Del(ctx, s.key(addr))
				continue
			}
			pipe.Set(ctx, s.key(addr), encodeAccount(acc), 0)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to commit accounts")
	}
	return nil
}

func encodeAccount(acc *core.Account) []byte {
	w := layout.NewWriter(8 + 32 + 1 + 4 + len(acc.Data))
	w.U64(acc.Lamports)
	w.Raw(acc.Owner[:])
	w.Bool(acc.Executable)
	w.Vec(acc.Data)
	return w.Bytes()
}

func decodeAccount(b []byte) (*core.Account, error) {
	r := layout.NewReader(b)
	acc := &core.Account{Lamports: r.U64()}
	r.Raw(acc.Owner[:])
	acc.Executable = r.Bool()
	acc.Data = r.Vec()
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return acc, nil
}
