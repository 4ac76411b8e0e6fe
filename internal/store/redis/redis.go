// Package redis implements store.IdentityStore on Redis.
//
// Each profile is a JSON string under <prefix>identity:<id>; the set
// <prefix>identities indexes the known IDs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/store"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "secretary:"

// Store is a Redis-backed identity store.
type Store struct {
	client *redis.Client
	prefix string
}

var _ store.IdentityStore = (*Store)(nil)

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return New(client, ""), nil
}

// New wraps an existing client. An empty prefix selects DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(id string) string { return s.prefix + "identity:" + id }

func (s *Store) indexKey() string { return s.prefix + "identities" }

func (s *Store) SaveIdentity(ctx context.Context, identity *model.SenderIdentity) error {
	if identity == nil || identity.ID == "" {
		return nil
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(identity.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), identity.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save identity %s: %w", identity.ID, err)
	}
	return nil
}

// GetIdentity returns nil, nil when the sender has no entry.
func (s *Store) GetIdentity(ctx context.Context, id string) (*model.SenderIdentity, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity %s: %w", id, err)
	}
	var p model.SenderIdentity
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode identity %s: %w", id, err)
	}
	return &p, nil
}

// ListIdentities returns every indexed profile sorted by ID. Index entries
// whose key has disappeared are skipped.
func (s *Store) ListIdentities(ctx context.Context) ([]*model.SenderIdentity, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list identity ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch identities: %w", err)
	}

	out := make([]*model.SenderIdentity, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p model.SenderIdentity
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode identity %s: %w", ids[i], err)
		}
		out = append(out, &p)
	}
	return out, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
