package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/37vikanshu-dot/Mini-Drop/cart"
)

// CartSessions stores customer sessions under cart:<session id>, refreshing
// the TTL on every save.
type CartSessions struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCartSessions(rdb *redis.Client, ttl time.Duration) *CartSessions {
	return &CartSessions{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("cart:%s", id)
}

func (s *CartSessions) Load(ctx context.Context, id string) (*cart.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.NewSession(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	sess := &cart.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, nil
}

func (s *CartSessions) Save(ctx context.Context, sess *cart.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err()
}

func (s *CartSessions) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}
