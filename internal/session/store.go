// Package session holds the per-client session bag in redis and ties it to
// the browser through a signed cookie carrying only the opaque session id.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"filehost/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

const keyPrefix = "sess"

// Store persists sessions as JSON values with a sliding TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) key(sid string) string { return keyPrefix + ":" + sid }

func (s *Store) Get(ctx context.Context, sid string) (*domain.Session, error) {
	raw, err := s.rdb.Get(ctx, s.key(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: session read: %v", domain.ErrStoreUnavailable, err)
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A blob we cannot decode is as good as no session at all.
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *Store) Save(ctx context.Context, sid string, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(sid), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: session write: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("%w: session delete: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
