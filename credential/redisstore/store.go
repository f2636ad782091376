// Package redisstore implements [credential.Store] on Redis.
//
// Each record is one string key, "<prefix>:<subject>", holding a compact
// binary encoding of the record. Create uses SET NX and Update uses SET XX,
// so both are single round trips with no read-modify-write window.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hasbyte1/go-passlib/credential"
)

// DefaultPrefix is the key prefix used when none is supplied.
const DefaultPrefix = "pcr"

var (
	// ErrUnavailable wraps errors returned by the Redis client.
	ErrUnavailable = errors.New("credential/redisstore: redis unavailable")

	// ErrCorruptRecord is returned when a stored value cannot be decoded.
	ErrCorruptRecord = errors.New("credential/redisstore: corrupt record")
)

// Store is a [credential.Store] backed by a Redis client.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Store using client. An empty prefix selects [DefaultPrefix].
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(subject string) string {
	return s.prefix + ":" + subject
}

// Create stores rec unless its subject already has a record.
func (s *Store) Create(ctx context.Context, rec *credential.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	created, err := s.redis.SetNX(ctx, s.key(rec.Subject), data, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !created {
		return credential.ErrExists
	}
	return nil
}

// Get loads the record of subject.
func (s *Store) Get(ctx context.Context, subject string) (*credential.Record, error) {
	data, err := s.redis.Get(ctx, s.key(subject)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, credential.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if rec.Subject != subject {
		return nil, fmt.Errorf("%w: subject %q stored under %q", ErrCorruptRecord, rec.Subject, subject)
	}
	return rec, nil
}

// Update overwrites the record of rec.Subject if one exists.
func (s *Store) Update(ctx context.Context, rec *credential.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	updated, err := s.redis.SetXX(ctx, s.key(rec.Subject), data, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !updated {
		return credential.ErrNotFound
	}
	return nil
}

// Delete removes the record of subject.
func (s *Store) Delete(ctx context.Context, subject string) error {
	n, err := s.redis.Del(ctx, s.key(subject)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return credential.ErrNotFound
	}
	return nil
}
