// Package redis implements ports.DraftStore on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/warp/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// noExpiry is the index score used when drafts never expire (2100-01-01).
const noExpiry = 4102444800

// Store keeps drafts as JSON strings with an expiry-scored index set.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for drafts.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for drafts.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store that owns its client.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromURL parses a redis:// URL.
func NewFromURL(rawURL string, opts ...Option) (*Store, error) {
	o, err := backend.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(o), opts...), nil
}

// NewFromClient creates a store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "warp:draft:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(workflowID string) string {
	return s.prefix + workflowID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save stores the draft and indexes it by expiry.
func (s *Store) Save(ctx context.Context, draft ports.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(draft.WorkflowID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: draft.WorkflowID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves a draft.
func (s *Store) Load(ctx context.Context, workflowID string) (ports.Draft, error) {
	val, err := s.client.Get(ctx, s.key(workflowID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return ports.Draft{}, ports.ErrDraftNotFound
		}
		return ports.Draft{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var draft ports.Draft
	if err := json.Unmarshal(val, &draft); err != nil {
		return ports.Draft{}, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return draft, nil
}

// Delete removes a draft and its index entry.
func (s *Store) Delete(ctx context.Context, workflowID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(workflowID))
	pipe.ZRem(ctx, s.indexKey(), workflowID)
	_, err := pipe.Exec(ctx)
	return err
}

// List prunes expired index entries and returns the rest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired drafts: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
