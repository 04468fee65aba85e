package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash that holds all keys when none is configured.
const DefaultRedisKey = "alarm-manager"

// RedisOptions configures RedisStore.
type RedisOptions struct {
	// Address is the host:port of the redis server.
	Address string
	// Username is the ACL user, empty for the default user.
	Username string
	// Password authenticates the connection.
	Password string
	// DB selects the logical database.
	DB int
	// Key is the hash holding the store.
	Key string
}

// RedisStore keeps every path as a field of one redis hash.
type RedisStore struct {
	// client is the redis connection pool.
	client redis.UniversalClient
	// key is the hash name.
	key string
}

// NewRedisStore creates a store on a new client. The connection is
// established lazily; use Ping to check it.
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	return NewRedisStoreWithClient(client, opts.Key)
}

// NewRedisStoreWithClient creates a store on an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisStore{
		client: client,
		key:    key,
	}
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get returns the value at path.
func (s *RedisStore) Get(ctx context.Context, path string) (string, error) {
	value, err := s.client.HGet(ctx, s.key, path).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("redis hget %s: %w", path, err)
	}

	return value, nil
}

// Set writes one value.
func (s *RedisStore) Set(ctx context.Context, path, value string) error {
	return s.SetMany(ctx, map[string]string{path: value})
}

// SetMany writes several fields with one HSET.
func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	args := make([]any, 0, 2*len(values))

	for path, value := range values {
		if err := checkPath(path); err != nil {
			return err
		}

		args = append(args, path, value)
	}

	if err := s.client.HSet(ctx, s.key, args...).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}

	return nil
}

// ResetSubtree removes the fields in the subtree of path.
func (s *RedisStore) ResetSubtree(ctx context.Context, path string) error {
	fields, err := s.client.HKeys(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("redis hkeys: %w", err)
	}

	doomed := fields[:0]

	for _, field := range fields {
		if InSubtree(field, path) {
			doomed = append(doomed, field)
		}
	}

	if len(doomed) == 0 {
		return nil
	}

	if err = s.client.HDel(ctx, s.key, doomed...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}

	return nil
}

// Enumerate returns the fields in the subtree of prefix.
func (s *RedisStore) Enumerate(ctx context.Context, prefix string) (map[string]string, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	for field := range all {
		if !InSubtree(field, prefix) {
			delete(all, field)
		}
	}

	return all, nil
}
