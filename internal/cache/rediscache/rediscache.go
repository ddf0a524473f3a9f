// Package rediscache keeps the todo lists of users in Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/patric-chuzhbe/todolist/internal/models"
)

const (
	todosKeyPrefix      = "todolist:todos:"
	generationKeyPrefix = "todolist:todos-generation:"
)

// Cache stores serialized todo lists with a fixed time to live.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the Redis server at addr and checks it answers.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("in internal/cache/rediscache/rediscache.go/New(): error while `client.Ping()` calling: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

func todosKey(userID string) string {
	return todosKeyPrefix + userID
}

func generationKey(userID string) string {
	return generationKeyPrefix + userID
}

// GetTodos returns the cached todo list of the user and whether there was one.
func (c *Cache) GetTodos(ctx context.Context, userID string) ([]models.Todo, bool, error) {
	val, err := c.client.Get(ctx, todosKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var todos []models.Todo
	if err := json.Unmarshal(val, &todos); err != nil {
		return nil, false, err
	}

	return todos, true, nil
}

// TodosGeneration returns the invalidation counter of the user's list.
// Read it before loading the list from storage and hand it to SetTodos.
func (c *Cache) TodosGeneration(ctx context.Context, userID string) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return generation, err
}

// SetTodos caches the todo list of the user unless the list was invalidated
// since generation was read.
func (c *Cache) SetTodos(ctx context.Context, userID string, generation int64, todos []models.Todo) error {
	b, err := json.Marshal(todos)
	if err != nil {
		return err
	}

	genKey := generationKey(userID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, todosKey(userID), b, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}

	return err
}

// InvalidateTodos drops the cached todo list of the user and bumps its generation.
func (c *Cache) InvalidateTodos(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(userID))
		pipe.Del(ctx, todosKey(userID))
		return nil
	})

	return err
}

func (c *Cache) Close() error {
	return c.client.Close()
}
