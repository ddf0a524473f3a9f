package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/todolist/internal/models"
)

func TestTodosKey(t *testing.T) {
	assert.Equal(t, "todolist:todos:42", todosKey("42"))
	assert.Equal(t, "todolist:todos-generation:42", generationKey("42"))
}

func TestUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewWithClient(client, time.Minute)
	defer c.Close()

	_, found, err := c.GetTodos(context.Background(), "42")
	assert.Error(t, err)
	assert.False(t, found)

	assert.Error(t, c.SetTodos(context.Background(), "42", 0, []models.Todo{}))
}

// TestCache needs a Redis server at TODOLIST_TEST_REDIS_ADDR.
func TestCache(t *testing.T) {
	addr := os.Getenv("TODOLIST_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TODOLIST_TEST_REDIS_ADDR is not set")
	}

	ctx := context.Background()
	c, err := New(ctx, addr, "", 0, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.InvalidateTodos(ctx, "user"))

	_, found, err := c.GetTodos(ctx, "user")
	require.NoError(t, err)
	assert.False(t, found)

	generation, err := c.TodosGeneration(ctx, "user")
	require.NoError(t, err)

	todos := []models.Todo{{ID: "t1", UserID: "user", Name: "first", Done: true}}
	require.NoError(t, c.SetTodos(ctx, "user", generation, todos))

	cached, found, err := c.GetTodos(ctx, "user")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, cached, 1)
	assert.Equal(t, "first", cached[0].Name)
	assert.True(t, cached[0].Done)

	require.NoError(t, c.InvalidateTodos(ctx, "user"))
	_, found, err = c.GetTodos(ctx, "user")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetTodos(ctx, "user", generation, todos))
	_, found, err = c.GetTodos(ctx, "user")
	require.NoError(t, err)
	assert.False(t, found, "a list read before the invalidation is not cached")
}
