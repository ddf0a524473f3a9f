package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/todolist/internal/db/memorystorage"
	"github.com/patric-chuzhbe/todolist/internal/mockstorage"
	"github.com/patric-chuzhbe/todolist/internal/models"
)

type fakeCache struct {
	mu          sync.Mutex
	todos       map[string][]models.Todo
	generations map[string]int64
	hits        int
	invalidated []string
	failGets    bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		todos:       map[string][]models.Todo{},
		generations: map[string]int64{},
	}
}

func (c *fakeCache) GetTodos(ctx context.Context, userID string) ([]models.Todo, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failGets {
		return nil, false, errors.New("cache is down")
	}
	todos, found := c.todos[userID]
	if found {
		c.hits++
	}
	return todos, found, nil
}

func (c *fakeCache) TodosGeneration(ctx context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generations[userID], nil
}

func (c *fakeCache) SetTodos(ctx context.Context, userID string, generation int64, todos []models.Todo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[userID] == generation {
		c.todos[userID] = todos
	}
	return nil
}

func (c *fakeCache) InvalidateTodos(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[userID]++
	delete(c.todos, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

// slowReadStorage runs afterRead once, between reading a todo list from
// storage and returning it.
type slowReadStorage struct {
	*memorystorage.MemoryStorage
	afterRead func()
}

func (s *slowReadStorage) GetUserTodos(ctx context.Context, userID string) ([]models.Todo, error) {
	todos, err := s.MemoryStorage.GetUserTodos(ctx, userID)
	if s.afterRead != nil {
		afterRead := s.afterRead
		s.afterRead = nil
		afterRead()
	}
	return todos, err
}

func newService(t *testing.T, options ...InitOption) *Service {
	t.Helper()
	db, err := memorystorage.New()
	require.NoError(t, err)
	return New(db, options...)
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	created, err := s.RegisterUser(ctx, "Human", "human@being.com", "humanbeing")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.PasswordMatches("humanbeing"))

	_, err = s.RegisterUser(ctx, "Human", "other@being.com", "humanbeing")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	updated, err := s.UpdateProfile(ctx, created.ID, "Robot", "robot@being.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Robot", updated.Username)
	assert.True(t, updated.PasswordMatches("humanbeing"), "the password is kept when no new one is given")

	updated, err = s.UpdateProfile(ctx, created.ID, "Robot", "robot@being.com", "newpassword")
	require.NoError(t, err)
	assert.True(t, updated.PasswordMatches("newpassword"))

	_, err = s.CreateTodo(ctx, created.ID, "first")
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, created.ID))

	stats, err := s.GetInternalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.InternalStatsResponse{Users: 0, Todos: 0}, stats)

	assert.NoError(t, s.Ping(ctx))
}

func TestTodosCache(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	s := newService(t, WithTodosCache(cache))

	usr, err := s.RegisterUser(ctx, "Human", "human@being.com", "humanbeing")
	require.NoError(t, err)

	todoID, err := s.CreateTodo(ctx, usr.ID, "first")
	require.NoError(t, err)

	todos, err := s.GetTodos(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, 0, cache.hits)

	todos, err = s.GetTodos(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, 1, cache.hits, "the second read is served from cache")

	require.NoError(t, s.UpdateTodo(ctx, usr.ID, todoID, "first, renamed", true))
	todos, err = s.GetTodos(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "first, renamed", todos[0].Name)
	assert.True(t, todos[0].Done)

	require.NoError(t, s.DeleteTodos(ctx, usr.ID, []string{todoID}))
	todos, err = s.GetTodos(ctx, usr.ID)
	require.NoError(t, err)
	assert.Empty(t, todos)

	assert.Equal(t, []string{usr.ID, usr.ID, usr.ID}, cache.invalidated)

	t.Run("a failing cache falls back to storage", func(t *testing.T) {
		cache.failGets = true
		_, err := s.CreateTodo(ctx, usr.ID, "second")
		require.NoError(t, err)

		todos, err := s.GetTodos(ctx, usr.ID)
		require.NoError(t, err)
		assert.Len(t, todos, 1)
	})
}

func TestTodosCacheIgnoresListsReadBeforeAMutation(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	memory, err := memorystorage.New()
	require.NoError(t, err)
	db := &slowReadStorage{MemoryStorage: memory}
	s := New(db, WithTodosCache(cache))

	usr, err := s.RegisterUser(ctx, "Human", "human@being.com", "humanbeing")
	require.NoError(t, err)

	var createdID string
	db.afterRead = func() {
		createdID, err = s.CreateTodo(ctx, usr.ID, "written during the read")
		require.NoError(t, err)
	}

	todos, err := s.GetTodos(ctx, usr.ID)
	require.NoError(t, err)
	assert.Empty(t, todos, "the read started before the todo was created")

	todos, err = s.GetTodos(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, createdID, todos[0].ID)
	assert.Equal(t, 0, cache.hits)

	todos, err = s.GetTodos(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, 1, cache.hits, "the fresh list is cached")
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	db := &mockstorage.StorageMock{
		OnGetNumberOfUsers: func(ctx context.Context) (int64, error) {
			return 0, boom
		},
	}
	db.On("GetUserTodos", mock.Anything, "user").Return(nil, boom)
	db.On("DeleteUserTodos", mock.Anything, "user", []string{"t1"}).Return(boom)
	db.On("CreateTodo", mock.Anything, mock.Anything).Return("", boom)

	s := New(db)

	_, err := s.GetTodos(ctx, "user")
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, s.DeleteTodos(ctx, "user", []string{"t1"}), boom)

	_, err = s.CreateTodo(ctx, "user", "name")
	assert.ErrorIs(t, err, boom)

	_, err = s.GetInternalStats(ctx)
	assert.ErrorIs(t, err, boom)

	db.AssertExpectations(t)
}
