package postgresdb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

func TestUniqueViolationToError(t *testing.T) {
	otherErr := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "username constraint",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: usernameConstraint},
			want: models.ErrUsernameTaken,
		},
		{
			name: "email constraint",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: emailConstraint},
			want: models.ErrEmailTaken,
		},
		{
			name: "other error",
			err:  otherErr,
			want: otherErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, uniqueViolationToError(tt.err), tt.want)
		})
	}

	t.Run("other constraint", func(t *testing.T) {
		err := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "todos_pkey"}
		assert.Same(t, err, uniqueViolationToError(err))
	})
}

func TestOnlyUUIDs(t *testing.T) {
	id := uuid.NewString()

	assert.Equal(t, []string{id}, onlyUUIDs([]string{"1", id, "not-a-uuid"}))
	assert.Empty(t, onlyUUIDs(nil))
}

// TestPostgresDB needs a disposable database named by TODOLIST_TEST_DATABASE_DSN.
// Every table of it is dropped.
func TestPostgresDB(t *testing.T) {
	databaseDSN := os.Getenv("TODOLIST_TEST_DATABASE_DSN")
	if databaseDSN == "" {
		t.Skip("TODOLIST_TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	db, err := New(ctx, databaseDSN, 5*time.Second, WithDBPreReset(true))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Close())
	}()

	alice := &user.User{ID: uuid.NewString(), Username: "Alice", Email: "alice@example.com", PasswordHash: "hash"}
	created, err := db.CreateUser(ctx, alice)
	require.NoError(t, err)
	assert.False(t, created.RegistrationDate.IsZero())

	_, err = db.CreateUser(ctx, &user.User{ID: uuid.NewString(), Username: "Alice", Email: "x@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, models.ErrUsernameTaken)
	_, err = db.CreateUser(ctx, &user.User{ID: uuid.NewString(), Username: "X", Email: "alice@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	found, ok, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice.ID, found.ID)

	_, ok, err = db.GetUserByID(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, ok)

	conflicts, err := db.FindUsersByUsernameOrEmail(ctx, "Alice", "alice@example.com", alice.ID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	updated, err := db.UpdateUser(ctx, &user.User{ID: alice.ID, Username: "Alicia", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "hash", updated.PasswordHash)

	first := &models.Todo{ID: uuid.NewString(), UserID: alice.ID, Name: "first"}
	second := &models.Todo{ID: uuid.NewString(), UserID: alice.ID, Name: "second"}
	for _, todo := range []*models.Todo{first, second} {
		todoID, err := db.CreateTodo(ctx, todo)
		require.NoError(t, err)
		assert.Equal(t, todo.ID, todoID)
	}

	require.NoError(t, db.UpdateTodo(ctx, &models.Todo{ID: first.ID, Name: "first, done", Done: true}))

	todos, err := db.FindTodosByIDs(ctx, []string{first.ID, "1"})
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.True(t, todos[0].Done)

	require.NoError(t, db.DeleteUserTodos(ctx, alice.ID, []string{second.ID}))
	todos, err = db.GetUserTodos(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)

	require.NoError(t, db.DeleteUser(ctx, alice.ID))
	count, err := db.GetNumberOfTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
