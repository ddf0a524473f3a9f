// Package storage declares the set of operations every storage backend provides.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

type Storage interface {
	Ping(ctx context.Context) error

	Close() error

	CreateUser(ctx context.Context, usr *user.User) (*user.User, error)

	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)

	GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error)

	FindUsersByUsernameOrEmail(
		ctx context.Context,
		username string,
		email string,
		excludedUserID string,
	) ([]user.User, error)

	UpdateUser(ctx context.Context, usr *user.User) (*user.User, error)

	DeleteUser(ctx context.Context, userID string) error

	CreateTodo(ctx context.Context, todo *models.Todo) (string, error)

	GetUserTodos(ctx context.Context, userID string) ([]models.Todo, error)

	FindTodosByIDs(ctx context.Context, todoIDs []string) ([]models.Todo, error)

	UpdateTodo(ctx context.Context, todo *models.Todo) error

	DeleteUserTodos(ctx context.Context, userID string, todoIDs []string) error

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfTodos(ctx context.Context) (int64, error)
}
