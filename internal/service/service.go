// Package service implements the account and todo operations behind the
// controllers: password hashing, id generation and the todo list cache.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todolist/internal/logger"
	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (*user.User, error)
	UpdateUser(ctx context.Context, usr *user.User) (*user.User, error)
	DeleteUser(ctx context.Context, userID string) error
	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type todoKeeper interface {
	CreateTodo(ctx context.Context, todo *models.Todo) (string, error)
	GetUserTodos(ctx context.Context, userID string) ([]models.Todo, error)
	UpdateTodo(ctx context.Context, todo *models.Todo) error
	DeleteUserTodos(ctx context.Context, userID string, todoIDs []string) error
	GetNumberOfTodos(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	todoKeeper
	pinger
}

// todosCache stores a list only when its generation is unchanged since the
// list was read from storage, so a concurrent invalidation always wins.
type todosCache interface {
	GetTodos(ctx context.Context, userID string) ([]models.Todo, bool, error)
	TodosGeneration(ctx context.Context, userID string) (int64, error)
	SetTodos(ctx context.Context, userID string, generation int64, todos []models.Todo) error
	InvalidateTodos(ctx context.Context, userID string) error
}

type Service struct {
	db    storage
	cache todosCache
	newID func() string
}

type initOptions struct {
	cache todosCache
}

// InitOption configures optional collaborators of the Service.
type InitOption func(*initOptions)

// WithTodosCache makes the Service keep todo lists in cache.
func WithTodosCache(cache todosCache) InitOption {
	return func(options *initOptions) {
		options.cache = cache
	}
}

func New(db storage, optionsProto ...InitOption) *Service {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	return &Service{
		db:    db,
		cache: options.cache,
		newID: uuid.NewString,
	}
}

// RegisterUser creates an account with a freshly generated id.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (*user.User, error) {
	passwordHash, err := user.HashPassword(password)
	if err != nil {
		return nil, err
	}

	created, err := s.db.CreateUser(ctx, &user.User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/RegisterUser(): error while `s.db.CreateUser()` calling: %w", err)
	}

	return created, nil
}

// UpdateProfile changes the username and email of the user, and the password
// when newPassword is not empty.
func (s *Service) UpdateProfile(ctx context.Context, userID, username, email, newPassword string) (*user.User, error) {
	passwordHash := ""
	if newPassword != "" {
		var err error
		passwordHash, err = user.HashPassword(newPassword)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.db.UpdateUser(ctx, &user.User{
		ID:           userID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/UpdateProfile(): error while `s.db.UpdateUser()` calling: %w", err)
	}

	return updated, nil
}

// DeleteAccount removes the user together with all their todos.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.db.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("in internal/service/service.go/DeleteAccount(): error while `s.db.DeleteUser()` calling: %w", err)
	}
	s.invalidateTodos(ctx, userID)

	return nil
}

// GetTodos returns the todos of the user in creation order.
func (s *Service) GetTodos(ctx context.Context, userID string) ([]models.Todo, error) {
	cacheable := false
	var generation int64
	if s.cache != nil {
		todos, found, err := s.cache.GetTodos(ctx, userID)
		if err != nil {
			logger.Log.Debugln("Error calling the `s.cache.GetTodos()`: ", zap.Error(err))
		} else if found {
			return todos, nil
		}

		generation, err = s.cache.TodosGeneration(ctx, userID)
		if err != nil {
			logger.Log.Debugln("Error calling the `s.cache.TodosGeneration()`: ", zap.Error(err))
		} else {
			cacheable = true
		}
	}

	todos, err := s.db.GetUserTodos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/GetTodos(): error while `s.db.GetUserTodos()` calling: %w", err)
	}

	if cacheable {
		if err := s.cache.SetTodos(ctx, userID, generation, todos); err != nil {
			logger.Log.Debugln("Error calling the `s.cache.SetTodos()`: ", zap.Error(err))
		}
	}

	return todos, nil
}

// CreateTodo adds a not yet done todo to the list of the user.
func (s *Service) CreateTodo(ctx context.Context, userID, name string) (string, error) {
	todoID, err := s.db.CreateTodo(ctx, &models.Todo{
		ID:     s.newID(),
		UserID: userID,
		Name:   name,
	})
	if err != nil {
		return "", fmt.Errorf("in internal/service/service.go/CreateTodo(): error while `s.db.CreateTodo()` calling: %w", err)
	}
	s.invalidateTodos(ctx, userID)

	return todoID, nil
}

// UpdateTodo renames the todo and sets its status.
func (s *Service) UpdateTodo(ctx context.Context, userID, todoID, name string, done bool) error {
	err := s.db.UpdateTodo(ctx, &models.Todo{
		ID:     todoID,
		UserID: userID,
		Name:   name,
		Done:   done,
	})
	if err != nil {
		return fmt.Errorf("in internal/service/service.go/UpdateTodo(): error while `s.db.UpdateTodo()` calling: %w", err)
	}
	s.invalidateTodos(ctx, userID)

	return nil
}

// DeleteTodos removes the listed todos of the user in one statement.
func (s *Service) DeleteTodos(ctx context.Context, userID string, todoIDs []string) error {
	if err := s.db.DeleteUserTodos(ctx, userID, todoIDs); err != nil {
		return fmt.Errorf("in internal/service/service.go/DeleteTodos(): error while `s.db.DeleteUserTodos()` calling: %w", err)
	}
	s.invalidateTodos(ctx, userID)

	return nil
}

// GetInternalStats counts the users and todos of the service.
func (s *Service) GetInternalStats(ctx context.Context) (*models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/GetInternalStats(): error while `s.db.GetNumberOfUsers()` calling: %w", err)
	}

	todos, err := s.db.GetNumberOfTodos(ctx)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/GetInternalStats(): error while `s.db.GetNumberOfTodos()` calling: %w", err)
	}

	return &models.InternalStatsResponse{Users: users, Todos: todos}, nil
}

// Ping checks the storage is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Service) invalidateTodos(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTodos(ctx, userID); err != nil {
		logger.Log.Debugln("Error calling the `s.cache.InvalidateTodos()`: ", zap.Error(err))
	}
}
