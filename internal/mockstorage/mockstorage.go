// Package mockstorage provides a testify-based mock implementation
// of the storage interface used by the validators and controllers.
// It is used for unit testing HTTP handlers by simulating storage behavior.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

// StorageMock is a testify mock that implements storage.Storage.
//
// Use it in handler tests to simulate database behavior, failures in particular.
type StorageMock struct {
	mock.Mock

	// OnGetNumberOfUsers is an optional function field that can be assigned
	// to define custom mock behavior for GetNumberOfUsers in tests.
	//
	// If set, GetNumberOfUsers will delegate to this function instead of
	// using testify's generic mock handler.
	OnGetNumberOfUsers func(ctx context.Context) (int64, error)

	// OnGetNumberOfTodos is the same for GetNumberOfTodos.
	OnGetNumberOfTodos func(ctx context.Context) (int64, error)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// CreateUser mocks user creation.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	args := m.Called(ctx, usr)
	created, _ := args.Get(0).(*user.User)
	return created, args.Error(1)
}

// GetUserByID mocks fetching a user by their ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetUserByEmail mocks fetching a user by their email address.
func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUsersByUsernameOrEmail mocks the uniqueness lookup.
func (m *StorageMock) FindUsersByUsernameOrEmail(
	ctx context.Context,
	username string,
	email string,
	excludedUserID string,
) ([]user.User, error) {
	args := m.Called(ctx, username, email, excludedUserID)
	users, _ := args.Get(0).([]user.User)
	return users, args.Error(1)
}

// UpdateUser mocks the profile update.
func (m *StorageMock) UpdateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	args := m.Called(ctx, usr)
	updated, _ := args.Get(0).(*user.User)
	return updated, args.Error(1)
}

// DeleteUser mocks the account removal.
func (m *StorageMock) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// CreateTodo mocks the todo insertion.
func (m *StorageMock) CreateTodo(ctx context.Context, todo *models.Todo) (string, error) {
	args := m.Called(ctx, todo)
	return args.String(0), args.Error(1)
}

// GetUserTodos mocks listing the todos of a user.
func (m *StorageMock) GetUserTodos(ctx context.Context, userID string) ([]models.Todo, error) {
	args := m.Called(ctx, userID)
	todos, _ := args.Get(0).([]models.Todo)
	return todos, args.Error(1)
}

// FindTodosByIDs mocks the todo lookup by ids.
func (m *StorageMock) FindTodosByIDs(ctx context.Context, todoIDs []string) ([]models.Todo, error) {
	args := m.Called(ctx, todoIDs)
	todos, _ := args.Get(0).([]models.Todo)
	return todos, args.Error(1)
}

// UpdateTodo mocks the todo update.
func (m *StorageMock) UpdateTodo(ctx context.Context, todo *models.Todo) error {
	args := m.Called(ctx, todo)
	return args.Error(0)
}

// DeleteUserTodos mocks the todo removal.
func (m *StorageMock) DeleteUserTodos(ctx context.Context, userID string, todoIDs []string) error {
	args := m.Called(ctx, userID, todoIDs)
	return args.Error(0)
}

// GetNumberOfUsers returns the number of users as defined by the mock.
//
// If OnGetNumberOfUsers is non-nil, it will be called to produce the result.
// Otherwise, the method returns 0 and no error by default.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfUsers != nil {
		return m.OnGetNumberOfUsers(ctx)
	}
	return 0, nil
}

// GetNumberOfTodos returns the number of todos as defined by the mock.
func (m *StorageMock) GetNumberOfTodos(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfTodos != nil {
		return m.OnGetNumberOfTodos(ctx)
	}
	return 0, nil
}
