// Package memorystorage keeps users and todos in process memory.
// It applies the same uniqueness and cascade rules as the relational schema
// so that the HTTP layer behaves identically on top of it.
package memorystorage

import (
	"context"
	"sync"
	"time"

	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

// Snapshot is the full content of a MemoryStorage, todos in creation order.
type Snapshot struct {
	Users []user.User
	Todos []models.Todo
}

type MemoryStorage struct {
	mu        sync.RWMutex
	users     map[string]*user.User
	todos     map[string]*models.Todo
	todoOrder []string
	now       func() time.Time
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users: map[string]*user.User{},
		todos: map[string]*models.Todo{},
		now:   time.Now,
	}, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// checkUnique must be called with s.mu held.
func (s *MemoryStorage) checkUnique(usr *user.User) error {
	for _, existing := range s.users {
		if existing.ID == usr.ID {
			continue
		}
		if existing.Username == usr.Username {
			return models.ErrUsernameTaken
		}
		if existing.Email == usr.Email {
			return models.ErrEmailTaken
		}
	}

	return nil
}

func (s *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(usr); err != nil {
		return nil, err
	}

	stored := *usr
	stored.RegistrationDate = s.now()
	s.users[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.users[userID]
	if !found {
		return nil, false, nil
	}

	result := *usr
	return &result, true, nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, usr := range s.users {
		if usr.Email == email {
			result := *usr
			return &result, true, nil
		}
	}

	return nil, false, nil
}

func (s *MemoryStorage) FindUsersByUsernameOrEmail(
	ctx context.Context,
	username string,
	email string,
	excludedUserID string,
) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []user.User
	for _, usr := range s.users {
		if usr.ID == excludedUserID {
			continue
		}
		if usr.Username == username || usr.Email == email {
			result = append(result, *usr)
		}
	}

	return result, nil
}

func (s *MemoryStorage) UpdateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, found := s.users[usr.ID]
	if !found {
		return nil, models.ErrUserNotFound
	}

	if err := s.checkUnique(usr); err != nil {
		return nil, err
	}

	stored.Username = usr.Username
	stored.Email = usr.Email
	if usr.PasswordHash != "" {
		stored.PasswordHash = usr.PasswordHash
	}

	result := *stored
	return &result, nil
}

func (s *MemoryStorage) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)

	kept := s.todoOrder[:0]
	for _, todoID := range s.todoOrder {
		if s.todos[todoID].UserID == userID {
			delete(s.todos, todoID)
			continue
		}
		kept = append(kept, todoID)
	}
	s.todoOrder = kept

	return nil
}

func (s *MemoryStorage) CreateTodo(ctx context.Context, todo *models.Todo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.users[todo.UserID]; !found {
		return "", models.ErrUserNotFound
	}

	stored := *todo
	stored.CreationDate = s.now()
	s.todos[stored.ID] = &stored
	s.todoOrder = append(s.todoOrder, stored.ID)

	return stored.ID, nil
}

func (s *MemoryStorage) GetUserTodos(ctx context.Context, userID string) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Todo{}
	for _, todoID := range s.todoOrder {
		todo := s.todos[todoID]
		if todo.UserID == userID {
			result = append(result, *todo)
		}
	}

	return result, nil
}

func (s *MemoryStorage) FindTodosByIDs(ctx context.Context, todoIDs []string) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Todo{}
	for _, todoID := range todoIDs {
		if todo, found := s.todos[todoID]; found {
			result = append(result, *todo)
		}
	}

	return result, nil
}

func (s *MemoryStorage) UpdateTodo(ctx context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, found := s.todos[todo.ID]
	if !found {
		return nil
	}
	stored.Name = todo.Name
	stored.Done = todo.Done

	return nil
}

func (s *MemoryStorage) DeleteUserTodos(ctx context.Context, userID string, todoIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	toDelete := make(map[string]struct{}, len(todoIDs))
	for _, todoID := range todoIDs {
		if todo, found := s.todos[todoID]; found && todo.UserID == userID {
			toDelete[todoID] = struct{}{}
		}
	}

	kept := s.todoOrder[:0]
	for _, todoID := range s.todoOrder {
		if _, found := toDelete[todoID]; found {
			delete(s.todos, todoID)
			continue
		}
		kept = append(kept, todoID)
	}
	s.todoOrder = kept

	return nil
}

func (s *MemoryStorage) GetNumberOfUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.users)), nil
}

func (s *MemoryStorage) GetNumberOfTodos(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.todos)), nil
}

// Snapshot copies the whole content of the storage.
func (s *MemoryStorage) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := Snapshot{
		Users: make([]user.User, 0, len(s.users)),
		Todos: make([]models.Todo, 0, len(s.todoOrder)),
	}
	for _, usr := range s.users {
		result.Users = append(result.Users, *usr)
	}
	for _, todoID := range s.todoOrder {
		result.Todos = append(result.Todos, *s.todos[todoID])
	}

	return result
}

// Restore replaces the content of the storage with snapshot.
// Todos whose owner is missing from the snapshot are dropped.
func (s *MemoryStorage) Restore(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*user.User, len(snapshot.Users))
	s.todos = make(map[string]*models.Todo, len(snapshot.Todos))
	s.todoOrder = make([]string, 0, len(snapshot.Todos))

	for i := range snapshot.Users {
		usr := snapshot.Users[i]
		s.users[usr.ID] = &usr
	}
	for i := range snapshot.Todos {
		todo := snapshot.Todos[i]
		if _, found := s.users[todo.UserID]; !found {
			continue
		}
		s.todos[todo.ID] = &todo
		s.todoOrder = append(s.todoOrder, todo.ID)
	}
}
