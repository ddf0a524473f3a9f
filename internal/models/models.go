package models

import (
	"errors"
	"time"
)

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID           string
	UserID       string
	Name         string
	Done         bool
	CreationDate time.Time
}

type TodoItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Done bool   `json:"done"`
}

type TodosResponse struct {
	Todos []TodoItem `json:"todos"`
}

type CreateTodoResponse struct {
	TodoID string `json:"todoId"`
}

type UserItem struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenResponse struct {
	Token string   `json:"token"`
	User  UserItem `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type InternalStatsResponse struct {
	Users int64 `json:"users"`
	Todos int64 `json:"todos"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

var (
	// ErrUsernameTaken is returned by storages when the users.username unique constraint is violated.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken is returned by storages when the users.email unique constraint is violated.
	ErrEmailTaken = errors.New("email already taken")

	// ErrUserNotFound is returned when a mutation targets a user that no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// ToTodoItems converts stored todos into their wire representation.
func ToTodoItems(todos []Todo) []TodoItem {
	result := make([]TodoItem, 0, len(todos))
	for _, todo := range todos {
		result = append(result, TodoItem{
			ID:   todo.ID,
			Name: todo.Name,
			Done: todo.Done,
		})
	}

	return result
}
