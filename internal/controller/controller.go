// Package controller holds the terminal handlers of the API routes. They run
// after the validators, read the checked values from the request context and
// shape the JSON responses.
package controller

import (
	"errors"
	"net/http"

	"github.com/patric-chuzhbe/todolist/internal/auth"
	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/respond"
	"github.com/patric-chuzhbe/todolist/internal/service"
	"github.com/patric-chuzhbe/todolist/internal/user"
	"github.com/patric-chuzhbe/todolist/internal/validator"
)

const (
	messageRegistrationError = "There was an error while processing your registration."
	messageLoginError        = "There was an error while logging you in."
	messageUpdateUserError   = "There was an error while updating your profile."
	messageDeleteUserError   = "There was an error while deleting your account."
	messageGetTodosError     = "There was an error while getting your todos."
	messageCreateTodoError   = "There was an error while creating your todo."
	messageUpdateTodoError   = "There was an error while updating your todo."
	messageDeleteTodosError  = "There was an error while deleting your todos."
	messageProcessingError   = "There was an error while processing your request."

	messageAccountDeleted = "Your account was deleted."
	messageLoginRequired  = "You need to log in."
	messageNoTodos        = "You have no todo."

	messageUsernameConflict = "A user with this username already exists."
	messageEmailConflict    = "A user with this email address already exists."
)

type tokenBuilder interface {
	BuildJWTString(usr *user.User) (string, error)
}

type Controller struct {
	service *service.Service
	auth    tokenBuilder
}

func New(srv *service.Service, tokens tokenBuilder) *Controller {
	return &Controller{
		service: srv,
		auth:    tokens,
	}
}

// writeToken answers with a fresh token and the public part of usr.
func (c *Controller) writeToken(
	response http.ResponseWriter,
	statusCode int,
	usr *user.User,
	failureMessage string,
) {
	token, err := c.auth.BuildJWTString(usr)
	if err != nil {
		respond.ServerError(response, failureMessage, err)
		return
	}

	respond.JSON(response, statusCode, models.TokenResponse{
		Token: token,
		User: models.UserItem{
			Username: usr.Username,
			Email:    usr.Email,
		},
	})
}

// writeConflict answers a unique constraint violation the way the
// uniqueness validators do and reports whether err was one.
func writeConflict(response http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, models.ErrUsernameTaken):
		respond.Message(response, http.StatusBadRequest, messageUsernameConflict)
	case errors.Is(err, models.ErrEmailTaken):
		respond.Message(response, http.StatusBadRequest, messageEmailConflict)
	default:
		return false
	}

	return true
}

// SignupUser creates the account and logs the new user in.
func (c *Controller) SignupUser(response http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	created, err := c.service.RegisterUser(
		ctx,
		validator.Username(ctx),
		validator.Email(ctx),
		validator.NewPassword(ctx),
	)
	if err != nil {
		if writeConflict(response, err) {
			return
		}
		respond.ServerError(response, messageRegistrationError, err)
		return
	}

	c.writeToken(response, http.StatusCreated, created, messageRegistrationError)
}

// LoginUser issues a token for the user resolved by the login validator.
func (c *Controller) LoginUser(response http.ResponseWriter, request *http.Request) {
	usr := validator.User(request.Context())
	if usr == nil {
		respond.ServerError(response, messageLoginError, errors.New("no user resolved for login"))
		return
	}

	c.writeToken(response, http.StatusOK, usr, messageLoginError)
}

// UpdateUser stores the new profile and re-issues the token, as the old one
// carries the old username and email.
func (c *Controller) UpdateUser(response http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		respond.RedirectToLogin(response, request)
		return
	}

	updated, err := c.service.UpdateProfile(
		ctx,
		userID,
		validator.Username(ctx),
		validator.Email(ctx),
		validator.NewPassword(ctx),
	)
	if errors.Is(err, models.ErrUserNotFound) {
		respond.RedirectToLogin(response, request)
		return
	}
	if err != nil {
		if writeConflict(response, err) {
			return
		}
		respond.ServerError(response, messageUpdateUserError, err)
		return
	}

	c.writeToken(response, http.StatusCreated, updated, messageUpdateUserError)
}

// DeleteUser removes the account and its todos.
func (c *Controller) DeleteUser(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.GetUserID(request.Context())
	if !ok {
		respond.RedirectToLogin(response, request)
		return
	}

	if err := c.service.DeleteAccount(request.Context(), userID); err != nil {
		respond.ServerError(response, messageDeleteUserError, err)
		return
	}

	respond.Message(response, http.StatusOK, messageAccountDeleted)
}

// GetTodos lists the todos of the user.
func (c *Controller) GetTodos(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.GetUserID(request.Context())
	if !ok {
		respond.RedirectToLogin(response, request)
		return
	}

	todos, err := c.service.GetTodos(request.Context(), userID)
	if err != nil {
		respond.ServerError(response, messageGetTodosError, err)
		return
	}

	if len(todos) == 0 {
		respond.Message(response, http.StatusOK, messageNoTodos)
		return
	}

	respond.JSON(response, http.StatusOK, models.TodosResponse{Todos: models.ToTodoItems(todos)})
}

// CreateTodo adds a todo with the sanitized name.
func (c *Controller) CreateTodo(response http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		respond.RedirectToLogin(response, request)
		return
	}

	todoID, err := c.service.CreateTodo(ctx, userID, validator.TodoName(ctx))
	if err != nil {
		respond.ServerError(response, messageCreateTodoError, err)
		return
	}

	respond.JSON(response, http.StatusCreated, models.CreateTodoResponse{TodoID: todoID})
}

// UpdateTodo renames the todo and sets its status.
func (c *Controller) UpdateTodo(response http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		respond.RedirectToLogin(response, request)
		return
	}

	err := c.service.UpdateTodo(
		ctx,
		userID,
		validator.TodoID(ctx),
		validator.TodoName(ctx),
		validator.TodoDone(ctx),
	)
	if err != nil {
		respond.ServerError(response, messageUpdateTodoError, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// DeleteTodos removes the validated todos.
func (c *Controller) DeleteTodos(response http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		respond.RedirectToLogin(response, request)
		return
	}

	if err := c.service.DeleteTodos(ctx, userID, validator.TodoIDs(ctx)); err != nil {
		respond.ServerError(response, messageDeleteTodosError, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// LoginRequired is where AuthenticateUser redirects to when no login page is served.
func (c *Controller) LoginRequired(response http.ResponseWriter, request *http.Request) {
	respond.Message(response, http.StatusUnauthorized, messageLoginRequired)
}

// Ping answers 200 when the storage is reachable.
func (c *Controller) Ping(response http.ResponseWriter, request *http.Request) {
	if err := c.service.Ping(request.Context()); err != nil {
		respond.ServerError(response, messageProcessingError, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetInternalStats reports the number of users and todos.
func (c *Controller) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	stats, err := c.service.GetInternalStats(request.Context())
	if err != nil {
		respond.ServerError(response, messageProcessingError, err)
		return
	}

	respond.JSON(response, http.StatusOK, stats)
}
