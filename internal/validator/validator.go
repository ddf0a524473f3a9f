// Package validator holds the request validators of the API.
//
// Every validator is a chi compatible middleware. It either writes a terminal
// response or passes the request on with the values it checked stored in the
// request context, where the controllers read them with the getters below.
package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todolist/internal/logger"
	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/respond"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

const (
	messageIncomplete        = "Your request was incomplete."
	messageInvalidRequest    = "Your request was invalid."
	messageProcessingError   = "There was an error while processing your request."
	messageInvalidUsername   = "Your username was invalid."
	messageInvalidEmail      = "Your email address was invalid."
	messageInvalidPassword   = "The password you chose to use was invalid."
	messageLoginIncomplete   = "Your request was incomplete"
	messageUserNotExists     = "This user does not exist."
	messageIncorrectPassword = "Your password was incorrect."
	messageLoginError        = "There was an error while logging you in."
	messageInvalidTodo       = "Your todo was invalid."
	messageInvalidTodoStatus = "Your todo status was invalid."
	messageTodoNotExists     = "This todo does not exist."
	messageTodosNotExist     = "Some of these todos do not exist."
	messageNotTodoOwner      = "You are not the owner of this todo."
	messageNotTodosOwner     = "You are not the owner of some of these todos."
)

// maxBodyBytes bounds a decoded request body. It leaves room for three
// passwords at the 4000 character limit and a few thousand todo ids.
const maxBodyBytes = 256 << 10

type storage interface {
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error)
	FindUsersByUsernameOrEmail(
		ctx context.Context,
		username string,
		email string,
		excludedUserID string,
	) ([]user.User, error)
	FindTodosByIDs(ctx context.Context, todoIDs []string) ([]models.Todo, error)
}

// Validator runs the checks that need the storage.
type Validator struct {
	db storage
}

func New(db storage) *Validator {
	return &Validator{db: db}
}

type contextKey string

const (
	bodyKey        contextKey = "body"
	usernameKey    contextKey = "username"
	emailKey       contextKey = "email"
	newPasswordKey contextKey = "newPassword"
	userKey        contextKey = "user"
	todoNameKey    contextKey = "todoName"
	todoIDKey      contextKey = "todoID"
	todoDoneKey    contextKey = "todoDone"
	todoIDsKey     contextKey = "todoIDs"
)

var whitespaceRuns = regexp.MustCompile(`\s{2,}`)

// Sanitize collapses every run of two or more whitespace characters into one
// space and trims the result.
func Sanitize(str string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(str, " "))
}

// ParseBody decodes the JSON object of the request body for the validators
// after it. An empty body counts as an empty object, a body over
// maxBodyBytes as an invalid request.
func ParseBody(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		rawBody, err := io.ReadAll(http.MaxBytesReader(response, request.Body, maxBodyBytes))
		if err != nil {
			logger.Log.Debugln("Error calling the `io.ReadAll()`: ", zap.Error(err))
			respond.Message(response, http.StatusBadRequest, messageInvalidRequest)
			return
		}

		body := map[string]any{}
		if len(bytes.TrimSpace(rawBody)) > 0 {
			if err := json.Unmarshal(rawBody, &body); err != nil || body == nil {
				respond.Message(response, http.StatusBadRequest, messageInvalidRequest)
				return
			}
		}

		h.ServeHTTP(response, withValue(request, bodyKey, body))
	}

	return http.HandlerFunc(middleware)
}

func withValue(request *http.Request, key contextKey, value any) *http.Request {
	return request.WithContext(context.WithValue(request.Context(), key, value))
}

// field returns the body field and whether it is present with a truthy value.
// Absent, null, "", false and 0 all count as missing.
func field(request *http.Request, name string) (any, bool) {
	body, _ := request.Context().Value(bodyKey).(map[string]any)
	value, found := body[name]
	if !found {
		return nil, false
	}

	return value, !isMissing(value)
}

func isMissing(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case bool:
		return !typed
	case float64:
		return typed == 0
	}

	return false
}

// Body returns the decoded request body.
func Body(ctx context.Context) map[string]any {
	body, _ := ctx.Value(bodyKey).(map[string]any)
	return body
}

// Username returns the sanitized username.
func Username(ctx context.Context) string {
	value, _ := ctx.Value(usernameKey).(string)
	return value
}

// Email returns the trimmed email address.
func Email(ctx context.Context) string {
	value, _ := ctx.Value(emailKey).(string)
	return value
}

// NewPassword returns the validated new password, empty when none was given.
func NewPassword(ctx context.Context) string {
	value, _ := ctx.Value(newPasswordKey).(string)
	return value
}

// User returns the user resolved by ValidateLogin or ValidateCurrentPassword.
func User(ctx context.Context) *user.User {
	value, _ := ctx.Value(userKey).(*user.User)
	return value
}

// TodoName returns the sanitized todo name.
func TodoName(ctx context.Context) string {
	value, _ := ctx.Value(todoNameKey).(string)
	return value
}

// TodoID returns the id of the todo to update.
func TodoID(ctx context.Context) string {
	value, _ := ctx.Value(todoIDKey).(string)
	return value
}

// TodoDone returns the requested status of the todo to update.
func TodoDone(ctx context.Context) bool {
	value, _ := ctx.Value(todoDoneKey).(bool)
	return value
}

// TodoIDs returns the distinct ids of the todos to delete.
func TodoIDs(ctx context.Context) []string {
	value, _ := ctx.Value(todoIDsKey).([]string)
	return value
}
