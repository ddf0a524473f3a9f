package validator

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/todolist/internal/auth"
	"github.com/patric-chuzhbe/todolist/internal/respond"
)

// ValidateTodoName requires a todo name that is not blank after sanitizing.
func ValidateTodoName(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		value, ok := field(request, "todoName")
		if !ok {
			respond.Message(response, http.StatusBadRequest, messageIncomplete)
			return
		}

		todoName, isString := value.(string)
		if !isString {
			respond.Message(response, http.StatusBadRequest, messageInvalidTodo)
			return
		}

		todoName = Sanitize(todoName)
		if todoName == "" {
			respond.Message(response, http.StatusBadRequest, messageInvalidTodo)
			return
		}

		h.ServeHTTP(response, withValue(request, todoNameKey, todoName))
	}

	return http.HandlerFunc(middleware)
}

// ValidateTodoData checks the todoId and isDone fields of a todo update and
// that the todo belongs to the authenticated user.
func (v *Validator) ValidateTodoData(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		todoIDValue, hasTodoID := field(request, "todoId")
		isDoneValue, _ := field(request, "isDone")
		if !hasTodoID || isDoneValue == nil || (isMissing(isDoneValue) && isDoneValue != false) {
			respond.Message(response, http.StatusBadRequest, messageIncomplete)
			return
		}

		isDone, isBool := isDoneValue.(bool)
		if !isBool {
			respond.Message(response, http.StatusBadRequest, messageInvalidTodoStatus)
			return
		}

		todoID, _ := todoIDValue.(string)
		message, err := v.checkOwnership(request.Context(), []string{todoID})
		if err != nil {
			respond.ServerError(response, messageProcessingError, err)
			return
		}
		if message != "" {
			respond.Message(response, http.StatusBadRequest, message)
			return
		}

		request = withValue(request, todoIDKey, todoID)
		h.ServeHTTP(response, withValue(request, todoDoneKey, isDone))
	}

	return http.HandlerFunc(middleware)
}

// ValidateTodosToBeDeleted checks the todosId list of a bulk deletion and
// that every listed todo belongs to the authenticated user.
func (v *Validator) ValidateTodosToBeDeleted(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		value, ok := field(request, "todosId")
		if !ok {
			respond.Message(response, http.StatusBadRequest, messageIncomplete)
			return
		}

		todoIDs, valid := toStrings(value)
		if !valid {
			respond.Message(response, http.StatusBadRequest, messageInvalidRequest)
			return
		}
		todoIDs = funk.UniqString(todoIDs)

		message, err := v.checkOwnership(request.Context(), todoIDs)
		if err != nil {
			respond.ServerError(response, messageProcessingError, err)
			return
		}
		if message != "" {
			respond.Message(response, http.StatusBadRequest, message)
			return
		}

		h.ServeHTTP(response, withValue(request, todoIDsKey, todoIDs))
	}

	return http.HandlerFunc(middleware)
}

// toStrings accepts a non-empty JSON array of strings only.
func toStrings(value any) ([]string, bool) {
	items, isArray := value.([]any)
	if !isArray || len(items) == 0 {
		return nil, false
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		str, isString := item.(string)
		if !isString {
			return nil, false
		}
		result = append(result, str)
	}

	return result, true
}

// checkOwnership returns the rejection message for todoIDs, or "" when every
// one of them exists and belongs to the authenticated user.
func (v *Validator) checkOwnership(ctx context.Context, todoIDs []string) (string, error) {
	notFound, notOwner := messageTodoNotExists, messageNotTodoOwner
	if len(todoIDs) > 1 {
		notFound, notOwner = messageTodosNotExist, messageNotTodosOwner
	}

	validIDs := funk.FilterString(todoIDs, func(todoID string) bool {
		parsed, err := uuid.Parse(todoID)
		return err == nil && parsed.String() == todoID
	})
	if len(validIDs) < len(todoIDs) {
		return notFound, nil
	}

	todos, err := v.db.FindTodosByIDs(ctx, validIDs)
	if err != nil {
		return "", err
	}
	if len(todos) < len(validIDs) {
		return notFound, nil
	}

	userID, _ := auth.GetUserID(ctx)
	for _, todo := range todos {
		if todo.UserID != userID {
			return notOwner, nil
		}
	}

	return "", nil
}
