package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/todolist/internal/auth"
	"github.com/patric-chuzhbe/todolist/internal/mockstorage"
	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/service"
	"github.com/patric-chuzhbe/todolist/internal/user"
	"github.com/patric-chuzhbe/todolist/internal/validator"
)

const testUserID = "9b2c4c9e-53a7-4c8a-9f43-52d4cba4a0a1"

type fakeTokens struct {
	err error
}

func (f *fakeTokens) BuildJWTString(usr *user.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-of-" + usr.Username, nil
}

func serve(h http.Handler, method, userID, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, "/", strings.NewReader(body))
	if userID != "" {
		request = request.WithContext(context.WithValue(request.Context(), auth.UserIDKey, userID))
	}
	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, request)

	return recorder
}

func signupChain(ctrl *Controller) http.Handler {
	return validator.ParseBody(
		validator.ValidateUsername(
			validator.ValidateEmail(
				validator.ValidatePassword(
					http.HandlerFunc(ctrl.SignupUser),
				),
			),
		),
	)
}

const signupBody = `{"username":"Human","email":"human@being.com","password":"humanbeing","password2":"humanbeing"}`

func TestSignupUser(t *testing.T) {
	tests := []struct {
		name       string
		createErr  error
		tokenErr   error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "created",
			wantStatus: http.StatusCreated,
			wantBody:   `{"token":"token-of-Human","user":{"username":"Human","email":"human@being.com"}}`,
		},
		{
			name:       "username taken meanwhile",
			createErr:  models.ErrUsernameTaken,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"A user with this username already exists."}`,
		},
		{
			name:       "email taken meanwhile",
			createErr:  models.ErrEmailTaken,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"A user with this email address already exists."}`,
		},
		{
			name:       "storage failure",
			createErr:  errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"There was an error while processing your registration."}`,
		},
		{
			name:       "token failure",
			tokenErr:   errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"There was an error while processing your registration."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mockstorage.StorageMock{}
			var created *user.User
			if tt.createErr == nil {
				created = &user.User{ID: testUserID, Username: "Human", Email: "human@being.com"}
			}
			db.On("CreateUser", mock.Anything, mock.Anything).Return(created, tt.createErr)

			ctrl := New(service.New(db), &fakeTokens{err: tt.tokenErr})
			recorder := serve(signupChain(ctrl), http.MethodPost, "", signupBody)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.JSONEq(t, tt.wantBody, recorder.Body.String())
		})
	}
}

func TestUpdateUser(t *testing.T) {
	handler := func(ctrl *Controller) http.Handler {
		return validator.ParseBody(
			validator.ValidateUsername(
				validator.ValidateEmail(
					http.HandlerFunc(ctrl.UpdateUser),
				),
			),
		)
	}
	body := `{"username":"Robot","email":"robot@being.com"}`

	t.Run("updated", func(t *testing.T) {
		db := &mockstorage.StorageMock{}
		db.On("UpdateUser", mock.Anything, mock.MatchedBy(func(usr *user.User) bool {
			return usr.ID == testUserID && usr.PasswordHash == ""
		})).Return(&user.User{ID: testUserID, Username: "Robot", Email: "robot@being.com"}, nil)

		recorder := serve(handler(New(service.New(db), &fakeTokens{})), http.MethodPut, testUserID, body)

		assert.Equal(t, http.StatusCreated, recorder.Code)
		assert.JSONEq(t, `{"token":"token-of-Robot","user":{"username":"Robot","email":"robot@being.com"}}`, recorder.Body.String())
		db.AssertExpectations(t)
	})

	t.Run("user vanished", func(t *testing.T) {
		db := &mockstorage.StorageMock{}
		db.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, models.ErrUserNotFound)

		recorder := serve(handler(New(service.New(db), &fakeTokens{})), http.MethodPut, testUserID, body)

		assert.Equal(t, http.StatusFound, recorder.Code)
		assert.Equal(t, "/login", recorder.Header().Get("Location"))
	})

	t.Run("conflict", func(t *testing.T) {
		db := &mockstorage.StorageMock{}
		db.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, models.ErrEmailTaken)

		recorder := serve(handler(New(service.New(db), &fakeTokens{})), http.MethodPut, testUserID, body)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.JSONEq(t, `{"message":"A user with this email address already exists."}`, recorder.Body.String())
	})

	t.Run("not authenticated", func(t *testing.T) {
		db := &mockstorage.StorageMock{}

		recorder := serve(handler(New(service.New(db), &fakeTokens{})), http.MethodPut, "", body)

		assert.Equal(t, http.StatusFound, recorder.Code)
		db.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})
}

func TestServerErrorMessages(t *testing.T) {
	boom := errors.New("boom")

	db := &mockstorage.StorageMock{}
	db.On("DeleteUser", mock.Anything, testUserID).Return(boom)
	db.On("GetUserTodos", mock.Anything, testUserID).Return(nil, boom)
	db.On("UpdateTodo", mock.Anything, mock.Anything).Return(boom)
	db.On("DeleteUserTodos", mock.Anything, testUserID, mock.Anything).Return(boom)
	db.OnGetNumberOfUsers = func(ctx context.Context) (int64, error) {
		return 0, boom
	}

	ctrl := New(service.New(db), &fakeTokens{})

	tests := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		message string
	}{
		{"delete user", ctrl.DeleteUser, http.MethodDelete, "There was an error while deleting your account."},
		{"get todos", ctrl.GetTodos, http.MethodGet, "There was an error while getting your todos."},
		{"update todo", ctrl.UpdateTodo, http.MethodPut, "There was an error while updating your todo."},
		{"delete todos", ctrl.DeleteTodos, http.MethodDelete, "There was an error while deleting your todos."},
		{"internal stats", ctrl.GetInternalStats, http.MethodGet, "There was an error while processing your request."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(tt.handler, tt.method, testUserID, "")

			assert.Equal(t, http.StatusInternalServerError, recorder.Code)
			assert.JSONEq(t, `{"message":"`+tt.message+`"}`, recorder.Body.String())
		})
	}
}

func TestGetTodos(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("GetUserTodos", mock.Anything, testUserID).Return([]models.Todo{}, nil).Once()
	db.On("GetUserTodos", mock.Anything, testUserID).Return([]models.Todo{
		{ID: "a", UserID: testUserID, Name: "first", Done: true},
		{ID: "b", UserID: testUserID, Name: "second"},
	}, nil).Once()

	ctrl := New(service.New(db), &fakeTokens{})

	recorder := serve(http.HandlerFunc(ctrl.GetTodos), http.MethodGet, testUserID, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"message":"You have no todo."}`, recorder.Body.String())

	recorder = serve(http.HandlerFunc(ctrl.GetTodos), http.MethodGet, testUserID, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(
		t,
		`{"todos":[{"id":"a","name":"first","done":true},{"id":"b","name":"second","done":false}]}`,
		recorder.Body.String(),
	)
}

func TestLoginUserWithoutResolvedUser(t *testing.T) {
	ctrl := New(service.New(&mockstorage.StorageMock{}), &fakeTokens{})

	recorder := serve(http.HandlerFunc(ctrl.LoginUser), http.MethodPost, "", "")

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"message":"There was an error while logging you in."}`, recorder.Body.String())
}
