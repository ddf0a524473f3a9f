package validator

import (
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/todolist/internal/auth"
	"github.com/patric-chuzhbe/todolist/internal/respond"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

const (
	maxUsernameLength = 50
	maxEmailLength    = 320
	minPasswordLength = 8
	maxPasswordLength = 4000

	messageUsersConflict    = "Users/a user with this username or/and email address already exists."
	messageUsernameConflict = "A user with this username already exists."
	messageEmailConflict    = "A user with this email address already exists."
)

var fieldValidate = govalidator.New()

// ValidateUsername requires a username of 1 to 50 characters after sanitizing.
func ValidateUsername(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		value, ok := field(request, "username")
		if !ok {
			respond.Message(response, http.StatusBadRequest, messageIncomplete)
			return
		}

		username, isString := value.(string)
		if !isString {
			respond.Message(response, http.StatusBadRequest, messageInvalidUsername)
			return
		}

		username = Sanitize(username)
		length := utf8.RuneCountInString(username)
		if length < 1 || length > maxUsernameLength {
			respond.Message(response, http.StatusBadRequest, messageInvalidUsername)
			return
		}

		h.ServeHTTP(response, withValue(request, usernameKey, username))
	}

	return http.HandlerFunc(middleware)
}

// ValidateEmail requires a syntactically valid email address.
func ValidateEmail(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		value, ok := field(request, "email")
		if !ok {
			respond.Message(response, http.StatusBadRequest, messageIncomplete)
			return
		}

		email, isString := value.(string)
		if !isString || !IsEmail(strings.TrimSpace(email)) {
			respond.Message(response, http.StatusBadRequest, messageInvalidEmail)
			return
		}

		h.ServeHTTP(response, withValue(request, emailKey, strings.TrimSpace(email)))
	}

	return http.HandlerFunc(middleware)
}

// IsEmail reports whether email is an address with an alphabetic top level
// domain of at least two letters.
func IsEmail(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}
	if err := fieldValidate.Var(email, "email"); err != nil {
		return false
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	dot := strings.LastIndex(domain, ".")
	if dot < 0 {
		return false
	}

	tld := domain[dot+1:]
	if utf8.RuneCountInString(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return false
		}
	}

	return true
}

// ValidatePassword requires password and password2 to be equal strings of
// 8 to 4000 characters.
func ValidatePassword(h http.Handler) http.Handler {
	return passwordValidator(h, false)
}

// ValidateOptionalPassword is ValidatePassword for profile updates: it lets
// the request through untouched when neither password field is given.
func ValidateOptionalPassword(h http.Handler) http.Handler {
	return passwordValidator(h, true)
}

func passwordValidator(h http.Handler, optional bool) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		password, hasPassword := field(request, "password")
		password2, hasPassword2 := field(request, "password2")

		if optional && !hasPassword && !hasPassword2 {
			h.ServeHTTP(response, request)
			return
		}
		if !hasPassword || !hasPassword2 {
			respond.Message(response, http.StatusBadRequest, messageIncomplete)
			return
		}

		first, firstIsString := password.(string)
		second, secondIsString := password2.(string)
		length := utf8.RuneCountInString(first)
		if !firstIsString || !secondIsString ||
			length < minPasswordLength || length > maxPasswordLength ||
			first != second {
			respond.Message(response, http.StatusBadRequest, messageInvalidPassword)
			return
		}

		h.ServeHTTP(response, withValue(request, newPasswordKey, first))
	}

	return http.HandlerFunc(middleware)
}

// CheckIfSignupDataIsUnique rejects a signup whose username or email is
// already registered.
func (v *Validator) CheckIfSignupDataIsUnique(h http.Handler) http.Handler {
	return v.uniquenessChecker(h, false)
}

// CheckIfUpdateDataIsUnique is CheckIfSignupDataIsUnique for profile updates:
// the requesting user's own row does not count.
func (v *Validator) CheckIfUpdateDataIsUnique(h http.Handler) http.Handler {
	return v.uniquenessChecker(h, true)
}

func (v *Validator) uniquenessChecker(h http.Handler, excludeSelf bool) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		username := Username(request.Context())
		email := Email(request.Context())

		excludedUserID := ""
		if excludeSelf {
			excludedUserID, _ = auth.GetUserID(request.Context())
		}

		users, err := v.db.FindUsersByUsernameOrEmail(request.Context(), username, email, excludedUserID)
		if err != nil {
			respond.ServerError(response, messageProcessingError, err)
			return
		}

		if message := ConflictMessage(users, username, email); message != "" {
			respond.Message(response, http.StatusBadRequest, message)
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// ConflictMessage picks the message for the users sharing username or email
// with a candidate account, or returns "" when there are none.
func ConflictMessage(users []user.User, username, email string) string {
	if len(users) == 0 {
		return ""
	}

	first := users[0]
	switch {
	case len(users) > 1 || (first.Username == username && first.Email == email):
		return messageUsersConflict
	case first.Username == username:
		return messageUsernameConflict
	case first.Email == email:
		return messageEmailConflict
	}

	return ""
}

// ValidateLogin resolves the user by email and checks the password.
func (v *Validator) ValidateLogin(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		emailValue, hasEmail := field(request, "email")
		passwordValue, hasPassword := field(request, "password")
		if !hasEmail || !hasPassword {
			respond.Message(response, http.StatusBadRequest, messageLoginIncomplete)
			return
		}

		email, _ := emailValue.(string)
		password, _ := passwordValue.(string)

		usr, found, err := v.db.GetUserByEmail(request.Context(), strings.TrimSpace(email))
		if err != nil {
			respond.ServerError(response, messageLoginError, err)
			return
		}
		if !found {
			respond.Message(response, http.StatusBadRequest, messageUserNotExists)
			return
		}

		if !usr.PasswordMatches(password) {
			respond.Message(response, http.StatusBadRequest, messageIncorrectPassword)
			return
		}

		h.ServeHTTP(response, withValue(request, userKey, usr))
	}

	return http.HandlerFunc(middleware)
}

// ValidateCurrentPassword confirms the password of the authenticated user
// before a profile change. PUT requests carry it as oldPassword, DELETE
// requests as password.
func (v *Validator) ValidateCurrentPassword(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		passkeyField := "oldPassword"
		if request.Method == http.MethodDelete {
			passkeyField = "password"
		}

		passkeyValue, ok := field(request, passkeyField)
		if !ok {
			respond.Message(response, http.StatusBadRequest, messageIncomplete)
			return
		}
		passkey, _ := passkeyValue.(string)

		userID, ok := auth.GetUserID(request.Context())
		if !ok {
			respond.RedirectToLogin(response, request)
			return
		}

		usr, found, err := v.db.GetUserByID(request.Context(), userID)
		if err != nil {
			respond.ServerError(response, messageProcessingError, err)
			return
		}
		if !found {
			respond.RedirectToLogin(response, request)
			return
		}

		if !usr.PasswordMatches(passkey) {
			respond.Message(response, http.StatusBadRequest, messageIncorrectPassword)
			return
		}

		h.ServeHTTP(response, withValue(request, userKey, usr))
	}

	return http.HandlerFunc(middleware)
}
