// Package auth issues and verifies the signed bearer tokens of the service
// and provides the middleware that authenticates requests with them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todolist/internal/logger"
	"github.com/patric-chuzhbe/todolist/internal/respond"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

type userKeeper interface {
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

// Auth handles token management and request authentication.
type Auth struct {
	// db is used to confirm that the account behind a token still exists.
	db userKeeper

	// signingSecretKey is the HMAC key tokens are signed with.
	signingSecretKey []byte

	// tokenTTL is the lifetime of issued tokens; zero or less disables expiry.
	tokenTTL time.Duration

	now func() time.Time
}

// Claims represents the token claims used by the system.
// It embeds standard JWT claims and adds the identity of the user.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// ErrInvalidToken is returned for tokens that are malformed, badly signed or expired.
var ErrInvalidToken = errors.New("invalid token")

const messageProcessingError = "There was an error while processing your request."

// New creates a new Auth with the given user storage, signing secret and token lifetime.
func New(
	db userKeeper,
	signingSecretKey []byte,
	tokenTTL time.Duration,
) *Auth {
	return &Auth{
		db:               db,
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
		now:              time.Now,
	}
}

// AuthenticateUser is the middleware guarding every route that needs a
// logged in user. Requests without a valid bearer token, or whose token
// names a user that no longer exists, are redirected to the login page.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, ok := getBearerToken(request)
		if !ok {
			respond.RedirectToLogin(response, request)
			return
		}

		claims, err := a.GetClaimsFromToken(tokenString)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.GetClaimsFromToken()`: ", zap.Error(err))
			respond.RedirectToLogin(response, request)
			return
		}

		usr, found, err := a.db.GetUserByID(request.Context(), claims.UserID)
		if err != nil {
			respond.ServerError(response, messageProcessingError, err)
			return
		}
		if !found {
			respond.RedirectToLogin(response, request)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, usr.ID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// BuildJWTString issues a signed token carrying the identity of usr.
func (a *Auth) BuildJWTString(usr *user.User) (string, error) {
	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID:   usr.ID,
		Username: usr.Username,
		Email:    usr.Email,
	}
	if a.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", fmt.Errorf("in internal/auth/auth.go/BuildJWTString(): error while `token.SignedString()` calling: %w", err)
	}

	return tokenString, nil
}

// GetClaimsFromToken verifies the signature and expiry of tokenString.
func (a *Auth) GetClaimsFromToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetUserID returns the id stored by AuthenticateUser.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)

	return userID, ok && userID != ""
}

func getBearerToken(request *http.Request) (string, bool) {
	authorization := request.Header.Get("Authorization")
	if authorization == "" {
		return "", false
	}

	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}
