// Package user defines the user model used throughout the application,
// particularly for authentication and ownership of todos.
package user

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt cost of stored password hashes.
const PasswordHashCost = 10

// bcrypt only looks at the first 72 bytes of a password.
const maxHashedPasswordBytes = 72

// User represents a registered account.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	// Username is the sanitized, globally unique display name.
	Username string

	// Email is the globally unique email address used to log in.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	RegistrationDate time.Time
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(hashedPart(password), PasswordHashCost)
	if err != nil {
		return "", fmt.Errorf("in internal/user/user.go/HashPassword(): error while `bcrypt.GenerateFromPassword()` calling: %w", err)
	}

	return string(hash), nil
}

// PasswordMatches reports whether password is the one the stored hash was made from.
func (u *User) PasswordMatches(password string) bool {
	if password == "" || u.PasswordHash == "" {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), hashedPart(password))

	return err == nil
}

func hashedPart(password string) []byte {
	result := []byte(password)
	if len(result) > maxHashedPasswordBytes {
		result = result[:maxHashedPasswordBytes]
	}

	return result
}
