// Package respond writes the JSON and redirect responses shared by the
// validators and controllers.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todolist/internal/logger"
	"github.com/patric-chuzhbe/todolist/internal/models"
)

// LoginPath is where unauthenticated clients are sent.
const LoginPath = "/login"

// JSON writes payload with the given status code.
func JSON(response http.ResponseWriter, statusCode int, payload any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)

	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder().Encode()`: ", zap.Error(err))
	}
}

// Message writes {"message": message} with the given status code.
func Message(response http.ResponseWriter, statusCode int, message string) {
	JSON(response, statusCode, models.MessageResponse{Message: message})
}

// ServerError logs err and writes a 500 with the operation specific message.
func ServerError(response http.ResponseWriter, message string, err error) {
	logger.Log.Debugln(message, zap.Error(err))
	Message(response, http.StatusInternalServerError, message)
}

// RedirectToLogin sends the client to the login page.
func RedirectToLogin(response http.ResponseWriter, request *http.Request) {
	http.Redirect(response, request, LoginPath, http.StatusFound)
}
