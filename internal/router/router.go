// Package router maps every route of the service to its middleware chain.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/patric-chuzhbe/todolist/internal/controller"
	"github.com/patric-chuzhbe/todolist/internal/gzippedhttp"
	"github.com/patric-chuzhbe/todolist/internal/ipchecker"
	"github.com/patric-chuzhbe/todolist/internal/logger"
	"github.com/patric-chuzhbe/todolist/internal/metrics"
	"github.com/patric-chuzhbe/todolist/internal/pages"
	"github.com/patric-chuzhbe/todolist/internal/validator"
)

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
}

type initOptions struct {
	metrics   *metrics.Metrics
	ipChecker *ipchecker.IPChecker
	pages     *pages.Pages
}

// InitOption configures the optional parts of the router.
type InitOption func(*initOptions)

// WithMetrics records request metrics and exposes them on GET /metrics.
func WithMetrics(m *metrics.Metrics) InitOption {
	return func(options *initOptions) {
		options.metrics = m
	}
}

// WithIPChecker guards the operational endpoints with the trusted subnet of checker.
// Without it those endpoints answer 403 to everybody.
func WithIPChecker(checker *ipchecker.IPChecker) InitOption {
	return func(options *initOptions) {
		options.ipChecker = checker
	}
}

// WithPages serves the front end pages and assets.
func WithPages(p *pages.Pages) InitOption {
	return func(options *initOptions) {
		options.pages = p
	}
}

// New builds the HTTP handler of the service.
func New(
	ctrl *controller.Controller,
	auth authenticator,
	v *validator.Validator,
	optionsProto ...InitOption,
) *chi.Mux {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}
	if options.ipChecker == nil {
		options.ipChecker = &ipchecker.IPChecker{}
	}

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(logger.WithLoggingHTTPMiddleware)
	if options.metrics != nil {
		router.Use(options.metrics.Middleware)
	}
	router.Use(chimiddleware.Recoverer)
	router.Use(gzippedhttp.CompressResponse)
	router.Use(gzippedhttp.DecompressRequest)

	router.Get(`/ping`, ctrl.Ping)

	trusted := router.With(options.ipChecker.TrustedSubnetOnly)
	trusted.Get(`/api/internal/stats`, ctrl.GetInternalStats)
	if options.metrics != nil {
		trusted.Method(http.MethodGet, `/metrics`, options.metrics.Handler())
	}

	router.With(
		validator.ParseBody,
		validator.ValidateUsername,
		validator.ValidateEmail,
		validator.ValidatePassword,
		v.CheckIfSignupDataIsUnique,
	).Post(`/signup`, ctrl.SignupUser)

	router.With(
		validator.ParseBody,
		v.ValidateLogin,
	).Post(`/login`, ctrl.LoginUser)

	router.With(
		auth.AuthenticateUser,
		validator.ParseBody,
		v.ValidateCurrentPassword,
		validator.ValidateUsername,
		validator.ValidateEmail,
		validator.ValidateOptionalPassword,
		v.CheckIfUpdateDataIsUnique,
	).Put(`/profile`, ctrl.UpdateUser)

	router.With(
		auth.AuthenticateUser,
		validator.ParseBody,
		v.ValidateCurrentPassword,
	).Delete(`/profile`, ctrl.DeleteUser)

	router.With(
		auth.AuthenticateUser,
	).Get(`/todo`, ctrl.GetTodos)

	router.With(
		auth.AuthenticateUser,
		validator.ParseBody,
		validator.ValidateTodoName,
	).Post(`/todo`, ctrl.CreateTodo)

	router.With(
		auth.AuthenticateUser,
		validator.ParseBody,
		validator.ValidateTodoName,
		v.ValidateTodoData,
	).Put(`/todo`, ctrl.UpdateTodo)

	router.With(
		auth.AuthenticateUser,
		validator.ParseBody,
		v.ValidateTodosToBeDeleted,
	).Delete(`/todo`, ctrl.DeleteTodos)

	if options.pages != nil {
		router.Get(`/`, options.pages.Page("index.html"))
		router.Get(`/signup`, options.pages.Page("html/signup.html"))
		router.Get(`/login`, options.pages.Page("html/login.html"))
		router.Get(`/profile`, options.pages.Page("html/profile.html"))
		router.NotFound(options.pages.Static)
	} else {
		router.Get(`/login`, ctrl.LoginRequired)
	}

	return router
}
