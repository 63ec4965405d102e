package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"shop-sim-viewer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type SimulationError struct {
	Message string
	Cause   error
}

func (e *SimulationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SimulationError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks
type ConfigurationError struct{ SimulationError }
type DatabaseError struct{ SimulationError }

// ValidationError is a synchronous rejection of user input. No state changes when returned.
type ValidationError struct {
	SimulationError
	Field string
}

// TransportError covers network failures and non-2xx replies without a usable body.
type TransportError struct {
	SimulationError
	Endpoint string
	Status   int // 0 when no response was received
}

// APIError is an application-level failure: the API answered with success=false.
type APIError struct {
	SimulationError
	Endpoint string
	Status   int
}

var (
	ErrInvalidTransition = errors.New("action not allowed in the current stage")
	ErrSessionBusy       = errors.New("session is executing another stage")
	ErrSessionNotFound   = errors.New("session not found")
)

// -----------------------------------------------------------------------------

func NewValidationError(field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{SimulationError: SimulationError{Message: fmt.Sprintf(format, args...)}, Field: field}
}

func NewTransportError(endpoint string, status int, cause error) *TransportError {
	msg := fmt.Sprintf("%s failed", endpoint)
	if status != 0 {
		msg = fmt.Sprintf("%s failed: HTTP %d %s", endpoint, status, http.StatusText(status))
	}
	return &TransportError{SimulationError: SimulationError{Message: msg, Cause: cause}, Endpoint: endpoint, Status: status}
}

func NewAPIError(endpoint string, status int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("%s reported failure", endpoint)
	}
	return &APIError{SimulationError: SimulationError{Message: message}, Endpoint: endpoint, Status: status}
}

func NewDatabaseError(op string, cause error) *DatabaseError {
	return &DatabaseError{SimulationError{Message: op, Cause: cause}}
}

func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{SimulationError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------

// UserMessage returns the text shown to an operator for err. Server supplied text wins.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return err.Error()
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger     *logger.Logger
	ErrorCount int

	mu sync.Mutex
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	e.ErrorCount = 0
	e.mu.Unlock()
}

// Count returns the number of unexpected errors handled so far.
func (e *ErrorHandler) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ErrorCount
}

// -----------------------------------------------------------------------------

// Handle logs err under context. Validation and transition errors are expected user mistakes
// and are logged at a lower level.
func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrSessionBusy):
		e.Logger.Debug("Rejected in %s: %v", context, err)
	default:
		e.mu.Lock()
		e.ErrorCount++
		e.mu.Unlock()
		e.Logger.Error("Error in %s: %v", context, err)
	}
}

// -----------------------------------------------------------------------------

// HTTPStatus maps an error onto the status code returned by the viewer API.
func (e *ErrorHandler) HTTPStatus(err error) int {
	var (
		vErr  *ValidationError
		tErr  *TransportError
		aErr  *APIError
		dbErr *DatabaseError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrSessionBusy):
		return http.StatusConflict
	case errors.As(err, &tErr), errors.As(err, &aErr):
		return http.StatusBadGateway
	case errors.As(err, &dbErr):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
