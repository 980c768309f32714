package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type WatchlistError struct {
	Message string
	Cause   error
}

func (e *WatchlistError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *WatchlistError) Unwrap() error {
	return e.Cause
}

// RemoteError is a transport failure or a non-2xx answer from the quote service.
type RemoteError struct {
	WatchlistError
	Operation  string
	StatusCode int // 0 when the request never got a response
}

// PersistenceError is a store read or write failure. It never stops the process.
type PersistenceError struct{ WatchlistError }

// ValidationError is malformed caller input.
type ValidationError struct{ WatchlistError }

// -----------------------------------------------------------------------------

func NewRemoteError(operation string, status int, message string, cause error) *RemoteError {
	return &RemoteError{
		WatchlistError: WatchlistError{Message: message, Cause: cause},
		Operation:      operation,
		StatusCode:     status,
	}
}

func NewPersistenceError(message string, cause error) *PersistenceError {
	return &PersistenceError{WatchlistError{Message: message, Cause: cause}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{WatchlistError{Message: message}}
}

// IsRemote reports whether err wraps a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsPersistence reports whether err wraps a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to attempts times, doubling baseDelay between
// tries. Validation errors are returned immediately.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, attempts int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if IsValidation(err) || attempt == attempts-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, attempts, operation, err, delay)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}

// -----------------------------------------------------------------------------
// Error Reporter
// -----------------------------------------------------------------------------

// Notifier delivers a user-visible transient notification.
type Notifier interface {
	Notify(n models.MNotification)
}

// ErrorReporter logs non-fatal failures and forwards them to the user.
type ErrorReporter struct {
	Logger   *logger.Logger
	Notifier Notifier
	now      func() time.Time
}

func NewErrorReporter(log *logger.Logger, notifier Notifier) *ErrorReporter {
	return &ErrorReporter{
		Logger:   log,
		Notifier: notifier,
		now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

// Report logs err with its context and notifies the user. symbol may be empty.
func (e *ErrorReporter) Report(err error, context, symbol string) {
	if err == nil {
		return
	}
	if symbol != "" {
		e.Logger.Error("Error in %s for %s: %v", context, symbol, err)
	} else {
		e.Logger.Error("Error in %s: %v", context, err)
	}

	msg := fmt.Sprintf("%s failed: %v", context, err)
	if symbol != "" {
		msg = fmt.Sprintf("%s failed for %s: %v", context, symbol, err)
	}
	e.notify(models.NotifyError, msg, symbol)
}

// Confirm sends an informational notification, e.g. after a removal.
func (e *ErrorReporter) Confirm(message, symbol string) {
	e.Logger.Info("%s", message)
	e.notify(models.NotifyInfo, message, symbol)
}

func (e *ErrorReporter) notify(level, message, symbol string) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.Notify(models.MNotification{
		Level:   level,
		Message: message,
		Symbol:  symbol,
		Time:    e.now(),
	})
}
