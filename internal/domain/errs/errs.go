// Package errs defines the error taxonomy shared by the portal domains.
// Every category except the store failures is an expected, recoverable
// outcome: handlers translate them to client-facing statuses and the
// caller decides whether to retry with different input.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means a malformed date, time, quantity or reference.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSlotTaken means the booking race was lost: a non-cancelled
	// appointment already holds the (doctor, date, time) key.
	ErrSlotTaken = errors.New("time slot is already booked")

	// ErrInsufficientStock means the stock race was lost or the medicine
	// never had enough units.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAlreadyFinalized means the target reached a terminal state
	// first: a completed visit, a delivered order, a settled payment.
	// Gateways redeliver callbacks, so callers log and discard this
	// rather than treating it as a failure.
	ErrAlreadyFinalized = errors.New("already finalized")

	// ErrForbidden means the caller is authenticated but the resource
	// belongs to someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrEmailTaken means the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// InsufficientStockError carries the stock level observed when an order
// was rejected, so the client can show how many units remain.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d unit(s) available", e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// HTTPStatus maps a domain error to the status code handlers respond with.
// Unrecognised errors are store-level failures and map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrSlotTaken):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
