package domain

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every typed error below matches exactly one of them with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrForbidden   = errors.New("forbidden")

	ErrUnauthorized = errors.New("unauthorized")
)

type NotFoundError struct {
	Entity string
	ID     string
}

func NotFound(entity, id string) *NotFoundError { return &NotFoundError{Entity: entity, ID: id} }

// EntityUserOrBook names a reference that vanished under an insert. A foreign key
// violation does not say which of the two rows went away.
const EntityUserOrBook = "user or book"

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports an operation that would break an invariant. ActiveBorrows is set
// when open loans block a deletion.
type ConflictError struct {
	Reason        string
	ActiveBorrows int
}

func Conflict(reason string) *ConflictError { return &ConflictError{Reason: reason} }

func ActiveBorrowsConflict(n int) *ConflictError {
	return &ConflictError{Reason: "active borrows exist", ActiveBorrows: n}
}

func (e *ConflictError) Error() string {
	if e.ActiveBorrows > 0 {
		return fmt.Sprintf("%s: %d", e.Reason, e.ActiveBorrows)
	}
	return e.Reason
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type UnavailableError struct {
	BookID string
}

func (e *UnavailableError) Error() string { return "no copies available" }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

type ForbiddenError struct {
	Reason string
}

func Forbidden(reason string) *ForbiddenError { return &ForbiddenError{Reason: reason} }

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return e.Reason
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// UnauthorizedError rejects bad credentials or tokens. It never says which part was wrong.
type UnauthorizedError struct {
	Reason string
}

func Unauthorized(reason string) *UnauthorizedError { return &UnauthorizedError{Reason: reason} }

func (e *UnauthorizedError) Error() string { return e.Reason }

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// Common conflict reasons surfaced to callers.
const (
	ReasonAlreadyBorrowed = "already borrowed"
	ReasonAlreadyReturned = "already returned"
	ReasonDuplicateISBN   = "ISBN already exists"
	ReasonDuplicateEmail  = "email already registered"
	ReasonInWishlist      = "book is already in your wishlist"
	ReasonCopiesOnLoan    = "total copies below copies on loan"
)

// ValidationError marks input rejected by a business-level precondition the binder cannot express.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
