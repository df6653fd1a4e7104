package marketplace

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Typed results of lifecycle operations. Handlers match on these with
// errors.Is and translate to HTTP statuses; nothing store-specific leaks out.
var (
	ErrAuthenticationRequired  = errors.New("authentication required")
	ErrAuthorization           = errors.New("caller is not allowed to perform this operation")
	ErrNotFound                = errors.New("resource not found")
	ErrDuplicateBid            = errors.New("a bid for this job already exists")
	ErrInvalidState            = errors.New("resource is not in a state that allows this operation")
	ErrCounterOffersNotAllowed = errors.New("this job does not accept counter offers")
	ErrAlreadyReviewed         = errors.New("this job has already been reviewed")
	ErrPartialFailure          = errors.New("operation could not be completed, re-check job and bid state before retrying")
)

// FieldErrors accumulates per-field validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// ValidationError reports malformed input before any write happens.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}
