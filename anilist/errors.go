package anilist

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors
var (
	// ErrInvalidPage indicates a page number below 1
	ErrInvalidPage = errors.New("page number must be positive")
	// ErrEmptyResult indicates a successful response without a data payload
	ErrEmptyResult = errors.New("no data returned from AniList")
	// ErrPaginationLimitExceeded indicates AniList kept reporting more pages past the ceiling
	ErrPaginationLimitExceeded = errors.New("pagination limit exceeded")
)

// TransportError indicates the request did not complete with a successful status
type TransportError struct {
	Page       int
	StatusCode int // 0 when no response was received
	Status     string
	Body       string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to fetch AniList media: page=%d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("failed to fetch AniList media: page=%d, %s", e.Page, e.Status)
}

// Unwrap returns the underlying network error, if any
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether AniList rejected the request for rate limiting
func (e *TransportError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsServerError reports whether AniList answered with a 5xx status
func (e *TransportError) IsServerError() bool {
	return e.StatusCode >= 500
}

// ShapeError indicates a payload that does not conform to the page schema
type ShapeError struct {
	Page int
	Err  error
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected AniList response shape: page=%d: %v", e.Page, e.Err)
}

// Unwrap returns the decode or validation error
func (e *ShapeError) Unwrap() error {
	return e.Err
}

// EmptyResultError indicates a successful response whose data payload was null or absent
type EmptyResultError struct {
	Page     int
	Messages []string // GraphQL error messages sent alongside, if any
}

// Error implements the error interface
func (e *EmptyResultError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s: page=%d", ErrEmptyResult, e.Page)
	}
	return fmt.Sprintf("%s: page=%d: %s", ErrEmptyResult, e.Page, strings.Join(e.Messages, "; "))
}

// Is matches ErrEmptyResult
func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

// PaginationLimitError indicates the page ceiling was reached with more pages reported
type PaginationLimitError struct {
	Limit int
}

// Error implements the error interface
func (e *PaginationLimitError) Error() string {
	return fmt.Sprintf("%s: more than %d pages reported", ErrPaginationLimitExceeded, e.Limit)
}

// Is matches ErrPaginationLimitExceeded
func (e *PaginationLimitError) Is(target error) bool {
	return target == ErrPaginationLimitExceeded
}
