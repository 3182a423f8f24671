package domain

import (
	"errors"
	"sort"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

var (
	MessageUserNotAllowed       = "user not allowed"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedTokenInvalid   = "failed to token invalid"
	MessageFailedGetToken       = "failed to get token"
	MessageNotFound             = "resource not found"
	MessageTooManyRequests      = "too many requests"

	ErrParseID         = errors.New("failed to parse id")
	ErrUserNotAllowed  = errors.New("user not allowed")
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	ErrTokenNotFound   = errors.New("failed to token not found")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrTokenExpired    = errors.New("token expired")
)

// Viewer is the identity a request is made on behalf of. The zero value is
// an anonymous caller.
type Viewer struct {
	ID   uint
	Role Role
}

func (v Viewer) IsAnonymous() bool {
	return v.ID == 0
}

func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// ValidationError carries per-field messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

type (
	PaginationRequest struct {
		Page  int
		Limit int
	}

	PaginatedResponse[T any] struct {
		Count      int64 `json:"count"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int64 `json:"total_pages"`
		Results    []T   `json:"results"`
	}
)

func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

func NewPaginatedResponse[T any](results []T, count int64, p PaginationRequest) PaginatedResponse[T] {
	if results == nil {
		results = []T{}
	}
	return PaginatedResponse[T]{
		Count:      count,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: (count + int64(p.Limit) - 1) / int64(p.Limit),
		Results:    results,
	}
}
