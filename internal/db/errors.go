package db

import (
	"errors"
	"strconv"
)

// Sentinel errors for backend operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
)

// Op constants name backend operations for error context.
const (
	OpPing        = "PING"
	OpCreateIndex = "CREATE_INDEX"
	OpIndexExists = "INDEX_EXISTS"
	OpPutDoc      = "PUT_DOC"
	OpGetDoc      = "GET_DOC"
	OpDeleteDoc   = "DELETE_DOC"
	OpSearch      = "SEARCH"
	OpIncrTTL     = "INCRBY_EXPIRE"
	OpCounters    = "MGET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// StatusError is an unexpected HTTP status returned by the backend.
// Type carries the backend's error type when the response body had one.
type StatusError struct {
	Code int
	Type string
}

func (e *StatusError) Error() string {
	if e.Type == "" {
		return "unexpected status " + strconv.Itoa(e.Code)
	}
	return "unexpected status " + strconv.Itoa(e.Code) + " (" + e.Type + ")"
}
