package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrIndexExists = errors.New("db: index already exists")
	ErrTxAborted   = errors.New("db: transaction aborted")
)

// Op constants map to Valkey/Redis command names for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpSearch      = "FT.SEARCH"
	OpHGetAll     = "HGETALL"
	OpGet         = "GET"
	OpSet         = "SET"
	OpSMembers    = "SMEMBERS"
	OpSCard       = "SCARD"
	OpZCard       = "ZCARD"
	OpZRange      = "ZRANGE"
	OpExec        = "EXEC"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
