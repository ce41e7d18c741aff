package store

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrClosed is wrapped by a ConnectionError when the store is used after Close.
var ErrClosed = errors.New("store is closed")

// ConnectionError reports that the database could not be reached: bad
// credentials, an unreachable host, a dropped connection or use after Close.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is, or wraps, a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// classify wraps err with the operation name. Connection-level failures
// become ConnectionError; everything else keeps its cause for errors.Is/As.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsConnectionError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var connectErr *pgconn.ConnectError
	var opErr *net.OpError
	if errors.As(err, &connectErr) || errors.As(err, &opErr) {
		return &ConnectionError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// errorKind labels a classified error for metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsConnectionError(err):
		return "connection"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "query"
	}
}
