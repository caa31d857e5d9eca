package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Storage error classes. Classify wraps driver errors so callers can match
// them with errors.Is without knowing which driver is in use.
var (
	ErrStorage          = errors.New("storage error")
	ErrNotFound         = errors.New("record not found")
	ErrMissingReference = errors.New("referenced record does not exist")
	ErrDuplicate        = errors.New("duplicate record")
	ErrReferenced       = errors.New("record is still referenced")
	ErrInvalidValue     = errors.New("value does not fit its column")
	ErrUnavailable      = errors.New("storage unavailable")
)

// Error pairs a storage class with the driver error that produced it.
type Error struct {
	class error
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.class, e.cause)
}

// Unwrap exposes both the class and the cause to errors.Is/errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.class, e.cause}
}

// Classify maps a driver error onto one of the storage classes.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{class: classOf(err), cause: err}
}

func classOf(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1216, 1452:
			return ErrMissingReference
		case 1062:
			return ErrDuplicate
		case 1217, 1451:
			return ErrReferenced
		case 1264, 1366, 1406:
			return ErrInvalidValue
		case 1040, 1205, 1213:
			return ErrUnavailable
		}
		return ErrStorage
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		code := pgErr.Field('C')
		switch {
		case code == "23503":
			return ErrMissingReference
		case code == "23505":
			return ErrDuplicate
		case strings.HasPrefix(code, "22"):
			return ErrInvalidValue
		case strings.HasPrefix(code, "08"), code == "57P01", code == "53300":
			return ErrUnavailable
		}
		return ErrStorage
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrUnavailable
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrMissingReference
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrDuplicate
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "sql: database is closed"):
		return ErrUnavailable
	}
	return ErrStorage
}
