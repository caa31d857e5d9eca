// Package storeerr turns classified storage errors into application errors.
package storeerr

import (
	"errors"

	"github.com/Additional-Code/ventas/internal/database"
	"github.com/Additional-Code/ventas/pkg/errorbank"
)

// Messages holds the caller-facing text per storage class. Empty entries
// fall back to generic wording.
type Messages struct {
	NotFound         string
	MissingReference string
	Duplicate        string
	Failed           string
}

// Translate maps err onto an errorbank error, keeping err as the cause.
func Translate(err error, msgs Messages) error {
	if err == nil {
		return nil
	}
	cause := errorbank.WithCause(err)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errorbank.NotFound(orDefault(msgs.NotFound, "record not found"), cause)
	case errors.Is(err, database.ErrMissingReference):
		return errorbank.NotFound(orDefault(msgs.MissingReference, "referenced record not found"), cause)
	case errors.Is(err, database.ErrDuplicate):
		return errorbank.Conflict(orDefault(msgs.Duplicate, "record already exists"), cause)
	case errors.Is(err, database.ErrReferenced):
		return errorbank.Conflict("record is referenced by other records", cause)
	case errors.Is(err, database.ErrInvalidValue):
		return errorbank.BadRequest("value out of range", cause)
	case errors.Is(err, database.ErrUnavailable):
		return errorbank.Unavailable("storage unavailable", cause)
	default:
		return errorbank.Internal(orDefault(msgs.Failed, "storage error"), cause)
	}
}

func orDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
