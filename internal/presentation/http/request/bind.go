// Package request decodes and validates HTTP request bodies.
package request

import (
	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/ventas/pkg/errorbank"
)

// Bind decodes the body into dest and runs the router's validator on it.
// Malformed JSON and type mismatches are reported as bad_request.
func Bind(c echo.Context, dest any) error {
	if err := c.Bind(dest); err != nil {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	if err := c.Validate(dest); err != nil {
		return errorbank.From(err)
	}
	return nil
}
