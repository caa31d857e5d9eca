package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name  string
		err   error
		class error
	}{
		{name: "no rows", err: sql.ErrNoRows, class: ErrNotFound},
		{name: "mysql foreign key", err: &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, class: ErrMissingReference},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, class: ErrDuplicate},
		{name: "mysql parent referenced", err: &mysql.MySQLError{Number: 1451}, class: ErrReferenced},
		{name: "mysql out of range", err: &mysql.MySQLError{Number: 1264, Message: "Out of range value for column 'precio_venta'"}, class: ErrInvalidValue},
		{name: "mysql data too long", err: &mysql.MySQLError{Number: 1406}, class: ErrInvalidValue},
		{name: "mysql too many connections", err: &mysql.MySQLError{Number: 1040}, class: ErrUnavailable},
		{name: "mysql syntax", err: &mysql.MySQLError{Number: 1064}, class: ErrStorage},
		{name: "mysql invalid conn", err: mysql.ErrInvalidConn, class: ErrUnavailable},
		{name: "bad conn", err: fmt.Errorf("exec: %w", driver.ErrBadConn), class: ErrUnavailable},
		{name: "conn done", err: sql.ErrConnDone, class: ErrUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, class: ErrUnavailable},
		{name: "network", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, class: ErrUnavailable},
		{name: "sqlite foreign key", err: errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), class: ErrMissingReference},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: clientes.nit"), class: ErrDuplicate},
		{name: "sqlite locked", err: errors.New("database is locked"), class: ErrUnavailable},
		{name: "closed pool", err: errors.New("sql: database is closed"), class: ErrUnavailable},
		{name: "anything else", err: errors.New("boom"), class: ErrStorage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			assert.ErrorIs(t, got, tc.class)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	assert.NoError(t, Classify(nil))

	first := Classify(&mysql.MySQLError{Number: 1062})
	second := Classify(fmt.Errorf("insert client: %w", first))
	assert.ErrorIs(t, second, ErrDuplicate)
	assert.NotErrorIs(t, second, ErrStorage)
}
