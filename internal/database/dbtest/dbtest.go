// Package dbtest opens throwaway SQLite databases carrying the ventas schema.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/config"
	"github.com/Additional-Code/ventas/internal/database"
	"github.com/Additional-Code/ventas/internal/migration"
)

// Config returns the configuration of a private in-memory database named
// after the test.
func Config(t testing.TB) config.Config {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return config.Config{Database: config.Database{
		Driver:    "sqlite",
		WriterDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}}
}

// Open returns connections to a private in-memory database with every
// migration applied and foreign keys enforced. It is closed when the test
// ends.
func Open(t testing.TB) *database.Connections {
	t.Helper()

	cfg := Config(t)
	conns, err := database.Open(cfg.Database, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	migrator, err := migration.New(cfg, conns, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up(context.Background()))

	return conns
}
