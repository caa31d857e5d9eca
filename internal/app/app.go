package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/ventas/internal/cache"
	"github.com/Additional-Code/ventas/internal/config"
	"github.com/Additional-Code/ventas/internal/database"
	"github.com/Additional-Code/ventas/internal/logger"
	"github.com/Additional-Code/ventas/internal/messaging"
	"github.com/Additional-Code/ventas/internal/observability"
	repositorycatalog "github.com/Additional-Code/ventas/internal/repository/catalog"
	repositoryorder "github.com/Additional-Code/ventas/internal/repository/order"
	grpcserver "github.com/Additional-Code/ventas/internal/server/grpc"
	httpserver "github.com/Additional-Code/ventas/internal/server/http"
	servicecatalog "github.com/Additional-Code/ventas/internal/service/catalog"
	serviceorder "github.com/Additional-Code/ventas/internal/service/order"
	transporthttp "github.com/Additional-Code/ventas/internal/transport/http"
	"github.com/Additional-Code/ventas/internal/worker"
	workerorder "github.com/Additional-Code/ventas/internal/worker/order"
)

// Base is configuration, logging and the database handle. Tooling commands
// need nothing more.
var Base = fx.Options(
	config.Module,
	logger.Module,
	database.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Base,
	cache.Module,
	messaging.Module,
	observability.Module,
	repositorycatalog.Module,
	repositoryorder.Module,
	servicecatalog.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP transport and the gRPC health endpoint on top of the
// core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
