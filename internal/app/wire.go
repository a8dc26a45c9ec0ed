//go:build wireinject
// +build wireinject

package app

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"github.com/approvenow/server/internal/shared/config"
)

// InitializeRouter builds the HTTP surface using Wire. It mirrors the graph
// New assembles by hand, without the background workers.
func InitializeRouter(cfg *config.Config) (*gin.Engine, func(), error) {
	wire.Build(
		InfraSet,
		NotificationSet,
		DomainSet,
		ProvideEventBus,
		wire.Struct(new(RouterDeps), "*"),
		NewRouter,
	)
	return nil, nil, nil
}
