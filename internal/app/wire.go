//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/taboo/internal/adapter/connectrpc"
	"github.com/eslsoft/taboo/internal/adapter/repository"
	"github.com/eslsoft/taboo/internal/infrastructure/config"
	"github.com/eslsoft/taboo/internal/infrastructure/database"
	"github.com/eslsoft/taboo/internal/infrastructure/server"
	"github.com/eslsoft/taboo/internal/usecase"
	"github.com/eslsoft/taboo/internal/usecase/deck"
)

var configSet = wire.NewSet(
	config.Load,
)

var databaseSet = wire.NewSet(
	database.OpenCardDB,
	database.NewCardDriver,
)

var repositorySet = wire.NewSet(
	repository.NewCardRepository,
	provideSessionRepository,
)

var aiSet = wire.NewSet(
	provideCapability,
	provideUsageTracker,
)

var usecaseSet = wire.NewSet(
	provideTranslator,
	provideEvaluator,
	provideSessionUsecase,
	usecase.NewCardUsecase,
)

var serviceSet = wire.NewSet(
	provideServiceOptions,
	connectrpc.NewTabooServiceServer,
)

var serverSet = wire.NewSet(
	server.NewLogger,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		aiSet,
		usecaseSet,
		serviceSet,
		serverSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}

// InitializeDeck builds the card deck tooling without the game server.
func InitializeDeck(opts []deck.Option) (*DeckContainer, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repository.NewCardRepository,
		server.NewLogger,
		provideDeckService,
		wire.Struct(new(DeckContainer), "*"),
	)
	return nil, nil, nil
}
