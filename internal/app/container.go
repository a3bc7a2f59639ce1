package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/adapter/ai"
	"github.com/eslsoft/taboo/internal/infrastructure/config"
	"github.com/eslsoft/taboo/internal/infrastructure/server"
	"github.com/eslsoft/taboo/internal/usecase"
	"github.com/eslsoft/taboo/internal/usecase/deck"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Server   *server.Server
	Sessions usecase.SessionUsecase
	Usage    *ai.Tracker
}

// DeckContainer carries what the deck import and export commands need.
type DeckContainer struct {
	Config *config.Config
	Logger *logrus.Logger
	Decks  *deck.Service
}
