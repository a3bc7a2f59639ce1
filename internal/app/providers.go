package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/adapter/ai"
	"github.com/eslsoft/taboo/internal/adapter/connectrpc"
	"github.com/eslsoft/taboo/internal/adapter/repository"
	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/infrastructure/config"
	"github.com/eslsoft/taboo/internal/infrastructure/database"
	repo "github.com/eslsoft/taboo/internal/repository"
	"github.com/eslsoft/taboo/internal/usecase"
	"github.com/eslsoft/taboo/internal/usecase/deck"
)

// Capability is the full set of AI operations a provider offers.
type Capability interface {
	usecase.WordSetTranslator
	usecase.DescriptionEvaluator
	usecase.SampleGenerator
}

func provideCapability(cfg *config.Config) (Capability, error) {
	if cfg.AIProvider() != config.AIProviderGemini {
		return ai.Disabled{}, nil
	}
	pricing := ai.Pricing{
		InputPerMillion:  cfg.AI.InputPricePerMillion,
		OutputPerMillion: cfg.AI.OutputPricePerMillion,
	}
	return ai.NewGemini(context.Background(), cfg.AI.APIKey, cfg.AI.Model, pricing)
}

func provideSessionRepository(cfg *config.Config, logger *logrus.Logger) (repo.SessionRepository, func(), error) {
	if cfg.SessionStore() != config.SessionStorePostgres {
		return repository.NewMemorySessionRepository(), func() {}, nil
	}
	pool, cleanup, err := database.NewSessionPool(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewPostgresSessionRepository(pool), cleanup, nil
}

func provideUsageTracker(logger *logrus.Logger) *ai.Tracker {
	return ai.NewTracker(ai.NewLogMeter(logger.WithField("component", "ai_usage")))
}

func provideTranslator(capability Capability, cfg *config.Config, logger *logrus.Logger) usecase.Translator {
	return usecase.NewTranslator(capability, cfg.AI.Timeout, logger.WithField("component", "translator"))
}

func provideEvaluator(capability Capability, cfg *config.Config, logger *logrus.Logger) usecase.Evaluator {
	return usecase.NewEvaluator(capability, cfg.AI.Timeout, logger.WithField("component", "evaluator"))
}

func provideSessionUsecase(
	cards repo.CardRepository,
	sessions repo.SessionRepository,
	translator usecase.Translator,
	evaluator usecase.Evaluator,
	capability Capability,
	usage *ai.Tracker,
	cfg *config.Config,
	logger *logrus.Logger,
) usecase.SessionUsecase {
	return usecase.NewSessionUsecase(cards, sessions, translator, evaluator, capability, usage, usecase.SessionConfig{
		IdleTimeout:          cfg.Game.SessionTimeout,
		SampleTimeout:        cfg.AI.Timeout,
		MaxDescriptionLength: cfg.Game.MaxDescriptionLength,
	}, logger.WithField("component", "sessions"))
}

func provideServiceOptions(cfg *config.Config) connectrpc.ServiceOptions {
	return connectrpc.ServiceOptions{IncludeExampleDefault: cfg.Game.IncludeExampleDefault}
}

// provideDeckService puts the configured source language ahead of caller options.
func provideDeckService(cards repo.CardRepository, cfg *config.Config, opts []deck.Option) *deck.Service {
	base := []deck.Option{deck.WithDefaultLanguage(entity.ParseLanguage(cfg.Game.SourceLanguage))}
	return deck.NewService(cards, append(base, opts...)...)
}
