package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sellerctl/internal/config"
	"sellerctl/internal/repository"
	"sellerctl/internal/service"
)

// App holds the wired pipeline shared by the server and the CLI
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *service.SchemaRegistry
	Platform service.Platform
	Pipeline *service.Pipeline
	Sessions *service.Sessions

	closers []func() error
}

// New builds the platform adapter and the pipeline stages from cfg
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Registry: service.NewSchemaRegistry()}

	platform, err := a.openPlatform(ctx)
	if err != nil {
		return nil, err
	}
	a.Platform = platform

	classifier := service.NewOpenAIClassifier(&cfg.OpenAI, a.Registry, logger.Named("classifier"))
	if classifier.IsEnabled() {
		logger.Info("classifier initialized",
			zap.String("api_base", cfg.OpenAI.APIBase),
			zap.String("model", cfg.OpenAI.ChatModel),
			zap.Float64("temperature", cfg.OpenAI.ChatTemperature),
			zap.Int("max_tokens", cfg.OpenAI.ChatMaxTokens))
	} else {
		logger.Warn("OpenAI is disabled, every command will resolve to UNKNOWN",
			zap.String("hint", "set OPENAI_API_KEY to enable classification"))
	}

	policy := service.Policy{
		MaxDiscountPercent: cfg.Policy.MaxDiscountPercent,
		PriceFloor:         cfg.Policy.PriceFloor,
	}

	a.Pipeline = &service.Pipeline{
		Resolver: service.NewIntentResolver(classifier, a.Registry, logger.Named("resolver"),
			service.WithClassifyTimeout(cfg.OpenAI.Timeout),
			service.WithMinConfidence(cfg.Policy.MinConfidence)),
		Previewer: service.NewPreviewer(platform, policy, logger.Named("preview")),
		Engine:    service.NewEngine(platform, policy, logger.Named("engine")).SetConcurrency(cfg.Policy.BulkConcurrency),
		Logger:    logger.Named("session"),
	}
	a.Sessions = service.NewSessions(a.Pipeline)

	logger.Info("pipeline initialized",
		zap.String("platform", cfg.Platform.Mode),
		zap.Float64("max_discount_percent", policy.MaxDiscountPercent),
		zap.Float64("price_floor", policy.PriceFloor),
		zap.Int("bulk_concurrency", cfg.Policy.BulkConcurrency))
	return a, nil
}

func (a *App) openPlatform(ctx context.Context) (service.Platform, error) {
	cfg := a.Config
	switch cfg.Platform.Mode {
	case config.PlatformModeHTTP:
		a.Logger.Info("using marketplace backend", zap.String("base_url", cfg.Platform.BaseURL))
		return repository.NewMarketplaceClient(cfg.Platform.BaseURL, cfg.Platform.APIToken, cfg.Platform.Timeout), nil

	case config.PlatformModeSandbox:
		sandbox, err := repository.NewSandboxPlatform(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
			cfg.Policy.PriceFloor,
		)
		if err != nil {
			return nil, fmt.Errorf("open sandbox platform: %w", err)
		}
		sandbox.SetTimeout(cfg.Platform.Timeout)
		if err := sandbox.EnsureSchema(ctx); err != nil {
			sandbox.Close()
			return nil, fmt.Errorf("prepare sandbox schema: %w", err)
		}
		a.closers = append(a.closers, sandbox.Close)
		a.Logger.Info("connected to sandbox database",
			zap.String("host", cfg.PostgreSQL.Host),
			zap.String("database", cfg.PostgreSQL.Database))
		return sandbox, nil
	}
	return nil, fmt.Errorf("unsupported platform mode %q", cfg.Platform.Mode)
}

// Close releases platform resources
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
