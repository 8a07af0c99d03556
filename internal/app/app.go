package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"reelforge/internal/config"
	"reelforge/internal/pkg/cache"
	"reelforge/internal/pkg/events"
	"reelforge/internal/pkg/mongodb"
	"reelforge/internal/pkg/reeltools"
	"reelforge/internal/pkg/reeltools/providers"
	"reelforge/internal/pkg/runlock"
	"reelforge/internal/pkg/storage"
	"reelforge/internal/pkg/storagefactory"
	"reelforge/internal/repository/artifact"
	runrepo "reelforge/internal/repository/run"
	"reelforge/internal/service"
)

// App 命令行与 HTTP 服务共用的依赖集合
type App struct {
	Config   *config.Config
	Storage  storage.Storage
	Pipeline service.PipelineService

	mongo     *mongodb.Client
	redis     *cache.RedisCache
	publisher events.Publisher
}

// New 根据配置初始化依赖
// MongoDB、Redis、NATS 均为可选，连接失败时记录警告并继续
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	a := &App{
		Config:    cfg,
		Storage:   store,
		publisher: events.NoopPublisher{},
	}

	var runs runrepo.RunRepository
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, run history disabled")
		} else {
			a.mongo = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
			if err := mongodb.EnsureIndexes(ctx, client.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
			runs = runrepo.NewRepo(client.Database())
		}
	}

	var adapterOpts []reeltools.AdapterOption
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, prompt cache disabled")
		} else {
			a.redis = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
			adapterOpts = append(adapterOpts, reeltools.WithPromptCache(cache.NewPromptCache(rc, cfg.Segmentation.CacheTTL)))
		}
	}

	if cfg.NATS.URL != "" {
		pub, err := events.NewNATSPublisher(&cfg.NATS)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, downstream events disabled")
		} else {
			a.publisher = pub
		}
	}

	var llm reeltools.LLMProvider
	if cfg.AI.APIKey != "" {
		p, err := providers.New(ctx, &cfg.AI, providers.SystemPrompt)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to create llm provider: %w", err)
		}
		llm = p
		log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("initialized llm provider")
	} else {
		log.Warn().Msg("ai.api_key not configured, segment prompts will use fallback text")
	}

	locker, err := runlock.New(lockDir(cfg))
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	pipeline, err := service.NewPipelineService(service.PipelineDeps{
		Artifacts:    artifact.NewRepo(store),
		Adapter:      reeltools.NewPromptAdapter(llm, adapterOpts...),
		Runs:         runs,
		Publisher:    a.publisher,
		Locker:       locker,
		Sync:         cfg.Sync,
		Segmentation: cfg.Segmentation,
	})
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to create pipeline service: %w", err)
	}
	a.Pipeline = pipeline

	return a, nil
}

// lockDir 运行锁目录，未配置时本地存储放在制作目录下
func lockDir(cfg *config.Config) string {
	if cfg.Pipeline.LockDir != "" {
		return cfg.Pipeline.LockDir
	}
	if cfg.Storage.Type == "local" && cfg.Storage.Local != nil {
		return filepath.Join(cfg.Storage.Local.BasePath, ".locks")
	}
	return filepath.Join(os.TempDir(), "reelforge-locks")
}

// Ready 检查已配置的外部依赖是否可用
func (a *App) Ready(ctx context.Context) error {
	if a.mongo != nil {
		if err := a.mongo.Ping(ctx); err != nil {
			return fmt.Errorf("mongo not ready: %w", err)
		}
	}
	return nil
}

// Close 关闭所有连接
func (a *App) Close(ctx context.Context) {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close NATS connection")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
}
