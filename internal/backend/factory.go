package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/ports"
	"bilancio/internal/report"
	"bilancio/internal/seed"
	"bilancio/internal/services"
	"bilancio/internal/storage"
	"bilancio/internal/storage/memory"
)

const (
	defaultCacheSize = 64
	defaultCacheTTL  = 10 * time.Minute
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store, connects AMQP when configured, and wires
// the summary cache, the aggregator and the services on top.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	var events *amqp.Client
	if config.AMQPURL != "" {
		events, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
			events = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	size := config.SummaryCacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	ttl := config.SummaryCacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	summaries := cache.NewLRUCache[core.MonthSummary](size, ttl)
	agg := report.NewAggregator(store, summaries)

	var publisher services.EventPublisher
	if events != nil {
		publisher = events
	}
	svc := services.New(store, publisher, agg)
	if events != nil {
		svc.OnClose(events.Close)
	}

	if config.SeedFile != "" {
		if _, err := seed.LoadAndApply(ctx, svc, config.SeedFile, time.Now()); err != nil {
			return nil, errors.Join(fmt.Errorf("apply seed file: %w", err), svc.Close())
		}
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"amqp_enabled", events != nil,
		"summary_cache_size", size)

	return &BackendResult{
		Store:      store,
		Services:   svc,
		Aggregator: agg,
		Summaries:  summaries,
		Events:     events,
		Cleanup:    svc.Close,
	}, nil
}

func (f *DefaultFactory) openStore(config Config) (ports.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
