// Package backend opens the task store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"gtodo/internal/backend/firestore"
	"gtodo/internal/backend/memory"
	"gtodo/internal/backend/postgres"
	"gtodo/internal/backend/redisstore"
	"gtodo/internal/config"
	"gtodo/internal/metrics"
	"gtodo/internal/service"
)

// Open connects the configured store and wraps it with metrics.
//
// A store that cannot be reached or is missing its configuration does not
// fail Open: the returned service answers every call with
// service.ErrNotInitialized so views can show the problem. Only an unknown
// backend name is an error. The returned func releases the connection.
func Open(ctx context.Context, cfg *config.Config) (service.Service, func(), error) {
	log := cfg.Logger().With("backend", cfg.Backend)
	noop := func() {}

	var (
		svc     service.Service
		closeFn = noop
		reason  string
	)

	switch cfg.Backend {
	case config.BackendMemory:
		svc = memory.New()

	case config.BackendFirestore, "":
		c, err := firestore.New(ctx, cfg)
		if err != nil {
			reason = err.Error()
			break
		}
		svc = c

	case config.BackendPostgres:
		if cfg.Postgres.URL == "" {
			reason = "DATABASE_URL not set"
			break
		}
		s, err := postgres.Open(ctx, cfg.Postgres.URL, cfg.CollectionName())
		if err != nil {
			reason = err.Error()
			break
		}
		svc, closeFn = s, s.Close

	case config.BackendRedis:
		if cfg.Redis.Addr == "" {
			reason = "REDIS_ADDR not set"
			break
		}
		s, err := redisstore.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.CollectionName())
		if err != nil {
			reason = err.Error()
			break
		}
		svc, closeFn = s, func() { s.Close() }

	default:
		return nil, noop, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}

	if svc == nil {
		log.Warn("task store not initialized", "reason", reason)
		svc = service.Unconfigured{Reason: reason}
	} else {
		log.Debug("task store opened", "collection", cfg.CollectionName())
	}
	return metrics.Instrument(svc), closeFn, nil
}
