package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/session"
)

// sessionPrefix namespaces persisted sessions in either backend.
const sessionPrefix = "session:"

// SessionManagerHandle wraps the session manager and closes the Redis
// client when one backs it.
type SessionManagerHandle struct {
	*session.Manager
	redis *session.RedisKV
}

// Shutdown implements do.Shutdownable.
func (h *SessionManagerHandle) Shutdown() error {
	if h.redis == nil {
		return nil
	}
	return h.redis.Close()
}

// ProvideSessionManager provides the session manager. Sessions live in Redis
// when REDIS_ADDR is set, otherwise in the embedded database.
func ProvideSessionManager(i do.Injector) (*SessionManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if cfg.Redis.Addr == "" {
		log.Info("Sessions stored in database")
		kv := storeHandle.KV(sessionPrefix)
		return &SessionManagerHandle{Manager: session.NewManager(kv, cfg.Auth.SessionTTL, log.Logger)}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := session.NewRedisKV(client, "inkwell:"+sessionPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := kv.Ping(ctx); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("redis session backend: %w", err)
	}

	log.Info("Sessions stored in redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	return &SessionManagerHandle{
		Manager: session.NewManager(kv, cfg.Auth.SessionTTL, log.Logger),
		redis:   kv,
	}, nil
}
