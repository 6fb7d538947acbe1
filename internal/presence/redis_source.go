package presence

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ventaflow/dispatch-backend/pkg/config"
	"github.com/ventaflow/dispatch-backend/pkg/enums"
	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
	"github.com/ventaflow/dispatch-backend/pkg/redis"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	ScanKeys(ctx context.Context, pattern string, count int64) ([]string, error)
	PresenceKey(agentID string) string
	PresencePattern() string
}

// RedisSource reads agent liveness from TTL heartbeat keys. A key that exists
// means online; an expired or absent key means offline. The heartbeat writer
// is the presence collaborator, not this service.
type RedisSource struct {
	store     redisStore
	scanCount int64
}

// NewRedisSource builds a presence source over the shared redis client.
func NewRedisSource(client *redis.Client, cfg config.PresenceConfig) (*RedisSource, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisSource{store: client, scanCount: cfg.ScanCount}, nil
}

// Snapshot lists every agent with a live heartbeat key.
func (s *RedisSource) Snapshot(ctx context.Context) ([]string, error) {
	keys, err := s.store.ScanKeys(ctx, s.store.PresencePattern(), s.scanCount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan presence keys")
	}
	prefix := strings.TrimSuffix(s.store.PresencePattern(), "*")
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, prefix)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// StateOf resolves the canonical three-state liveness value for one agent.
func (s *RedisSource) StateOf(ctx context.Context, agentID string) (enums.PresenceState, error) {
	if strings.TrimSpace(agentID) == "" {
		return enums.PresenceUnknown, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	_, err := s.store.Get(ctx, s.store.PresenceKey(agentID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return enums.PresenceOffline, nil
		}
		return enums.PresenceUnknown, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read presence key")
	}
	return enums.PresenceOnline, nil
}
