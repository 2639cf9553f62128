package blob

import (
	"context"

	infraredis "github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/infra/blob/redis"
)

// RedisConfig re-exports the Redis connection settings.
type RedisConfig = infraredis.Config

// NewRedis dials Redis and returns a blob.Store on it.
func NewRedis(ctx context.Context, cfg RedisConfig) (Store, error) {
	return infraredis.Open(ctx, cfg)
}
