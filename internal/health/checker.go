package health

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Probes implements Checker over the live connection pools.
type Probes struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// PingDB probes the Postgres pool within the timeout.
func (p Probes) PingDB(ctx context.Context, timeout time.Duration) error {
	if p.DB == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.DB.Ping(ctx)
}

// PingRedis probes Redis within the timeout.
func (p Probes) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}
