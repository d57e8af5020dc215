package currency

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/DevSheroz/glori82-admin/internal/obs"
)

const (
	snapshotKey = "fx:snapshot"
	// staleKey holds the last good snapshot without expiry so a failed
	// refresh degrades to stale rates instead of zero rates.
	staleKey = "fx:snapshot:last"
)

// Service provides cached exchange-rate snapshots backed by Redis.
type Service struct {
	Provider Provider
	R        *redis.Client
	TTL      time.Duration
	Logger   zerolog.Logger
}

// Rates returns the cached snapshot, fetching from upstream on a cache miss.
// When the upstream fails it serves the last good snapshot if one exists and
// otherwise a zero snapshot; callers treat zero rates as "unknown".
func (s *Service) Rates(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.fromCache(ctx, snapshotKey); ok {
		return snap, nil
	}
	snap, err := s.fetchAndStore(ctx)
	if err == nil {
		return snap, nil
	}
	s.Logger.Warn().Err(err).Msg("fx fetch failed, falling back to stale snapshot")
	if stale, ok := s.fromCache(ctx, staleKey); ok {
		return stale, nil
	}
	return Snapshot{}, nil
}

// Refresh forces a fetch and cache update. Used by the scheduled worker.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.fetchAndStore(ctx)
	return err
}

func (s *Service) fetchAndStore(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	snap, err := s.Provider.Fetch(ctx)
	if obs.FXFetchLatency != nil {
		obs.FXFetchLatency.Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		if obs.FXFetchTotal != nil {
			obs.FXFetchTotal.WithLabelValues("error").Inc()
		}
		return Snapshot{}, err
	}
	if obs.FXFetchTotal != nil {
		obs.FXFetchTotal.WithLabelValues("ok").Inc()
	}
	s.store(ctx, snap)
	return snap, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Snapshot, bool) {
	if s.R == nil {
		return Snapshot{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

func (s *Service) store(ctx context.Context, snap Snapshot) {
	if s.R == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := s.R.Set(ctx, snapshotKey, data, ttl).Err(); err != nil {
		s.Logger.Warn().Err(err).Msg("cache fx snapshot")
	}
	_ = s.R.Set(ctx, staleKey, data, 0).Err()
}
