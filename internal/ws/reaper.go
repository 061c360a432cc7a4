package ws

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// ReapIdle evicts rooms that have had no live connection for the idle TTL.
// The durable sessions stay active.
func (s *Service) ReapIdle() int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}

	evicted := s.registry.EvictIdle(s.opts.IdleTTL)
	for _, room := range evicted {
		log.Info().Str("module", "ws").Str("code", room.Code()).
			Str("last_activity", humanize.Time(room.LastActivity())).Msg("idle room evicted")
	}
	return len(evicted)
}

// RunReaper calls ReapIdle every reap interval until ctx is done.
// With idle eviction disabled it only waits for ctx.
func (s *Service) RunReaper(ctx context.Context) error {
	if s.opts.IdleTTL <= 0 {
		log.Info().Str("module", "ws").Msg("idle room eviction disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.opts.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.ReapIdle()
		}
	}
}
