package worker

// retry_cron.go
// Background goroutine that periodically re-attempts print jobs stuck in
// estado='ERROR' with a next_retry_at in the past. Uses the Circuit Breaker
// to avoid hammering a downed printer bridge.

import (
	"context"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/infra"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds the dependencies of the retry goroutine.
type RetryCronConfig struct {
	ComandaRepo repository.ComandaRepository
	Impresion   *ImpresionWorker
	CB          *infra.CircuitBreaker
}

// StartRetryCron launches a goroutine that ticks every 30s, queries failed
// print logs whose backoff elapsed, and re-delivers them through the CB.
// Respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — the bridge is known to be down
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	pending, err := cfg.ComandaRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}

	if len(pending) == 0 {
		return
	}

	log.Info().Int("count", len(pending)).Msg("retry_cron: re-delivering failed print jobs")

	for i := range pending {
		// CB may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}
		cfg.Impresion.Deliver(ctx, &pending[i])
	}
}
