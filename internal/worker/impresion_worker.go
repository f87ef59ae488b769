package worker

// impresion_worker.go
// Delivers persisted print jobs to the printer bridge. The PrintLog row is
// the source of truth: the worker re-sends the stored payload, so a retry
// months of catalog changes later still prints exactly what was ordered.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/infra"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxPrintRetries before a job is parked in the DLQ.
const MaxPrintRetries = 5

// ImpresionJobPayload references a PrintLog created in the triggering
// transaction.
type ImpresionJobPayload struct {
	PrintLogID string `json:"print_log_id"`
}

// ImpresionWorker sends one PrintLog to the bridge through the circuit
// breaker and records the outcome on the row.
type ImpresionWorker struct {
	repo    repository.ComandaRepository
	printer *infra.PrinterClient
	cb      *infra.CircuitBreaker
	rdb     *redis.Client
}

func NewImpresionWorker(repo repository.ComandaRepository, printer *infra.PrinterClient, cb *infra.CircuitBreaker, rdb *redis.Client) *ImpresionWorker {
	return &ImpresionWorker{repo: repo, printer: printer, cb: cb, rdb: rdb}
}

func (w *ImpresionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ImpresionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("impresion_worker: invalid payload")
		return
	}

	id, err := uuid.Parse(payload.PrintLogID)
	if err != nil {
		log.Error().Str("print_log_id", payload.PrintLogID).Msg("impresion_worker: invalid id")
		return
	}

	printLog, err := w.repo.FindPrintLogByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("print_log_id", payload.PrintLogID).Msg("impresion_worker: print log not found")
		return
	}
	if printLog.Estado == model.PrintEnviado {
		return // already delivered by a concurrent retry
	}

	w.Deliver(ctx, printLog)
}

// Deliver attempts delivery once and updates the PrintLog. Shared with the
// retry cron and the manual retry endpoint.
func (w *ImpresionWorker) Deliver(ctx context.Context, printLog *model.PrintLog) {
	job := infra.PrintJob{
		Destino: DestinoImpresion(printLog),
		Tipo:    printLog.Tipo,
		Payload: printLog.Payload,
	}

	printLog.Intentos++

	cbErr := w.cb.Execute(func() error {
		return w.printer.Imprimir(ctx, job)
	})
	if cbErr != nil {
		errMsg := cbErr.Error()
		printLog.Estado = model.PrintError
		printLog.LastError = &errMsg
		if printLog.Intentos >= MaxPrintRetries {
			printLog.NextRetryAt = nil
			payload, _ := json.Marshal(ImpresionJobPayload{PrintLogID: printLog.ID.String()})
			if w.rdb != nil {
				SendToDLQ(ctx, w.rdb, QueueImpresion, "impresion", payload, errMsg, printLog.Intentos)
			}
		} else {
			next := time.Now().Add(computeRetryBackoff(printLog.Intentos))
			printLog.NextRetryAt = &next
		}
		if err := w.repo.UpdatePrintLog(ctx, printLog); err != nil {
			log.Error().Err(err).Str("print_log_id", printLog.ID.String()).Msg("impresion_worker: failed to update print log")
		}
		log.Warn().
			Err(cbErr).
			Str("print_log_id", printLog.ID.String()).
			Str("destino", job.Destino).
			Int("intentos", printLog.Intentos).
			Msg("impresion_worker: delivery failed")
		return
	}

	printLog.Estado = model.PrintEnviado
	printLog.LastError = nil
	printLog.NextRetryAt = nil
	if err := w.repo.UpdatePrintLog(ctx, printLog); err != nil {
		log.Error().Err(err).Str("print_log_id", printLog.ID.String()).Msg("impresion_worker: failed to update print log")
		return
	}
	log.Info().
		Str("print_log_id", printLog.ID.String()).
		Str("destino", job.Destino).
		Str("tipo", printLog.Tipo).
		Msg("impresion_worker: delivered")
}

// DestinoImpresion maps a PrintLog to a physical printer. Kitchen tickets go
// by production area; receipts and pre-bills go to the cashier printer.
func DestinoImpresion(printLog *model.PrintLog) string {
	if printLog.Tipo == model.PrintComanda && printLog.Area != nil {
		if *printLog.Area == model.AreaBarra {
			return "bebidas"
		}
		return "cocina"
	}
	return "caja"
}

// computeRetryBackoff: 1m, 2m, 4m, … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	backoff := time.Duration(1<<uint(retryCount-1)) * time.Minute
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	return backoff
}
