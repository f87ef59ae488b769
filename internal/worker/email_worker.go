package worker

import (
	"context"
	"encoding/json"

	"github.com/jos3lo89/ice-mankora-backend/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// EmailWorker mails comprobante PDFs to customers.
type EmailWorker struct {
	mailer *infra.Mailer
	rdb    *redis.Client
}

func NewEmailWorker(mailer *infra.Mailer, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, rdb: rdb}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}

	sendErr := withRetry(ctx, 3, func(attempt int) error {
		err := w.mailer.SendComprobante(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("email", payload.ToEmail).
				Msg("email_worker: send failed, retrying")
		}
		return err
	})
	if sendErr != nil {
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw, sendErr.Error(), 3)
		return
	}

	log.Info().Str("email", payload.ToEmail).Msg("email_worker: comprobante sent")
}
