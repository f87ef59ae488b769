package worker

// sunat_worker.go
// Submits emitted comprobantes to the e-invoicing service, generates the PDF
// from the sale's immutable snapshot, and optionally mails it. The sale is
// already committed: failures here never touch totals, numbering or the cash
// ledger, only the SUNAT write-back columns.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jos3lo89/ice-mankora-backend/internal/infra"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SunatJobPayload is the envelope sent to QueueSunat.
type SunatJobPayload struct {
	VentaID      string  `json:"venta_id"`
	ClienteEmail *string `json:"cliente_email,omitempty"`
}

type SunatWorker struct {
	sunatClient    *infra.SunatClient
	ventaRepo      repository.VentaRepository
	dispatcher     *Dispatcher
	rdb            *redis.Client
	pdfStoragePath string
}

func NewSunatWorker(
	sunatClient *infra.SunatClient,
	ventaRepo repository.VentaRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	pdfStoragePath string,
) *SunatWorker {
	return &SunatWorker{
		sunatClient:    sunatClient,
		ventaRepo:      ventaRepo,
		dispatcher:     dispatcher,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single submission job:
//  1. Fetch the Venta and decode its snapshot
//  2. TICKET: internal document, skip SUNAT entirely
//  3. Call the e-invoicing service with exponential backoff (max 3 attempts)
//  4. Write back SunatEstado / XMLFileName / SunatError
//  5. Generate the PDF from the snapshot
//  6. Optionally enqueue an email job
func (w *SunatWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload SunatJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("sunat_worker: invalid payload")
		return
	}

	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		log.Error().Str("venta_id", payload.VentaID).Msg("sunat_worker: invalid venta_id")
		return
	}

	venta, err := w.ventaRepo.FindByID(ctx, ventaID)
	if err != nil {
		log.Error().Err(err).Str("venta_id", payload.VentaID).Msg("sunat_worker: venta not found")
		return
	}

	var items []model.VentaItemSnapshot
	if err := json.Unmarshal(venta.ItemsSnapshot, &items); err != nil {
		log.Error().Err(err).Str("venta_id", payload.VentaID).Msg("sunat_worker: corrupt items snapshot")
		return
	}

	if venta.Tipo != model.ComprobanteTicket {
		w.submit(ctx, venta, items, payload)
	}

	// PDF renders from the snapshot regardless of the SUNAT outcome.
	pdfPath, pdfErr := infra.GenerarComprobantePDF(venta, w.pdfStoragePath)
	if pdfErr != nil {
		log.Warn().Err(pdfErr).Str("venta_id", payload.VentaID).Msg("sunat_worker: PDF generation failed")
	} else {
		if err := w.ventaRepo.UpdatePDFPath(ctx, ventaID, pdfPath); err != nil {
			log.Warn().Err(err).Str("venta_id", payload.VentaID).Msg("sunat_worker: failed to store PDF path")
		}
	}

	if payload.ClienteEmail != nil && *payload.ClienteEmail != "" && pdfPath != "" {
		emailJob := EmailJobPayload{
			ToEmail: *payload.ClienteEmail,
			Subject: fmt.Sprintf("Comprobante %s — %s", venta.NumeroComprobante, venta.EmpresaRazonSocial),
			Body:    fmt.Sprintf("Adjunto encontrará su comprobante de pago.\nTotal: S/ %s", venta.PrecioVentaTotal.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.ClienteEmail).Msg("sunat_worker: failed to enqueue email")
		}
	}
}

func (w *SunatWorker) submit(ctx context.Context, venta *model.Venta, items []model.VentaItemSnapshot, payload SunatJobPayload) {
	sunatItems := make([]infra.SunatItem, 0, len(items))
	for _, it := range items {
		sunatItems = append(sunatItems, infra.SunatItem{
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			ValorUnitario:  it.ValorUnitario.InexactFloat64(),
			PrecioUnitario: it.PrecioUnitario.InexactFloat64(),
			TotalItem:      it.TotalItem.InexactFloat64(),
		})
	}
	req := infra.SunatPayload{
		TipoComprobante: string(venta.Tipo),
		Serie:           venta.Serie,
		Correlativo:     venta.Correlativo,
		FechaEmision:    venta.FechaEmision.Format("2006-01-02"),
		EmisorRUC:       venta.EmpresaRUC,
		ClienteTipoDoc:  venta.ClienteTipoDoc,
		ClienteNumDoc:   venta.ClienteNumDoc,
		ClienteNombre:   venta.ClienteRazonSocial,
		MontoGravado:    venta.MontoGravado.InexactFloat64(),
		IGV:             venta.IGV.InexactFloat64(),
		Total:           venta.PrecioVentaTotal.InexactFloat64(),
		Items:           sunatItems,
		VentaID:         venta.ID.String(),
	}

	var resp *infra.SunatResponse
	submitErr := withRetry(ctx, 3, func(attempt int) error {
		r, err := w.sunatClient.Enviar(ctx, req)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("venta_id", venta.ID.String()).
				Msg("sunat_worker: attempt failed, retrying")
			return err
		}
		resp = r
		return nil
	})

	if submitErr != nil {
		errMsg := submitErr.Error()
		_ = w.ventaRepo.UpdateSunat(ctx, venta.ID, model.SunatPendiente, "", &errMsg)
		raw, _ := json.Marshal(payload)
		SendToDLQ(ctx, w.rdb, QueueSunat, "sunat", raw,
			fmt.Sprintf("sunat unreachable after 3 attempts: %s", errMsg), 3)
		return
	}

	if resp.Aceptado {
		_ = w.ventaRepo.UpdateSunat(ctx, venta.ID, model.SunatAceptado, resp.XMLFileName, nil)
		log.Info().
			Str("venta_id", venta.ID.String()).
			Str("comprobante", venta.NumeroComprobante).
			Msg("sunat_worker: comprobante accepted")
		return
	}

	msg := resp.Mensaje
	_ = w.ventaRepo.UpdateSunat(ctx, venta.ID, model.SunatRechazado, resp.XMLFileName, &msg)
	log.Warn().
		Str("venta_id", venta.ID.String()).
		Str("mensaje", msg).
		Msg("sunat_worker: comprobante rejected")
}
