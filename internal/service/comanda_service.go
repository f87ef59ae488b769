package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"
	"github.com/jos3lo89/ice-mankora-backend/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ComandaService routes order lines to production-area printers and owns the
// durable print outbox. All routing is fire-and-forget: a printer problem
// never fails the order that triggered it.
type ComandaService interface {
	// RutearPedido partitions items by print area and emits one numbered
	// comanda per area. Errors are logged, never returned.
	RutearPedido(ctx context.Context, pedido *model.Pedido, items []model.PedidoItem)
	// EnviarPrecuenta emits the pre-bill to the cashier printer.
	EnviarPrecuenta(ctx context.Context, ticket dto.TicketVenta)
	// Reintentar re-enqueues a failed or stuck print job by id.
	Reintentar(ctx context.Context, printLogID uuid.UUID) (*dto.ReintentarImpresionResponse, error)
}

type comandaService struct {
	repo       repository.ComandaRepository
	dispatcher JobDispatcher
}

func NewComandaService(repo repository.ComandaRepository, dispatcher JobDispatcher) ComandaService {
	return &comandaService{repo: repo, dispatcher: dispatcher}
}

func (s *comandaService) RutearPedido(ctx context.Context, pedido *model.Pedido, items []model.PedidoItem) {
	porArea := map[string][]dto.ComandaItem{}

	for _, item := range items {
		if item.Producto == nil || item.Producto.Categoria == nil {
			log.Warn().
				Str("pedido_id", pedido.ID.String()).
				Str("item_id", item.ID.String()).
				Msg("comanda: item without category link, skipping")
			continue
		}
		ci := dto.ComandaItem{
			Producto: item.Producto.Nombre,
			Cantidad: item.Cantidad,
		}
		if item.Notas != nil {
			ci.Notas = *item.Notas
		}
		if item.VariantesDetalle != nil {
			ci.Variantes = *item.VariantesDetalle
		}
		// A category linked to floors in several areas prints in every one
		seen := map[string]bool{}
		for _, piso := range item.Producto.Categoria.Pisos {
			if seen[piso.Area] {
				continue
			}
			seen[piso.Area] = true
			porArea[piso.Area] = append(porArea[piso.Area], ci)
		}
	}

	for area, areaItems := range porArea {
		if err := s.emitirComanda(ctx, pedido, area, areaItems); err != nil {
			log.Error().
				Err(err).
				Str("pedido_id", pedido.ID.String()).
				Str("area", area).
				Msg("comanda: failed to emit")
		}
	}
}

func (s *comandaService) emitirComanda(ctx context.Context, pedido *model.Pedido, area string, items []dto.ComandaItem) error {
	fecha := hoy()
	mesa, piso, mozo := contextoPedido(pedido)

	var printLog *model.PrintLog
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		numero, err := s.repo.SiguienteNumeroTx(tx, area, fecha)
		if err != nil {
			return err
		}
		ticket := dto.ComandaTicket{
			Area:         area,
			Numero:       numero,
			NumeroPedido: pedido.NumeroDiario,
			Mesa:         mesa,
			Piso:         piso,
			Mozo:         mozo,
			Items:        items,
			Fecha:        time.Now().Format("02/01/2006 15:04"),
		}
		payload, err := json.Marshal(ticket)
		if err != nil {
			return err
		}
		a := area
		printLog = &model.PrintLog{
			Tipo:    model.PrintComanda,
			Area:    &a,
			Payload: payload,
			Estado:  model.PrintPendiente,
		}
		return s.repo.CreatePrintLogTx(tx, printLog)
	})
	if err != nil {
		return err
	}

	return s.dispatcher.EnqueueImpresion(ctx, worker.ImpresionJobPayload{PrintLogID: printLog.ID.String()})
}

func (s *comandaService) EnviarPrecuenta(ctx context.Context, ticket dto.TicketVenta) {
	payload, err := json.Marshal(ticket)
	if err != nil {
		log.Error().Err(err).Msg("comanda: marshal precuenta")
		return
	}
	printLog := &model.PrintLog{
		Tipo:    model.PrintPrecuenta,
		Payload: payload,
		Estado:  model.PrintPendiente,
	}
	if err := s.repo.CreatePrintLog(ctx, printLog); err != nil {
		log.Error().Err(err).Msg("comanda: persist precuenta print log")
		return
	}
	if err := s.dispatcher.EnqueueImpresion(ctx, worker.ImpresionJobPayload{PrintLogID: printLog.ID.String()}); err != nil {
		log.Error().Err(err).Str("print_log_id", printLog.ID.String()).Msg("comanda: enqueue precuenta")
	}
}

func (s *comandaService) Reintentar(ctx context.Context, printLogID uuid.UUID) (*dto.ReintentarImpresionResponse, error) {
	printLog, err := s.repo.FindPrintLogByID(ctx, printLogID)
	if err != nil {
		return nil, apierror.NotFound("impresión %s no encontrada", printLogID)
	}
	if printLog.Estado == model.PrintEnviado {
		return nil, apierror.Conflict("la impresión ya fue enviada")
	}
	if err := s.dispatcher.EnqueueImpresion(ctx, worker.ImpresionJobPayload{PrintLogID: printLog.ID.String()}); err != nil {
		return nil, err
	}
	return &dto.ReintentarImpresionResponse{
		ID:       printLog.ID.String(),
		Estado:   printLog.Estado,
		Intentos: printLog.Intentos,
	}, nil
}

// contextoPedido extracts display names for tickets, tolerating missing
// preloads in degraded reads.
func contextoPedido(pedido *model.Pedido) (mesa, piso, mozo string) {
	if pedido.Mesa != nil {
		mesa = pedido.Mesa.Nombre
		if mesa == "" {
			mesa = fmt.Sprintf("Mesa %d", pedido.Mesa.Numero)
		}
		if pedido.Mesa.Piso != nil {
			piso = pedido.Mesa.Piso.Nombre
		}
	}
	if pedido.Usuario != nil {
		mozo = pedido.Usuario.Nombre
	}
	return strings.TrimSpace(mesa), piso, mozo
}
