package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
	"github.com/jos3lo89/ice-mankora-backend/internal/config"
	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"
	"github.com/jos3lo89/ice-mankora-backend/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FacturacionService interface {
	// CrearVenta bills a subset (or the remainder) of an order's items in one
	// ACID transaction and returns the emitted comprobante.
	CrearVenta(ctx context.Context, actor Actor, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	// ProyeccionImpresion rebuilds the receipt payload from the stored
	// snapshot. Read-only; never recomputes prices.
	ProyeccionImpresion(ctx context.Context, ventaID uuid.UUID) (*dto.TicketVenta, error)
	ObtenerVenta(ctx context.Context, ventaID uuid.UUID) (*model.Venta, error)
}

type facturacionService struct {
	repo        repository.VentaRepository
	pedidoRepo  repository.PedidoRepository
	clienteRepo repository.ClienteRepository
	cajaRepo    repository.CajaRepository
	mesaRepo    repository.MesaRepository
	comandaRepo repository.ComandaRepository
	dispatcher  JobDispatcher
	cfg         *config.Config
}

func NewFacturacionService(
	repo repository.VentaRepository,
	pedidoRepo repository.PedidoRepository,
	clienteRepo repository.ClienteRepository,
	cajaRepo repository.CajaRepository,
	mesaRepo repository.MesaRepository,
	comandaRepo repository.ComandaRepository,
	dispatcher JobDispatcher,
	cfg *config.Config,
) FacturacionService {
	return &facturacionService{
		repo:        repo,
		pedidoRepo:  pedidoRepo,
		clienteRepo: clienteRepo,
		cajaRepo:    cajaRepo,
		mesaRepo:    mesaRepo,
		comandaRepo: comandaRepo,
		dispatcher:  dispatcher,
		cfg:         cfg,
	}
}

// ── CrearVenta ────────────────────────────────────────────────────────────────
// Validation order mirrors the cashier flow:
//  1. Comprobante type and buyer identity rules
//  2. Order exists, not cancelled; resolve the item set (a full payment
//     additionally requires no prior sale on the order)
//  3. Cash sufficiency (tendered ≥ total)
//  4. An open caja for today
//  5. One tx: advisory-lock serie, correlativo = max+1, buyer upsert,
//     Venta with immutable snapshot, link items (aborting if a concurrent
//     sale already took any of them), INGRESO movement, and if nothing
//     unpaid remains per an in-tx re-read → pedido ENTREGADO + mesa LIBRE.
//     The receipt PrintLog is created in the same tx (outbox).
//  6. After commit: enqueue print + SUNAT jobs

func (s *facturacionService) CrearVenta(ctx context.Context, actor Actor, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
	tipo := model.TipoComprobante(req.Tipo)
	if !tipo.Valido() {
		return nil, apierror.Validation("tipo de comprobante inválido: %s", req.Tipo)
	}

	var docNumero, nombreCliente string
	if req.Cliente != nil {
		docNumero = req.Cliente.DocNumero
		nombreCliente = req.Cliente.Nombre
	}
	if err := tipo.ValidarCliente(docNumero, nombreCliente); err != nil {
		return nil, err
	}

	pedidoID, err := uuid.Parse(req.PedidoID)
	if err != nil {
		return nil, apierror.Validation("pedido_id inválido")
	}
	pedido, err := s.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, apierror.NotFound("pedido %s no encontrado", req.PedidoID)
	}
	if pedido.Estado == model.PedidoCancelado {
		return nil, apierror.Conflict("el pedido está cancelado")
	}

	aCobrar, err := resolverItemsACobrar(pedido, req.ItemIDs)
	if err != nil {
		return nil, err
	}
	if len(req.ItemIDs) == 0 {
		// Full payment only applies to orders never billed; anything else
		// must name its items explicitly (split path)
		existe, err := s.repo.ExisteVentaPedido(ctx, pedido.ID)
		if err != nil {
			return nil, err
		}
		if existe {
			return nil, apierror.Conflict("el pedido ya tiene ventas emitidas; indique los items a cobrar")
		}
	}

	// Tax-inclusive math: base per line at full precision, rounding only the
	// emitted totals
	total := decimal.Zero
	base := decimal.Zero
	uno := decimal.NewFromInt(1)
	snapshot := make([]model.VentaItemSnapshot, 0, len(aCobrar))
	for _, item := range aCobrar {
		lineTotal := item.Precio.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		tasa := decimal.NewFromFloat(0.18)
		if item.Producto != nil && !item.Producto.TasaImpuesto.IsZero() {
			tasa = item.Producto.TasaImpuesto
		}
		valorUnitario := item.Precio.Div(uno.Add(tasa))
		base = base.Add(lineTotal.Div(uno.Add(tasa)))
		total = total.Add(lineTotal)

		snapshot = append(snapshot, model.VentaItemSnapshot{
			ProductoID:     item.ProductoID.String(),
			Descripcion:    descripcionItem(item),
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.Precio,
			ValorUnitario:  valorUnitario.Round(2),
			TotalItem:      lineTotal,
			ActivoAlCobro:  item.Activo,
		})
	}
	montoGravado := base.Round(2)
	igv := total.Sub(montoGravado)

	var montoPagado, vuelto *decimal.Decimal
	if req.MetodoPago == "EFECTIVO" {
		if req.MontoPagado.LessThan(total) {
			return nil, apierror.Validation(
				"monto pagado insuficiente: S/ %s recibido, S/ %s requerido",
				req.MontoPagado.StringFixed(2), total.StringFixed(2))
		}
		pagado := req.MontoPagado
		cambio := pagado.Sub(total)
		montoPagado, vuelto = &pagado, &cambio
	}

	caja, err := s.cajaRepo.FindAbiertaHoy(ctx, hoy())
	if err != nil || caja == nil {
		return nil, apierror.Conflict("debe aperturar caja antes de emitir comprobantes")
	}

	serie := tipo.Serie()
	mesa, _, mozo := contextoPedido(pedido)
	itemIDs := make([]uuid.UUID, 0, len(aCobrar))
	for _, item := range aCobrar {
		itemIDs = append(itemIDs, item.ID)
	}

	var cierraPedido bool
	var venta model.Venta
	var printLog model.PrintLog
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		correlativo, err := s.repo.NextCorrelativoTx(tx, serie)
		if err != nil {
			return err
		}

		clienteID, clienteSnap, err := s.resolverCliente(tx, tipo, req.Cliente)
		if err != nil {
			return err
		}

		itemsJSON, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		metaJSON, _ := json.Marshal(model.VentaMetadata{
			Mesa:   mesa,
			Orden:  pedido.NumeroDiario,
			Cajero: actor.Nombre,
			Mozo:   mozo,
		})

		venta = model.Venta{
			PedidoID:           pedido.ID,
			UsuarioID:          actor.ID,
			ClienteID:          clienteID,
			Tipo:               tipo,
			Serie:              serie,
			Correlativo:        int64(correlativo),
			NumeroComprobante:  model.NumeroComprobante(serie, int64(correlativo)),
			FechaEmision:       ahora(),
			TipoMoneda:         "PEN",
			EmpresaRUC:         s.cfg.EmpresaRUC,
			EmpresaRazonSocial: s.cfg.EmpresaRazonSocial,
			EmpresaDireccion:   s.cfg.EmpresaDireccion,
			ClienteTipoDoc:     clienteSnap.tipoDoc,
			ClienteNumDoc:      clienteSnap.numDoc,
			ClienteRazonSocial: clienteSnap.razonSocial,
			ClienteDireccion:   clienteSnap.direccion,
			MontoGravado:       montoGravado,
			IGV:                igv,
			PrecioVentaTotal:   total,
			MetodoPago:         req.MetodoPago,
			MontoPagado:        montoPagado,
			Vuelto:             vuelto,
			ItemsSnapshot:      itemsJSON,
			Metadata:           metaJSON,
			SunatEstado:        model.SunatPendiente,
		}
		if err := s.repo.CreateTx(tx, &venta); err != nil {
			return err
		}

		// The pre-tx read can be stale: a concurrent sale may have linked
		// some of these items already. The venta_id IS NULL guard makes the
		// UPDATE skip them, so a short row count means this sale must abort
		// before any money is posted.
		linked, err := s.pedidoRepo.SetVentaIDTx(tx, itemIDs, venta.ID)
		if err != nil {
			return err
		}
		if linked != int64(len(itemIDs)) {
			return apierror.Conflict("items del pedido ya cobrados por otra venta")
		}

		detalle, _ := json.Marshal(model.DetalleVenta{
			VentaID:           venta.ID.String(),
			PedidoID:          pedido.ID.String(),
			NumeroComprobante: venta.NumeroComprobante,
			TipoComprobante:   string(tipo),
			Mesa:              mesa,
			MetodoPago:        req.MetodoPago,
			Cajero:            actor.Nombre,
			Mozo:              mozo,
		})
		mov := model.MovimientoCaja{
			CajaID:       caja.ID,
			Tipo:         model.MovIngreso,
			Categoria:    model.CatVenta,
			Monto:        total,
			Descripcion:  fmt.Sprintf("Venta %s", venta.NumeroComprobante),
			EsAutomatico: true,
			Detalle:      detalle,
		}
		if err := s.cajaRepo.CreateMovimientoTx(tx, &mov); err != nil {
			return err
		}

		// Close decision from an in-tx re-count, never the pre-tx snapshot
		restantes, err := s.pedidoRepo.CountItemsSinPagarTx(tx, pedido.ID)
		if err != nil {
			return err
		}
		cierraPedido = restantes == 0
		if cierraPedido {
			if err := s.pedidoRepo.UpdateEstadoTx(tx, pedido.ID, model.PedidoEntregado); err != nil {
				return err
			}
			if err := s.mesaRepo.UpdateEstadoTx(tx, pedido.MesaID, model.MesaLibre); err != nil {
				return err
			}
		}

		// Receipt outbox row commits atomically with the sale
		ticketJSON, err := json.Marshal(ticketDesdeVenta(&venta, snapshot, mesa, actor.Nombre))
		if err != nil {
			return err
		}
		printLog = model.PrintLog{
			Tipo:    model.PrintTicket,
			Payload: ticketJSON,
			Estado:  model.PrintPendiente,
		}
		return s.comandaRepo.CreatePrintLogTx(tx, &printLog)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Async side effects strictly after commit — best-effort
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueImpresion(ctx, worker.ImpresionJobPayload{PrintLogID: printLog.ID.String()})
		sunatJob := worker.SunatJobPayload{VentaID: venta.ID.String()}
		if req.Cliente != nil && req.Cliente.Email != "" {
			email := req.Cliente.Email
			sunatJob.ClienteEmail = &email
		}
		_ = s.dispatcher.EnqueueSunat(ctx, sunatJob)
	}

	resp := ventaToResponse(&venta, snapshot)
	resp.PedidoCerrado = cierraPedido
	return resp, nil
}

func (s *facturacionService) ProyeccionImpresion(ctx context.Context, ventaID uuid.UUID) (*dto.TicketVenta, error) {
	venta, err := s.repo.FindByID(ctx, ventaID)
	if err != nil {
		return nil, apierror.NotFound("venta %s no encontrada", ventaID)
	}
	var snapshot []model.VentaItemSnapshot
	if err := json.Unmarshal(venta.ItemsSnapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("snapshot corrupto: %w", err)
	}
	var meta model.VentaMetadata
	if len(venta.Metadata) > 0 {
		_ = json.Unmarshal(venta.Metadata, &meta)
	}
	ticket := ticketDesdeVenta(venta, snapshot, meta.Mesa, meta.Cajero)
	return &ticket, nil
}

func (s *facturacionService) ObtenerVenta(ctx context.Context, ventaID uuid.UUID) (*model.Venta, error) {
	venta, err := s.repo.FindByID(ctx, ventaID)
	if err != nil {
		return nil, apierror.NotFound("venta %s no encontrada", ventaID)
	}
	return venta, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// resolverItemsACobrar picks the order lines this sale covers. Empty itemIDs
// means everything still unpaid and active; an explicit subset may include
// deactivated lines but never an already-paid one.
func resolverItemsACobrar(pedido *model.Pedido, itemIDs []string) ([]model.PedidoItem, error) {
	if len(itemIDs) == 0 {
		var out []model.PedidoItem
		for _, item := range pedido.Items {
			if item.Activo && item.VentaID == nil {
				out = append(out, item)
			}
		}
		if len(out) == 0 {
			return nil, apierror.Conflict("el pedido no tiene items pendientes de pago")
		}
		return out, nil
	}

	porID := map[uuid.UUID]model.PedidoItem{}
	for _, item := range pedido.Items {
		porID[item.ID] = item
	}
	var out []model.PedidoItem
	for _, raw := range itemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apierror.Validation("item_id inválido")
		}
		item, ok := porID[id]
		if !ok {
			return nil, apierror.Validation("el item %s no pertenece al pedido", raw)
		}
		if item.VentaID != nil {
			return nil, apierror.Conflict("el item %s ya fue pagado", raw)
		}
		out = append(out, item)
	}
	return out, nil
}

type clienteSnapshot struct {
	tipoDoc     string
	numDoc      string
	razonSocial string
	direccion   string
}

// resolverCliente upserts the buyer for BOLETA/FACTURA with identity, and
// returns the snapshot fields stored on the document. TICKET never persists
// buyers.
func (s *facturacionService) resolverCliente(tx *gorm.DB, tipo model.TipoComprobante, req *dto.ClienteRequest) (*uuid.UUID, clienteSnapshot, error) {
	snap := clienteSnapshot{tipoDoc: "-", numDoc: "-", razonSocial: "CLIENTE VARIOS", direccion: "-"}

	if !tipo.RequiereCliente() || req == nil || req.DocNumero == "" {
		return nil, snap, nil
	}

	docTipo := req.DocTipo
	if docTipo == "" {
		if tipo == model.ComprobanteFactura {
			docTipo = "6" // RUC
		} else {
			docTipo = "1" // DNI
		}
	}
	cliente := &model.Cliente{
		DocTipo:   docTipo,
		DocNumero: req.DocNumero,
		Nombre:    req.Nombre,
		Direccion: req.Direccion,
		Email:     req.Email,
	}
	persisted, err := s.clienteRepo.UpsertTx(tx, cliente)
	if err != nil {
		return nil, snap, err
	}

	snap.tipoDoc = persisted.DocTipo
	snap.numDoc = persisted.DocNumero
	snap.razonSocial = persisted.Nombre
	if persisted.Direccion != "" {
		snap.direccion = persisted.Direccion
	}
	id := persisted.ID
	return &id, snap, nil
}

func descripcionItem(item model.PedidoItem) string {
	nombre := nombreProducto(item)
	if item.VariantesDetalle != nil {
		return nombre + " (" + *item.VariantesDetalle + ")"
	}
	return nombre
}

func ticketDesdeVenta(venta *model.Venta, snapshot []model.VentaItemSnapshot, mesa, cajero string) dto.TicketVenta {
	items := make([]dto.ComandaItem, 0, len(snapshot))
	for _, it := range snapshot {
		items = append(items, dto.ComandaItem{Producto: it.Descripcion, Cantidad: it.Cantidad})
	}
	ticket := dto.TicketVenta{
		NumeroComprobante: venta.NumeroComprobante,
		Tipo:              string(venta.Tipo),
		Mesa:              mesa,
		Cajero:            cajero,
		Items:             items,
		MontoGravado:      venta.MontoGravado,
		IGV:               venta.IGV,
		Total:             venta.PrecioVentaTotal,
		MetodoPago:        venta.MetodoPago,
		Fecha:             venta.FechaEmision.Format("02/01/2006 15:04"),
	}
	if venta.ClienteNumDoc != "-" {
		ticket.Cliente = venta.ClienteRazonSocial
	}
	if venta.Vuelto != nil {
		ticket.Vuelto = venta.Vuelto.StringFixed(2)
	}
	return ticket
}

func ventaToResponse(venta *model.Venta, snapshot []model.VentaItemSnapshot) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:                venta.ID.String(),
		Tipo:              string(venta.Tipo),
		NumeroComprobante: venta.NumeroComprobante,
		FechaEmision:      venta.FechaEmision.Format("2006-01-02 15:04:05"),
		MontoGravado:      venta.MontoGravado,
		IGV:               venta.IGV,
		Total:             venta.PrecioVentaTotal,
		MetodoPago:        venta.MetodoPago,
		Vuelto:            venta.Vuelto,
		SunatEstado:       venta.SunatEstado,
	}
	if venta.ClienteNumDoc != "-" {
		resp.Cliente = venta.ClienteRazonSocial
	}
	for _, it := range snapshot {
		resp.Items = append(resp.Items, dto.VentaItemResponse{
			Producto:       it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Total:          it.TotalItem,
		})
	}
	return resp
}

// ahora is package-level so tests can pin emission time.
var ahora = func() time.Time { return time.Now() }
