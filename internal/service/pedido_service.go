package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PedidoService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error)
	AgregarItems(ctx context.Context, actor Actor, pedidoID uuid.UUID, req dto.AgregarItemsRequest) (*dto.PedidoResponse, error)
	Cancelar(ctx context.Context, actor Actor, pedidoID uuid.UUID, req dto.CancelarPedidoRequest) error
	PreCuenta(ctx context.Context, pedidoID uuid.UUID) (*dto.PreCuentaResponse, error)
	ActualizarEstado(ctx context.Context, pedidoID uuid.UUID, estado string) error
	ListarPendientes(ctx context.Context, actor Actor) ([]dto.PedidoResponse, error)
	ObtenerPorID(ctx context.Context, pedidoID uuid.UUID) (*dto.PedidoResponse, error)
	MisPedidos(ctx context.Context, actor Actor) ([]dto.PedidoResponse, error)
}

type pedidoService struct {
	repo         repository.PedidoRepository
	mesaRepo     repository.MesaRepository
	productoRepo repository.ProductoRepository
	stockRepo    repository.MovimientoStockRepository
	cajaRepo     repository.CajaRepository
	comanda      ComandaService
	// codigoAnulacion is the cancellation PIN injected from config.
	codigoAnulacion string
}

func NewPedidoService(
	repo repository.PedidoRepository,
	mesaRepo repository.MesaRepository,
	productoRepo repository.ProductoRepository,
	stockRepo repository.MovimientoStockRepository,
	cajaRepo repository.CajaRepository,
	comanda ComandaService,
	codigoAnulacion string,
) PedidoService {
	return &pedidoService{
		repo:            repo,
		mesaRepo:        mesaRepo,
		productoRepo:    productoRepo,
		stockRepo:       stockRepo,
		cajaRepo:        cajaRepo,
		comanda:         comanda,
		codigoAnulacion: codigoAnulacion,
	}
}

// resolvedLine is one validated order line with its frozen price.
type resolvedLine struct {
	producto         *model.Producto
	cantidad         int
	precio           decimal.Decimal
	notas            *string
	variantesDetalle *string
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// Opens a table:
//  1. Mesa must exist and not be occupied; actor needs floor access
//  2. Pre-flight: resolve every line (product active, variants valid, stock
//     sufficient) before touching anything — any bad line aborts the whole
//     request
//  3. One tx: advisory-lock the floor+day counter, NumeroDiario = max+1,
//     create pedido+items, decrement managed stock per line, mesa → OCUPADA
//  4. After commit: fire-and-forget comanda routing

func (s *pedidoService) Crear(ctx context.Context, actor Actor, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error) {
	mesaID, err := uuid.Parse(req.MesaID)
	if err != nil {
		return nil, apierror.Validation("mesa_id inválido")
	}
	mesa, err := s.mesaRepo.FindByID(ctx, mesaID)
	if err != nil {
		return nil, apierror.NotFound("mesa %s no encontrada", req.MesaID)
	}
	if mesa.Estado == model.MesaOcupada {
		return nil, apierror.Conflict("la mesa %s ya está ocupada", mesa.Nombre)
	}
	if !actor.PuedeOperarPiso(mesa.PisoID) {
		return nil, apierror.Forbidden("no tiene acceso al piso de esta mesa")
	}

	resolved, err := s.resolverLineas(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	fecha := hoy()
	var pedido model.Pedido
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		numero, err := s.repo.NextNumeroDiarioTx(tx, mesa.PisoID, fecha)
		if err != nil {
			return err
		}

		pedido = model.Pedido{
			MesaID:       mesa.ID,
			PisoID:       mesa.PisoID,
			UsuarioID:    actor.ID,
			NumeroDiario: numero,
			Fecha:        fecha,
			Estado:       model.PedidoPendiente,
		}
		for _, r := range resolved {
			pedido.Items = append(pedido.Items, model.PedidoItem{
				ProductoID:       r.producto.ID,
				Cantidad:         r.cantidad,
				Precio:           r.precio,
				Notas:            r.notas,
				VariantesDetalle: r.variantesDetalle,
				Activo:           true,
			})
		}
		if err := s.repo.CreateTx(tx, &pedido); err != nil {
			return err
		}

		if err := s.descontarStock(tx, resolved, pedido.ID, pedido.NumeroDiario); err != nil {
			return err
		}

		return s.mesaRepo.UpdateEstadoTx(tx, mesa.ID, model.MesaOcupada)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Attach resolved products so routing sees category/floor links without
	// re-reading
	for i := range pedido.Items {
		pedido.Items[i].Producto = resolved[i].producto
	}
	pedido.Mesa = mesa

	s.comanda.RutearPedido(ctx, &pedido, pedido.Items)

	resp := pedidoToResponse(&pedido)
	resp.Mozo = actor.Nombre
	return resp, nil
}

func (s *pedidoService) AgregarItems(ctx context.Context, actor Actor, pedidoID uuid.UUID, req dto.AgregarItemsRequest) (*dto.PedidoResponse, error) {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, apierror.NotFound("pedido %s no encontrado", pedidoID)
	}
	if pedido.Estado == model.PedidoCancelado {
		return nil, apierror.Conflict("el pedido está cancelado")
	}
	if pedido.Estado == model.PedidoEntregado {
		return nil, apierror.Conflict("el pedido ya fue entregado")
	}
	if !actor.PuedeOperarPiso(pedido.PisoID) {
		return nil, apierror.Forbidden("no tiene acceso al piso de este pedido")
	}

	resolved, err := s.resolverLineas(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	var nuevos []model.PedidoItem
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, r := range resolved {
			item := model.PedidoItem{
				PedidoID:         pedido.ID,
				ProductoID:       r.producto.ID,
				Cantidad:         r.cantidad,
				Precio:           r.precio,
				Notas:            r.notas,
				VariantesDetalle: r.variantesDetalle,
				Activo:           true,
			}
			if err := s.repo.CreateItemTx(tx, &item); err != nil {
				return err
			}
			nuevos = append(nuevos, item)
		}
		return s.descontarStock(tx, resolved, pedido.ID, pedido.NumeroDiario)
	})
	if txErr != nil {
		return nil, txErr
	}

	for i := range nuevos {
		nuevos[i].Producto = resolved[i].producto
	}
	// Route only the lines added in this call
	s.comanda.RutearPedido(ctx, pedido, nuevos)

	pedido.Items = append(pedido.Items, nuevos...)
	return pedidoToResponse(pedido), nil
}

// Cancelar voids an order with a supervisor PIN. Stock already consumed in
// preparation is NOT restored; the loss stays visible in the stock ledger and
// the caja receives a tagged reversing entry excluded from reconciliation.
func (s *pedidoService) Cancelar(ctx context.Context, actor Actor, pedidoID uuid.UUID, req dto.CancelarPedidoRequest) error {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return apierror.NotFound("pedido %s no encontrado", pedidoID)
	}
	if pedido.Estado == model.PedidoCancelado {
		return apierror.Conflict("el pedido ya está cancelado")
	}
	for _, item := range pedido.Items {
		if item.VentaID != nil {
			return apierror.Conflict("el pedido tiene comprobantes emitidos y no puede cancelarse")
		}
	}
	// PIN check comes after state checks so a wrong code never leaks whether
	// cancellation was otherwise possible
	if req.CodigoAuth != s.codigoAnulacion {
		return apierror.Forbidden("código de autorización inválido")
	}

	total := totalActivo(pedido.Items)
	cantidadItems := 0
	for _, item := range pedido.Items {
		if item.Activo {
			cantidadItems++
		}
	}

	caja, cajaErr := s.cajaRepo.FindAbiertaHoy(ctx, hoy())

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		anulacion := model.Anulacion{
			PedidoID:      pedido.ID,
			Motivo:        req.Motivo,
			AutorizadoPor: actor.ID,
			TotalPedido:   total,
		}
		if err := s.repo.CreateAnulacionTx(tx, &anulacion); err != nil {
			return err
		}
		if err := s.repo.UpdateEstadoTx(tx, pedido.ID, model.PedidoCancelado); err != nil {
			return err
		}
		if err := s.mesaRepo.UpdateEstadoTx(tx, pedido.MesaID, model.MesaLibre); err != nil {
			return err
		}

		// Tagged reversing entry; reconciliation skips categoria=anulacion
		if cajaErr == nil && caja != nil {
			mesa, _, _ := contextoPedido(pedido)
			detalle, _ := json.Marshal(model.DetalleAnulacion{
				PedidoID:      pedido.ID.String(),
				NumeroPedido:  pedido.NumeroDiario,
				Mesa:          mesa,
				Motivo:        req.Motivo,
				AutorizadoPor: actor.Nombre,
				CantidadItems: cantidadItems,
				TotalPedido:   total,
			})
			mov := model.MovimientoCaja{
				CajaID:       caja.ID,
				Tipo:         model.MovEgreso,
				Categoria:    model.CatAnulacion,
				Monto:        total,
				Descripcion:  fmt.Sprintf("Cancelación pedido #%d", pedido.NumeroDiario),
				EsAutomatico: true,
				Detalle:      detalle,
			}
			if err := s.cajaRepo.CreateMovimientoTx(tx, &mov); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	log.Info().
		Str("pedido_id", pedido.ID.String()).
		Str("autorizado_por", actor.Username).
		Str("motivo", req.Motivo).
		Msg("pedido cancelado")
	return nil
}

func (s *pedidoService) PreCuenta(ctx context.Context, pedidoID uuid.UUID) (*dto.PreCuentaResponse, error) {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, apierror.NotFound("pedido %s no encontrado", pedidoID)
	}
	if pedido.Estado == model.PedidoCancelado {
		return nil, apierror.Conflict("el pedido está cancelado")
	}

	if err := s.mesaRepo.UpdateEstado(ctx, pedido.MesaID, model.MesaPidiendoCuenta); err != nil {
		return nil, err
	}

	mesa, _, _ := contextoPedido(pedido)
	var items []dto.ItemPedidoResponse
	var ticketItems []dto.ComandaItem
	total := decimal.Zero
	for _, item := range pedido.Items {
		if !item.Activo || item.VentaID != nil {
			continue
		}
		subtotal := item.Precio.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		total = total.Add(subtotal)
		items = append(items, itemToResponse(item))
		ci := dto.ComandaItem{Producto: nombreProducto(item), Cantidad: item.Cantidad}
		if item.VariantesDetalle != nil {
			ci.Variantes = *item.VariantesDetalle
		}
		ticketItems = append(ticketItems, ci)
	}

	s.comanda.EnviarPrecuenta(ctx, dto.TicketVenta{
		Tipo:  "PRECUENTA",
		Mesa:  mesa,
		Items: ticketItems,
		Total: total,
		Fecha: pedido.Fecha.Format("02/01/2006"),
	})

	return &dto.PreCuentaResponse{
		PedidoID:     pedido.ID.String(),
		NumeroDiario: pedido.NumeroDiario,
		Mesa:         mesa,
		Items:        items,
		Total:        total,
	}, nil
}

func (s *pedidoService) ActualizarEstado(ctx context.Context, pedidoID uuid.UUID, estado string) error {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return apierror.NotFound("pedido %s no encontrado", pedidoID)
	}
	switch pedido.Estado {
	case model.PedidoCancelado, model.PedidoEntregado:
		return apierror.Conflict("el pedido está en estado terminal %s", pedido.Estado)
	}
	if estado == model.PedidoCancelado {
		return apierror.Validation("use la operación de cancelación")
	}
	return s.repo.UpdateEstado(ctx, pedidoID, estado)
}

func (s *pedidoService) ListarPendientes(ctx context.Context, actor Actor) ([]dto.PedidoResponse, error) {
	pisos := actor.PisoIDs
	pedidos, err := s.repo.ListPendientes(ctx, pisos)
	if err != nil {
		return nil, err
	}
	return pedidosToResponse(pedidos), nil
}

func (s *pedidoService) ObtenerPorID(ctx context.Context, pedidoID uuid.UUID) (*dto.PedidoResponse, error) {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, apierror.NotFound("pedido %s no encontrado", pedidoID)
	}
	return pedidoToResponse(pedido), nil
}

func (s *pedidoService) MisPedidos(ctx context.Context, actor Actor) ([]dto.PedidoResponse, error) {
	pedidos, err := s.repo.ListByUsuario(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return pedidosToResponse(pedidos), nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// resolverLineas validates every requested line and freezes its price.
// Read-only: nothing is mutated until the caller's transaction, so a failing
// line aborts before any stock moved.
func (s *pedidoService) resolverLineas(ctx context.Context, items []dto.ItemPedidoRequest) ([]resolvedLine, error) {
	var resolved []resolvedLine
	requerido := map[uuid.UUID]int{}
	stock := map[uuid.UUID]*model.Producto{}

	for _, item := range items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, apierror.Validation("producto_id inválido")
		}
		p, err := s.productoRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, apierror.NotFound("producto %s no encontrado", item.ProductoID)
		}
		if !p.Activo {
			return nil, apierror.Validation("el producto %s está inactivo", p.Nombre)
		}

		precio := p.Precio
		var nombres []string
		for _, vid := range item.Variantes {
			variante, err := buscarVariante(p, vid)
			if err != nil {
				return nil, err
			}
			precio = precio.Add(variante.PrecioExtra)
			nombres = append(nombres, variante.Nombre)
		}

		line := resolvedLine{producto: p, cantidad: item.Cantidad, precio: precio}
		if item.Notas != "" {
			n := item.Notas
			line.notas = &n
		}
		if len(nombres) > 0 {
			v := strings.Join(nombres, ", ")
			line.variantesDetalle = &v
		}
		resolved = append(resolved, line)

		if p.ManejaStock {
			requerido[p.ID] += item.Cantidad
			stock[p.ID] = p
		}
	}

	// Aggregate check so repeated lines of one product cannot pass
	// individually yet fail combined
	for pid, cantidad := range requerido {
		if stock[pid].StockDiario < cantidad {
			return nil, apierror.Conflict(
				"stock insuficiente de %s: disponible %d, solicitado %d",
				stock[pid].Nombre, stock[pid].StockDiario, cantidad)
		}
	}
	return resolved, nil
}

func buscarVariante(p *model.Producto, id string) (*model.ProductoVariante, error) {
	vid, err := uuid.Parse(id)
	if err != nil {
		return nil, apierror.Validation("variante inválida")
	}
	for i := range p.Variantes {
		if p.Variantes[i].ID == vid {
			if !p.Variantes[i].Activo {
				return nil, apierror.Validation("la variante %s está inactiva", p.Variantes[i].Nombre)
			}
			return &p.Variantes[i], nil
		}
	}
	return nil, apierror.Validation("variante %s no pertenece al producto %s", id, p.Nombre)
}

// descontarStock applies the conditional decrement per managed line and
// writes the stock ledger row. Runs inside the caller's transaction.
func (s *pedidoService) descontarStock(tx *gorm.DB, resolved []resolvedLine, pedidoID uuid.UUID, numero int) error {
	for _, r := range resolved {
		if !r.producto.ManejaStock {
			continue
		}
		stockAntes := r.producto.StockDiario
		if tx != nil {
			if actual, err := s.productoRepo.FindByIDTx(tx, r.producto.ID); err == nil {
				stockAntes = actual.StockDiario
			}
		}
		if err := s.productoRepo.DescontarStockDiarioTx(tx, r.producto.ID, r.cantidad); err != nil {
			return apierror.Conflict("stock insuficiente de %s", r.producto.Nombre)
		}
		ref := pedidoID
		mov := model.MovimientoStock{
			ProductoID:    r.producto.ID,
			Tipo:          "pedido",
			Cantidad:      -r.cantidad,
			StockAnterior: stockAntes,
			StockNuevo:    stockAntes - r.cantidad,
			Motivo:        fmt.Sprintf("Pedido #%d", numero),
			ReferenciaID:  &ref,
		}
		if err := s.stockRepo.CreateTx(tx, &mov); err != nil {
			return err
		}
	}
	return nil
}

func totalActivo(items []model.PedidoItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Activo {
			total = total.Add(item.Precio.Mul(decimal.NewFromInt(int64(item.Cantidad))))
		}
	}
	return total
}

func nombreProducto(item model.PedidoItem) string {
	if item.Producto != nil {
		return item.Producto.Nombre
	}
	return item.ProductoID.String()
}

func itemToResponse(item model.PedidoItem) dto.ItemPedidoResponse {
	resp := dto.ItemPedidoResponse{
		ID:       item.ID.String(),
		Producto: nombreProducto(item),
		Cantidad: item.Cantidad,
		Precio:   item.Precio,
		Subtotal: item.Precio.Mul(decimal.NewFromInt(int64(item.Cantidad))),
		Activo:   item.Activo,
		Pagado:   item.VentaID != nil,
	}
	if item.Notas != nil {
		resp.Notas = *item.Notas
	}
	if item.VariantesDetalle != nil {
		resp.Variantes = *item.VariantesDetalle
	}
	return resp
}

func pedidoToResponse(pedido *model.Pedido) *dto.PedidoResponse {
	mesa, piso, mozo := contextoPedido(pedido)
	resp := &dto.PedidoResponse{
		ID:           pedido.ID.String(),
		NumeroDiario: pedido.NumeroDiario,
		Mesa:         mesa,
		Piso:         piso,
		Mozo:         mozo,
		Estado:       pedido.Estado,
		Total:        totalActivo(pedido.Items),
		CreatedAt:    pedido.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, item := range pedido.Items {
		resp.Items = append(resp.Items, itemToResponse(item))
	}
	return resp
}

func pedidosToResponse(pedidos []model.Pedido) []dto.PedidoResponse {
	out := make([]dto.PedidoResponse, 0, len(pedidos))
	for i := range pedidos {
		out = append(out, *pedidoToResponse(&pedidos[i]))
	}
	return out
}
