package service

// stubs_test.go
// In-memory repository stubs shared by the service tests. Each stub honors
// the repository contract closely enough for the services to run with a nil
// *gorm.DB (runTx calls fn(nil) in that mode).

import (
	"context"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"
	"github.com/jos3lo89/ice-mankora-backend/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── PedidoRepository ──────────────────────────────────────────────────────────

type fakePedidoRepo struct {
	pedidos     map[uuid.UUID]*model.Pedido
	anulaciones []model.Anulacion
}

func newFakePedidoRepo() *fakePedidoRepo {
	return &fakePedidoRepo{pedidos: map[uuid.UUID]*model.Pedido{}}
}

func (r *fakePedidoRepo) DB() *gorm.DB { return nil }

func (r *fakePedidoRepo) CreateTx(_ *gorm.DB, p *model.Pedido) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	for i := range p.Items {
		if p.Items[i].ID == uuid.Nil {
			p.Items[i].ID = uuid.New()
		}
		p.Items[i].PedidoID = p.ID
	}
	r.pedidos[p.ID] = p
	return nil
}

func (r *fakePedidoRepo) CreateItemTx(_ *gorm.DB, item *model.PedidoItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return nil
}

func (r *fakePedidoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	p, ok := r.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePedidoRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	if p, ok := r.pedidos[id]; ok {
		p.Estado = estado
	}
	return nil
}

func (r *fakePedidoRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string) error {
	return r.UpdateEstadoTx(nil, id, estado)
}

func (r *fakePedidoRepo) NextNumeroDiarioTx(_ *gorm.DB, pisoID uuid.UUID, fecha time.Time) (int, error) {
	max := 0
	for _, p := range r.pedidos {
		if p.PisoID == pisoID && p.Fecha.Equal(fecha) && p.NumeroDiario > max {
			max = p.NumeroDiario
		}
	}
	return max + 1, nil
}

func (r *fakePedidoRepo) SetVentaIDTx(_ *gorm.DB, itemIDs []uuid.UUID, ventaID uuid.UUID) (int64, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range itemIDs {
		wanted[id] = true
	}
	var linked int64
	for _, p := range r.pedidos {
		for i := range p.Items {
			// venta_id already set is never overwritten
			if wanted[p.Items[i].ID] && p.Items[i].VentaID == nil {
				v := ventaID
				p.Items[i].VentaID = &v
				linked++
			}
		}
	}
	return linked, nil
}

func (r *fakePedidoRepo) CountItemsSinPagarTx(_ *gorm.DB, pedidoID uuid.UUID) (int64, error) {
	var n int64
	if p, ok := r.pedidos[pedidoID]; ok {
		for _, item := range p.Items {
			if item.Activo && item.VentaID == nil {
				n++
			}
		}
	}
	return n, nil
}

func (r *fakePedidoRepo) CreateAnulacionTx(_ *gorm.DB, a *model.Anulacion) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.anulaciones = append(r.anulaciones, *a)
	return nil
}

func (r *fakePedidoRepo) ListPendientes(_ context.Context, pisoIDs []uuid.UUID) ([]model.Pedido, error) {
	pisos := map[uuid.UUID]bool{}
	for _, id := range pisoIDs {
		pisos[id] = true
	}
	var out []model.Pedido
	for _, p := range r.pedidos {
		if (p.Estado == model.PedidoPendiente || p.Estado == model.PedidoPreparado) && pisos[p.PisoID] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePedidoRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Pedido, error) {
	var out []model.Pedido
	for _, p := range r.pedidos {
		if p.UsuarioID == usuarioID {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ repository.PedidoRepository = (*fakePedidoRepo)(nil)

// ── MesaRepository ────────────────────────────────────────────────────────────

type fakeMesaRepo struct {
	mesas map[uuid.UUID]*model.Mesa
}

func newFakeMesaRepo() *fakeMesaRepo {
	return &fakeMesaRepo{mesas: map[uuid.UUID]*model.Mesa{}}
}

func (r *fakeMesaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Mesa, error) {
	m, ok := r.mesas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *fakeMesaRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string) error {
	return r.UpdateEstadoTx(nil, id, estado)
}

func (r *fakeMesaRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	if m, ok := r.mesas[id]; ok {
		m.Estado = estado
	}
	return nil
}

var _ repository.MesaRepository = (*fakeMesaRepo)(nil)

// ── ProductoRepository ────────────────────────────────────────────────────────

type fakeProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newFakeProductoRepo() *fakeProductoRepo {
	return &fakeProductoRepo{productos: map[uuid.UUID]*model.Producto{}}
}

func (r *fakeProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *fakeProductoRepo) DescontarStockDiarioTx(_ *gorm.DB, id uuid.UUID, cantidad int) error {
	p, ok := r.productos[id]
	if !ok || p.StockDiario < cantidad {
		return gorm.ErrRecordNotFound
	}
	p.StockDiario -= cantidad
	return nil
}

var _ repository.ProductoRepository = (*fakeProductoRepo)(nil)

// ── MovimientoStockRepository ─────────────────────────────────────────────────

type fakeStockRepo struct {
	movimientos []model.MovimientoStock
}

func (r *fakeStockRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

var _ repository.MovimientoStockRepository = (*fakeStockRepo)(nil)

// ── CajaRepository ────────────────────────────────────────────────────────────

type fakeCajaRepo struct {
	cajas       map[uuid.UUID]*model.CajaDiaria
	movimientos map[uuid.UUID][]model.MovimientoCaja
}

func newFakeCajaRepo() *fakeCajaRepo {
	return &fakeCajaRepo{
		cajas:       map[uuid.UUID]*model.CajaDiaria{},
		movimientos: map[uuid.UUID][]model.MovimientoCaja{},
	}
}

func (r *fakeCajaRepo) DB() *gorm.DB { return nil }

func (r *fakeCajaRepo) CreateCaja(_ context.Context, c *model.CajaDiaria) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.cajas[c.ID] = c
	return nil
}

func (r *fakeCajaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CajaDiaria, error) {
	c, ok := r.cajas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *fakeCajaRepo) FindAbiertaHoy(_ context.Context, fecha time.Time) (*model.CajaDiaria, error) {
	for _, c := range r.cajas {
		if c.Estado == model.CajaAbierta && c.Fecha.Equal(fecha) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCajaRepo) UpdateCaja(_ context.Context, c *model.CajaDiaria) error {
	r.cajas[c.ID] = c
	return nil
}

func (r *fakeCajaRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	return r.CreateMovimientoTx(nil, m)
}

func (r *fakeCajaRepo) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos[m.CajaID] = append(r.movimientos[m.CajaID], *m)
	return nil
}

func (r *fakeCajaRepo) ListMovimientos(_ context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	return r.movimientos[cajaID], nil
}

var _ repository.CajaRepository = (*fakeCajaRepo)(nil)

// ── VentaRepository ───────────────────────────────────────────────────────────

type fakeVentaRepo struct {
	ventas       map[uuid.UUID]*model.Venta
	correlativos map[string]int
}

func newFakeVentaRepo() *fakeVentaRepo {
	return &fakeVentaRepo{
		ventas:       map[uuid.UUID]*model.Venta{},
		correlativos: map[string]int{},
	}
}

func (r *fakeVentaRepo) DB() *gorm.DB { return nil }

func (r *fakeVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.ventas[v.ID] = v
	return nil
}

func (r *fakeVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *fakeVentaRepo) NextCorrelativoTx(_ *gorm.DB, serie string) (int, error) {
	r.correlativos[serie]++
	return r.correlativos[serie], nil
}

func (r *fakeVentaRepo) ExisteVentaPedido(_ context.Context, pedidoID uuid.UUID) (bool, error) {
	for _, v := range r.ventas {
		if v.PedidoID == pedidoID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVentaRepo) UpdateSunat(_ context.Context, id uuid.UUID, estado, xmlFileName string, sunatError *string) error {
	if v, ok := r.ventas[id]; ok {
		v.SunatEstado = estado
		if xmlFileName != "" {
			v.XMLFileName = &xmlFileName
		}
		v.SunatError = sunatError
	}
	return nil
}

func (r *fakeVentaRepo) UpdatePDFPath(_ context.Context, id uuid.UUID, path string) error {
	if v, ok := r.ventas[id]; ok {
		v.PDFPath = &path
	}
	return nil
}

var _ repository.VentaRepository = (*fakeVentaRepo)(nil)

// ── ClienteRepository ─────────────────────────────────────────────────────────

type fakeClienteRepo struct {
	clientes map[string]*model.Cliente // by doc_numero
}

func newFakeClienteRepo() *fakeClienteRepo {
	return &fakeClienteRepo{clientes: map[string]*model.Cliente{}}
}

func (r *fakeClienteRepo) UpsertTx(_ *gorm.DB, c *model.Cliente) (*model.Cliente, error) {
	if existing, ok := r.clientes[c.DocNumero]; ok {
		existing.Nombre = c.Nombre
		if c.Direccion != "" {
			existing.Direccion = c.Direccion
		}
		if c.Email != "" {
			existing.Email = c.Email
		}
		return existing, nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.DocNumero] = c
	return c, nil
}

var _ repository.ClienteRepository = (*fakeClienteRepo)(nil)

// ── ComandaRepository ─────────────────────────────────────────────────────────

type fakeComandaRepo struct {
	contadores map[string]int
	printLogs  map[uuid.UUID]*model.PrintLog
	orden      []uuid.UUID // creation order, for assertions
}

func newFakeComandaRepo() *fakeComandaRepo {
	return &fakeComandaRepo{
		contadores: map[string]int{},
		printLogs:  map[uuid.UUID]*model.PrintLog{},
	}
}

func (r *fakeComandaRepo) DB() *gorm.DB { return nil }

func (r *fakeComandaRepo) SiguienteNumeroTx(_ *gorm.DB, area string, fecha time.Time) (int, error) {
	key := area + ":" + fecha.Format("2006-01-02")
	r.contadores[key]++
	return r.contadores[key], nil
}

func (r *fakeComandaRepo) CreatePrintLogTx(_ *gorm.DB, p *model.PrintLog) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.printLogs[p.ID] = p
	r.orden = append(r.orden, p.ID)
	return nil
}

func (r *fakeComandaRepo) CreatePrintLog(_ context.Context, p *model.PrintLog) error {
	return r.CreatePrintLogTx(nil, p)
}

func (r *fakeComandaRepo) FindPrintLogByID(_ context.Context, id uuid.UUID) (*model.PrintLog, error) {
	p, ok := r.printLogs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeComandaRepo) UpdatePrintLog(_ context.Context, p *model.PrintLog) error {
	r.printLogs[p.ID] = p
	return nil
}

func (r *fakeComandaRepo) ListPendingRetries(_ context.Context, ahora time.Time, limit int) ([]model.PrintLog, error) {
	var out []model.PrintLog
	for _, id := range r.orden {
		p := r.printLogs[id]
		if p.Estado == model.PrintError && p.NextRetryAt != nil && !p.NextRetryAt.After(ahora) {
			out = append(out, *p)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

var _ repository.ComandaRepository = (*fakeComandaRepo)(nil)

// ── JobDispatcher ─────────────────────────────────────────────────────────────

type fakeDispatcher struct {
	impresion []worker.ImpresionJobPayload
	sunat     []worker.SunatJobPayload
}

func (d *fakeDispatcher) EnqueueImpresion(_ context.Context, payload interface{}) error {
	d.impresion = append(d.impresion, payload.(worker.ImpresionJobPayload))
	return nil
}

func (d *fakeDispatcher) EnqueueSunat(_ context.Context, payload interface{}) error {
	d.sunat = append(d.sunat, payload.(worker.SunatJobPayload))
	return nil
}

var _ JobDispatcher = (*fakeDispatcher)(nil)

// ── ComandaService (for pedido tests) ─────────────────────────────────────────

type fakeComanda struct {
	ruteados   [][]model.PedidoItem
	precuentas []dto.TicketVenta
}

func (c *fakeComanda) RutearPedido(_ context.Context, _ *model.Pedido, items []model.PedidoItem) {
	c.ruteados = append(c.ruteados, items)
}

func (c *fakeComanda) EnviarPrecuenta(_ context.Context, ticket dto.TicketVenta) {
	c.precuentas = append(c.precuentas, ticket)
}

func (c *fakeComanda) Reintentar(_ context.Context, _ uuid.UUID) (*dto.ReintentarImpresionResponse, error) {
	return nil, nil
}

var _ ComandaService = (*fakeComanda)(nil)

// ── fixture helpers ───────────────────────────────────────────────────────────

func actorMozo(pisos ...uuid.UUID) Actor {
	return Actor{ID: uuid.New(), Username: "mozo1", Nombre: "Rosa Quispe", Rol: "mozo", PisoIDs: pisos}
}

func actorCajero() Actor {
	return Actor{ID: uuid.New(), Username: "caja1", Nombre: "María Gonzales", Rol: "cajero"}
}

func precio(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func producto(nombre string, p string, pisos ...model.Piso) *model.Producto {
	cat := &model.Categoria{ID: uuid.New(), Nombre: nombre + " cat", Activo: true, Pisos: pisos}
	return &model.Producto{
		ID:           uuid.New(),
		CategoriaID:  cat.ID,
		Nombre:       nombre,
		Precio:       precio(p),
		TasaImpuesto: precio("0.18"),
		Activo:       true,
		Categoria:    cat,
	}
}

func conStock(p *model.Producto, stock int) *model.Producto {
	p.ManejaStock = true
	p.StockDiario = stock
	return p
}
