package service

// pedido_service_test.go
// Order lifecycle: per-floor daily numbering, frozen line prices, atomic
// stock decrements, PIN-guarded cancellation and the pre-bill projection.

import (
	"context"
	"fmt"
	"testing"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const codigoAnulacionTest = "4321"

type pedidoEnv struct {
	repo      *fakePedidoRepo
	mesas     *fakeMesaRepo
	productos *fakeProductoRepo
	stock     *fakeStockRepo
	caja      *fakeCajaRepo
	comanda   *fakeComanda
	svc       PedidoService
}

func newPedidoEnv() *pedidoEnv {
	env := &pedidoEnv{
		repo:      newFakePedidoRepo(),
		mesas:     newFakeMesaRepo(),
		productos: newFakeProductoRepo(),
		stock:     &fakeStockRepo{},
		caja:      newFakeCajaRepo(),
		comanda:   &fakeComanda{},
	}
	env.svc = NewPedidoService(
		env.repo, env.mesas, env.productos, env.stock, env.caja, env.comanda, codigoAnulacionTest)
	return env
}

func nuevoPiso(nombre, area string) model.Piso {
	return model.Piso{ID: uuid.New(), Nombre: nombre, Nivel: 1, Area: area, Activo: true}
}

func (e *pedidoEnv) addMesa(piso model.Piso, numero int) *model.Mesa {
	m := &model.Mesa{
		ID:     uuid.New(),
		PisoID: piso.ID,
		Numero: numero,
		Nombre: fmt.Sprintf("Mesa %d", numero),
		Estado: model.MesaLibre,
		Piso:   &piso,
	}
	e.mesas.mesas[m.ID] = m
	return m
}

func (e *pedidoEnv) addProducto(p *model.Producto) *model.Producto {
	e.productos.productos[p.ID] = p
	return p
}

func lineaSimple(p *model.Producto, cantidad int) dto.ItemPedidoRequest {
	return dto.ItemPedidoRequest{ProductoID: p.ID.String(), Cantidad: cantidad}
}

func TestCrearPedidoNumeracionPorPisoYDia(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	terraza := nuevoPiso("Terraza", model.AreaBarra)
	m1 := env.addMesa(salon, 1)
	m2 := env.addMesa(salon, 2)
	m3 := env.addMesa(terraza, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))
	actor := actorMozo(salon.ID, terraza.ID)

	r1, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: m1.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	require.NoError(t, err)
	r2, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: m2.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	require.NoError(t, err)
	r3, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: m3.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	require.NoError(t, err)

	// Each floor numbers its own day independently
	assert.Equal(t, 1, r1.NumeroDiario)
	assert.Equal(t, 2, r2.NumeroDiario)
	assert.Equal(t, 1, r3.NumeroDiario)

	assert.Equal(t, model.MesaOcupada, m1.Estado)
	assert.Equal(t, model.PedidoPendiente, r1.Estado)
	assert.Len(t, env.comanda.ruteados, 3)
}

func TestCrearPedidoCongelaPrecioConVariantes(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	helado := producto("Helado artesanal", "12.00", salon)
	waffle := model.ProductoVariante{ID: uuid.New(), ProductoID: helado.ID, Nombre: "Cono waffle", PrecioExtra: precio("2.00"), Activo: true}
	helado.Variantes = []model.ProductoVariante{waffle}
	env.addProducto(helado)

	resp, err := env.svc.Crear(context.Background(), actorMozo(salon.ID), dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(),
		Items: []dto.ItemPedidoRequest{{
			ProductoID: helado.ID.String(),
			Cantidad:   2,
			Variantes:  []string{waffle.ID.String()},
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	assert.True(t, resp.Items[0].Precio.Equal(precio("14.00")))
	assert.True(t, resp.Total.Equal(precio("28.00")))
	assert.Equal(t, "Cono waffle", resp.Items[0].Variantes)

	// Later catalog edits must not touch the frozen line
	helado.Precio = precio("99.00")
	guardado, err := env.repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.True(t, guardado.Items[0].Precio.Equal(precio("14.00")))
}

func TestCrearPedidoVarianteAjenaRechazada(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))
	otra := env.addProducto(producto("Copa", "18.00", salon))
	v := model.ProductoVariante{ID: uuid.New(), ProductoID: otra.ID, Nombre: "Extra", PrecioExtra: precio("1.00"), Activo: true}
	otra.Variantes = []model.ProductoVariante{v}

	_, err := env.svc.Crear(context.Background(), actorMozo(salon.ID), dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(),
		Items: []dto.ItemPedidoRequest{{
			ProductoID: helado.ID.String(),
			Cantidad:   1,
			Variantes:  []string{v.ID.String()},
		}},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestCrearPedidoDescuentaStockYRegistraMovimiento(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	copa := env.addProducto(conStock(producto("Copa Máncora", "18.50", salon), 10))

	resp, err := env.svc.Crear(context.Background(), actorMozo(salon.ID), dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(copa, 3)}})
	require.NoError(t, err)

	assert.Equal(t, 7, copa.StockDiario)
	require.Len(t, env.stock.movimientos, 1)
	mov := env.stock.movimientos[0]
	assert.Equal(t, -3, mov.Cantidad)
	assert.Equal(t, 10, mov.StockAnterior)
	assert.Equal(t, 7, mov.StockNuevo)
	require.NotNil(t, mov.ReferenciaID)
	assert.Equal(t, resp.ID, mov.ReferenciaID.String())
}

func TestCrearPedidoStockInsuficienteNoDejaRastro(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	conMucho := env.addProducto(conStock(producto("Copa", "18.50", salon), 50))
	conPoco := env.addProducto(conStock(producto("Torta", "10.00", salon), 2))

	_, err := env.svc.Crear(context.Background(), actorMozo(salon.ID), dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(),
		Items: []dto.ItemPedidoRequest{
			lineaSimple(conMucho, 1),
			lineaSimple(conPoco, 5),
		},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))

	// All or nothing: the valid line must not have consumed anything
	assert.Equal(t, 50, conMucho.StockDiario)
	assert.Equal(t, 2, conPoco.StockDiario)
	assert.Empty(t, env.stock.movimientos)
	assert.Empty(t, env.repo.pedidos)
	assert.Equal(t, model.MesaLibre, mesa.Estado)
}

func TestCrearPedidoSumaLineasRepetidasParaStock(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	copa := env.addProducto(conStock(producto("Copa", "18.50", salon), 5))

	// 3 + 3 de la misma copa: cada línea pasa sola, juntas no
	_, err := env.svc.Crear(context.Background(), actorMozo(salon.ID), dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(),
		Items: []dto.ItemPedidoRequest{
			lineaSimple(copa, 3),
			lineaSimple(copa, 3),
		},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
	assert.Equal(t, 5, copa.StockDiario)
}

func TestCrearPedidoMesaOcupada(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	mesa.Estado = model.MesaOcupada
	helado := env.addProducto(producto("Helado", "12.00", salon))

	_, err := env.svc.Crear(context.Background(), actorMozo(salon.ID), dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestCrearPedidoPisoSinAcceso(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	terraza := nuevoPiso("Terraza", model.AreaBarra)
	mesa := env.addMesa(salon, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))

	_, err := env.svc.Crear(context.Background(), actorMozo(terraza.ID), dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	require.Error(t, err)
	assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))

	// El administrador opera cualquier piso
	admin := Actor{ID: uuid.New(), Username: "admin", Nombre: "Admin", Rol: "administrador"}
	_, err = env.svc.Crear(context.Background(), admin, dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	assert.NoError(t, err)
}

func TestAgregarItemsRuteaSoloLosNuevos(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))
	copa := env.addProducto(producto("Copa", "18.50", salon))
	actor := actorMozo(salon.ID)

	resp, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 2)}})
	require.NoError(t, err)

	resp2, err := env.svc.AgregarItems(context.Background(), actor, uuid.MustParse(resp.ID),
		dto.AgregarItemsRequest{Items: []dto.ItemPedidoRequest{lineaSimple(copa, 1)}})
	require.NoError(t, err)

	assert.Len(t, resp2.Items, 2)
	require.Len(t, env.comanda.ruteados, 2)
	assert.Len(t, env.comanda.ruteados[1], 1)
	assert.True(t, resp2.Total.Equal(precio("42.50")))
}

func TestCancelarPinInvalidoNoMutaNada(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))
	actor := actorMozo(salon.ID)

	resp, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	require.NoError(t, err)

	err = env.svc.Cancelar(context.Background(), actor, uuid.MustParse(resp.ID),
		dto.CancelarPedidoRequest{Motivo: "cliente se retiró", CodigoAuth: "0000"})
	require.Error(t, err)
	assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))

	pedido, _ := env.repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	assert.Equal(t, model.PedidoPendiente, pedido.Estado)
	assert.Equal(t, model.MesaOcupada, mesa.Estado)
	assert.Empty(t, env.repo.anulaciones)
}

func TestCancelarRegistraAnulacionYLiberaMesa(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))
	actor := actorMozo(salon.ID)

	caja := &model.CajaDiaria{UsuarioID: actor.ID, Fecha: hoy(), MontoInicial: precio("100.00"), Estado: model.CajaAbierta}
	require.NoError(t, env.caja.CreateCaja(context.Background(), caja))

	resp, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 3)}})
	require.NoError(t, err)

	err = env.svc.Cancelar(context.Background(), actor, uuid.MustParse(resp.ID),
		dto.CancelarPedidoRequest{Motivo: "plato rechazado", CodigoAuth: codigoAnulacionTest})
	require.NoError(t, err)

	pedido, _ := env.repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	assert.Equal(t, model.PedidoCancelado, pedido.Estado)
	assert.Equal(t, model.MesaLibre, mesa.Estado)

	require.Len(t, env.repo.anulaciones, 1)
	assert.Equal(t, "plato rechazado", env.repo.anulaciones[0].Motivo)
	assert.True(t, env.repo.anulaciones[0].TotalPedido.Equal(precio("36.00")))

	movs, _ := env.caja.ListMovimientos(context.Background(), caja.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovEgreso, movs[0].Tipo)
	assert.Equal(t, model.CatAnulacion, movs[0].Categoria)
	assert.True(t, movs[0].Monto.Equal(precio("36.00")))
}

func TestCancelarConComprobanteEmitidoRechazado(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))
	actor := actorMozo(salon.ID)

	resp, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	require.NoError(t, err)

	pedido, _ := env.repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	ventaID := uuid.New()
	pedido.Items[0].VentaID = &ventaID

	err = env.svc.Cancelar(context.Background(), actor, pedido.ID,
		dto.CancelarPedidoRequest{Motivo: "cliente se retiró", CodigoAuth: codigoAnulacionTest})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestActualizarEstadoRechazaTerminalesYCancelacion(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))
	actor := actorMozo(salon.ID)

	resp, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(), Items: []dto.ItemPedidoRequest{lineaSimple(helado, 1)}})
	require.NoError(t, err)
	pedidoID := uuid.MustParse(resp.ID)

	// La cancelación tiene su propia operación con PIN
	err = env.svc.ActualizarEstado(context.Background(), pedidoID, model.PedidoCancelado)
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))

	require.NoError(t, env.svc.ActualizarEstado(context.Background(), pedidoID, model.PedidoPreparado))

	require.NoError(t, env.repo.UpdateEstado(context.Background(), pedidoID, model.PedidoEntregado))
	err = env.svc.ActualizarEstado(context.Background(), pedidoID, model.PedidoPendiente)
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestPreCuentaProyectaSoloActivosNoPagados(t *testing.T) {
	env := newPedidoEnv()
	salon := nuevoPiso("Salón", model.AreaCocina)
	mesa := env.addMesa(salon, 1)
	helado := env.addProducto(producto("Helado", "12.00", salon))
	copa := env.addProducto(producto("Copa", "18.50", salon))
	actor := actorMozo(salon.ID)

	resp, err := env.svc.Crear(context.Background(), actor, dto.CrearPedidoRequest{
		MesaID: mesa.ID.String(),
		Items: []dto.ItemPedidoRequest{
			lineaSimple(helado, 1),
			lineaSimple(copa, 2),
		},
	})
	require.NoError(t, err)

	pedido, _ := env.repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	ventaID := uuid.New()
	pedido.Items[0].VentaID = &ventaID // helado ya pagado

	cuenta, err := env.svc.PreCuenta(context.Background(), pedido.ID)
	require.NoError(t, err)

	assert.True(t, cuenta.Total.Equal(precio("37.00")))
	assert.Len(t, cuenta.Items, 1)
	assert.Equal(t, model.MesaPidiendoCuenta, mesa.Estado)
	require.Len(t, env.comanda.precuentas, 1)
	assert.Equal(t, "PRECUENTA", env.comanda.precuentas[0].Tipo)
}
