package service

// comanda_service_test.go
// Comanda routing: partition by print area, independent per-area numbering,
// the durable outbox rows and the manual retry path.

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComandaEnv() (*fakeComandaRepo, *fakeDispatcher, ComandaService) {
	repo := newFakeComandaRepo()
	dispatch := &fakeDispatcher{}
	return repo, dispatch, NewComandaService(repo, dispatch)
}

func pedidoParaRutear(numero int, items ...model.PedidoItem) *model.Pedido {
	piso := nuevoPiso("Salón", model.AreaCocina)
	mesa := &model.Mesa{ID: uuid.New(), PisoID: piso.ID, Numero: 2, Nombre: "Mesa 2", Estado: model.MesaOcupada, Piso: &piso}
	p := &model.Pedido{
		ID:           uuid.New(),
		MesaID:       mesa.ID,
		PisoID:       piso.ID,
		UsuarioID:    uuid.New(),
		NumeroDiario: numero,
		Fecha:        hoy(),
		Estado:       model.PedidoPendiente,
		Mesa:         mesa,
		Usuario:      &model.Usuario{ID: uuid.New(), Username: "mozo1", Nombre: "Rosa Quispe", Rol: "mozo"},
	}
	for i := range items {
		items[i].PedidoID = p.ID
	}
	p.Items = items
	return p
}

// comandasPorArea decodes every comanda print log keyed by area.
func comandasPorArea(t *testing.T, repo *fakeComandaRepo) map[string]dto.ComandaTicket {
	t.Helper()
	out := map[string]dto.ComandaTicket{}
	for _, id := range repo.orden {
		p := repo.printLogs[id]
		if p.Tipo != model.PrintComanda {
			continue
		}
		var ticket dto.ComandaTicket
		require.NoError(t, json.Unmarshal(p.Payload, &ticket))
		out[ticket.Area] = ticket
	}
	return out
}

func TestRutearPedidoParticionaPorArea(t *testing.T) {
	repo, dispatch, svc := newComandaEnv()

	cocina := nuevoPiso("Salón", model.AreaCocina)
	barra := nuevoPiso("Terraza", model.AreaBarra)
	helado := producto("Helado artesanal", "12.00", cocina)
	limonada := producto("Limonada frozen", "9.00", barra)

	pedido := pedidoParaRutear(5, itemDe(helado, 2), itemDe(limonada, 1))
	svc.RutearPedido(context.Background(), pedido, pedido.Items)

	require.Len(t, repo.orden, 2)
	tickets := comandasPorArea(t, repo)
	require.Contains(t, tickets, model.AreaCocina)
	require.Contains(t, tickets, model.AreaBarra)

	// Cada área recibe sólo sus líneas, con su propio número
	assert.Equal(t, 1, tickets[model.AreaCocina].Numero)
	assert.Equal(t, 1, tickets[model.AreaBarra].Numero)
	require.Len(t, tickets[model.AreaCocina].Items, 1)
	assert.Equal(t, "Helado artesanal", tickets[model.AreaCocina].Items[0].Producto)
	require.Len(t, tickets[model.AreaBarra].Items, 1)
	assert.Equal(t, "Limonada frozen", tickets[model.AreaBarra].Items[0].Producto)

	assert.Equal(t, 5, tickets[model.AreaCocina].NumeroPedido)
	assert.Equal(t, "Mesa 2", tickets[model.AreaCocina].Mesa)
	assert.Equal(t, "Rosa Quispe", tickets[model.AreaCocina].Mozo)

	// Un job encolado por print log, referenciándolo por id
	require.Len(t, dispatch.impresion, 2)
	enqueued := map[string]bool{}
	for _, job := range dispatch.impresion {
		enqueued[job.PrintLogID] = true
	}
	for _, id := range repo.orden {
		assert.True(t, enqueued[id.String()])
	}
}

func TestNumeracionPorAreaIndependiente(t *testing.T) {
	repo, _, svc := newComandaEnv()

	cocina := nuevoPiso("Salón", model.AreaCocina)
	barra := nuevoPiso("Terraza", model.AreaBarra)
	helado := producto("Helado", "12.00", cocina)
	limonada := producto("Limonada", "9.00", barra)

	p1 := pedidoParaRutear(1, itemDe(helado, 1))
	svc.RutearPedido(context.Background(), p1, p1.Items)
	p2 := pedidoParaRutear(2, itemDe(helado, 1))
	svc.RutearPedido(context.Background(), p2, p2.Items)
	p3 := pedidoParaRutear(3, itemDe(limonada, 1))
	svc.RutearPedido(context.Background(), p3, p3.Items)

	var numerosCocina []int
	var numerosBarra []int
	for _, id := range repo.orden {
		var ticket dto.ComandaTicket
		require.NoError(t, json.Unmarshal(repo.printLogs[id].Payload, &ticket))
		switch ticket.Area {
		case model.AreaCocina:
			numerosCocina = append(numerosCocina, ticket.Numero)
		case model.AreaBarra:
			numerosBarra = append(numerosBarra, ticket.Numero)
		}
	}
	assert.Equal(t, []int{1, 2}, numerosCocina)
	assert.Equal(t, []int{1}, numerosBarra)
}

func TestCategoriaMultiAreaImprimeEnAmbas(t *testing.T) {
	repo, _, svc := newComandaEnv()

	cocina := nuevoPiso("Salón", model.AreaCocina)
	barra := nuevoPiso("Terraza", model.AreaBarra)
	combo := producto("Combo pareja", "29.90", cocina, barra)

	pedido := pedidoParaRutear(1, itemDe(combo, 1))
	svc.RutearPedido(context.Background(), pedido, pedido.Items)

	tickets := comandasPorArea(t, repo)
	require.Len(t, tickets, 2)
	assert.Equal(t, "Combo pareja", tickets[model.AreaCocina].Items[0].Producto)
	assert.Equal(t, "Combo pareja", tickets[model.AreaBarra].Items[0].Producto)
}

func TestPisosRepetidosDeUnAreaNoDuplican(t *testing.T) {
	repo, _, svc := newComandaEnv()

	piso1 := nuevoPiso("Salón 1", model.AreaCocina)
	piso2 := nuevoPiso("Salón 2", model.AreaCocina)
	helado := producto("Helado", "12.00", piso1, piso2)

	pedido := pedidoParaRutear(1, itemDe(helado, 1))
	svc.RutearPedido(context.Background(), pedido, pedido.Items)

	require.Len(t, repo.orden, 1)
	tickets := comandasPorArea(t, repo)
	require.Len(t, tickets[model.AreaCocina].Items, 1)
}

func TestItemSinCategoriaSeOmite(t *testing.T) {
	repo, _, svc := newComandaEnv()

	suelto := itemDe(&model.Producto{ID: uuid.New(), Nombre: "Huérfano", Precio: precio("5.00")}, 1)
	pedido := pedidoParaRutear(1, suelto)
	svc.RutearPedido(context.Background(), pedido, pedido.Items)

	assert.Empty(t, repo.orden)
}

func TestEnviarPrecuentaPersisteYEncola(t *testing.T) {
	repo, dispatch, svc := newComandaEnv()

	svc.EnviarPrecuenta(context.Background(), dto.TicketVenta{
		Tipo:  "PRECUENTA",
		Mesa:  "Mesa 2",
		Items: []dto.ComandaItem{{Producto: "Helado", Cantidad: 2}},
		Total: precio("24.00"),
	})

	require.Len(t, repo.orden, 1)
	printLog := repo.printLogs[repo.orden[0]]
	assert.Equal(t, model.PrintPrecuenta, printLog.Tipo)
	assert.Nil(t, printLog.Area)
	require.Len(t, dispatch.impresion, 1)
	assert.Equal(t, printLog.ID.String(), dispatch.impresion[0].PrintLogID)
}

func TestReintentarImpresion(t *testing.T) {
	repo, dispatch, svc := newComandaEnv()

	_, err := svc.Reintentar(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))

	errMsg := "bridge timeout"
	fallido := &model.PrintLog{
		Tipo: model.PrintComanda, Payload: []byte(`{}`),
		Estado: model.PrintError, Intentos: 2, LastError: &errMsg,
	}
	require.NoError(t, repo.CreatePrintLog(context.Background(), fallido))

	resp, err := svc.Reintentar(context.Background(), fallido.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PrintError, resp.Estado)
	assert.Equal(t, 2, resp.Intentos)
	require.Len(t, dispatch.impresion, 1)
	assert.Equal(t, fallido.ID.String(), dispatch.impresion[0].PrintLogID)

	// Lo ya enviado no se reimprime
	enviado := &model.PrintLog{Tipo: model.PrintTicket, Payload: []byte(`{}`), Estado: model.PrintEnviado}
	require.NoError(t, repo.CreatePrintLog(context.Background(), enviado))
	_, err = svc.Reintentar(context.Background(), enviado.ID)
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}
