package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/model"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CajaService interface {
	Abrir(ctx context.Context, actor Actor, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	Cerrar(ctx context.Context, actor Actor, req dto.CerrarCajaRequest) (*dto.CajaResponse, error)
	// DineroSistema replays the movement ledger into the expected drawer
	// amount: start at the float, skip apertura and anulacion entries,
	// INGRESO adds, EGRESO subtracts.
	DineroSistema(ctx context.Context, cajaID uuid.UUID) (decimal.Decimal, error)
	MovimientoManual(ctx context.Context, actor Actor, req dto.MovimientoManualRequest) (*dto.MovimientoResponse, error)
	Detalle(ctx context.Context, cajaID uuid.UUID) (*dto.CajaDetalleResponse, error)
	Activa(ctx context.Context) (*dto.CajaResponse, error)
}

type cajaService struct {
	repo repository.CajaRepository
}

func NewCajaService(repo repository.CajaRepository) CajaService {
	return &cajaService{repo: repo}
}

func (s *cajaService) Abrir(ctx context.Context, actor Actor, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	if req.MontoInicial.IsNegative() {
		return nil, apierror.Validation("el monto inicial no puede ser negativo")
	}
	if existente, err := s.repo.FindAbiertaHoy(ctx, hoy()); err == nil && existente != nil {
		return nil, apierror.Conflict("ya existe una caja abierta hoy")
	}

	caja := &model.CajaDiaria{
		UsuarioID:    actor.ID,
		Fecha:        hoy(),
		MontoInicial: req.MontoInicial,
		Estado:       model.CajaAbierta,
		OpenedAt:     time.Now(),
	}
	if err := s.repo.CreateCaja(ctx, caja); err != nil {
		return nil, err
	}

	// The float is recorded as a ledger entry for the audit trail, but
	// DineroSistema starts from MontoInicial, so the replay skips it.
	apertura := &model.MovimientoCaja{
		CajaID:       caja.ID,
		Tipo:         model.MovIngreso,
		Categoria:    model.CatApertura,
		Monto:        req.MontoInicial,
		Descripcion:  "Apertura de caja",
		EsAutomatico: true,
	}
	if err := s.repo.CreateMovimiento(ctx, apertura); err != nil {
		return nil, err
	}

	log.Info().
		Str("caja_id", caja.ID.String()).
		Str("usuario", actor.Username).
		Str("monto_inicial", req.MontoInicial.StringFixed(2)).
		Msg("caja abierta")

	return cajaToResponse(caja), nil
}

func (s *cajaService) DineroSistema(ctx context.Context, cajaID uuid.UUID) (decimal.Decimal, error) {
	caja, err := s.repo.FindByID(ctx, cajaID)
	if err != nil {
		return decimal.Zero, apierror.NotFound("caja %s no encontrada", cajaID)
	}
	movimientos, err := s.repo.ListMovimientos(ctx, cajaID)
	if err != nil {
		return decimal.Zero, err
	}
	return replayMovimientos(caja.MontoInicial, movimientos), nil
}

func replayMovimientos(montoInicial decimal.Decimal, movimientos []model.MovimientoCaja) decimal.Decimal {
	total := montoInicial
	for _, m := range movimientos {
		if m.Categoria == model.CatApertura || m.Categoria == model.CatAnulacion {
			continue
		}
		if m.Tipo == model.MovIngreso {
			total = total.Add(m.Monto)
		} else {
			total = total.Sub(m.Monto)
		}
	}
	return total
}

func (s *cajaService) Cerrar(ctx context.Context, actor Actor, req dto.CerrarCajaRequest) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindAbiertaHoy(ctx, hoy())
	if err != nil || caja == nil {
		return nil, apierror.Conflict("no hay caja abierta para cerrar")
	}

	movimientos, err := s.repo.ListMovimientos(ctx, caja.ID)
	if err != nil {
		return nil, err
	}
	sistema := replayMovimientos(caja.MontoInicial, movimientos)
	diferencia := req.MontoFinal.Sub(sistema)

	now := time.Now()
	caja.MontoFinal = &req.MontoFinal
	caja.MontoSistema = &sistema
	caja.Diferencia = &diferencia
	caja.Estado = model.CajaCerrada
	caja.ClosedAt = &now
	if err := s.repo.UpdateCaja(ctx, caja); err != nil {
		return nil, err
	}

	log.Info().
		Str("caja_id", caja.ID.String()).
		Str("usuario", actor.Username).
		Str("sistema", sistema.StringFixed(2)).
		Str("contado", req.MontoFinal.StringFixed(2)).
		Str("diferencia", diferencia.StringFixed(2)).
		Msg("caja cerrada")

	return cajaToResponse(caja), nil
}

func (s *cajaService) MovimientoManual(ctx context.Context, actor Actor, req dto.MovimientoManualRequest) (*dto.MovimientoResponse, error) {
	if !req.Monto.IsPositive() {
		return nil, apierror.Validation("el monto debe ser mayor a cero")
	}
	caja, err := s.repo.FindAbiertaHoy(ctx, hoy())
	if err != nil || caja == nil {
		return nil, apierror.Conflict("no hay caja abierta")
	}

	detalle, _ := json.Marshal(model.DetalleManual{
		RegistradoPor: actor.Nombre,
		Username:      actor.Username,
	})
	mov := &model.MovimientoCaja{
		CajaID:       caja.ID,
		Tipo:         req.Tipo,
		Categoria:    model.CatManual,
		Monto:        req.Monto,
		Descripcion:  req.Descripcion,
		EsAutomatico: false,
		Detalle:      detalle,
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return nil, err
	}

	return movimientoToResponse(mov), nil
}

func (s *cajaService) Detalle(ctx context.Context, cajaID uuid.UUID) (*dto.CajaDetalleResponse, error) {
	caja, err := s.repo.FindByID(ctx, cajaID)
	if err != nil {
		return nil, apierror.NotFound("caja %s no encontrada", cajaID)
	}
	movimientos, err := s.repo.ListMovimientos(ctx, cajaID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CajaDetalleResponse{
		Caja:           *cajaToResponse(caja),
		TotalIngresos:  decimal.Zero,
		TotalEgresos:   decimal.Zero,
		PorCategoria:   map[string]decimal.Decimal{},
		VentasPorPago:  map[string]decimal.Decimal{},
		VentasPorTipo:  map[string]decimal.Decimal{},
		DineroEsperado: replayMovimientos(caja.MontoInicial, movimientos),
	}

	var ventaMontos []decimal.Decimal
	for i := range movimientos {
		m := &movimientos[i]
		resp.Movimientos = append(resp.Movimientos, *movimientoToResponse(m))

		acum := resp.PorCategoria[m.Categoria]
		resp.PorCategoria[m.Categoria] = acum.Add(m.Monto)

		// Apertura and anulación stay out of the operating totals; both are
		// still visible per-category above
		if m.Categoria == model.CatApertura || m.Categoria == model.CatAnulacion {
			continue
		}
		if m.Tipo == model.MovIngreso {
			resp.TotalIngresos = resp.TotalIngresos.Add(m.Monto)
		} else {
			resp.TotalEgresos = resp.TotalEgresos.Add(m.Monto)
		}

		if m.Categoria == model.CatVenta {
			ventaMontos = append(ventaMontos, m.Monto)
			var det model.DetalleVenta
			if len(m.Detalle) > 0 && json.Unmarshal(m.Detalle, &det) == nil {
				pago := resp.VentasPorPago[det.MetodoPago]
				resp.VentasPorPago[det.MetodoPago] = pago.Add(m.Monto)
				tipo := resp.VentasPorTipo[det.TipoComprobante]
				resp.VentasPorTipo[det.TipoComprobante] = tipo.Add(m.Monto)
			}
		}
	}

	resp.Ventas = ventaStats(ventaMontos)
	return resp, nil
}

func ventaStats(montos []decimal.Decimal) dto.VentaStatsResponse {
	stats := dto.VentaStatsResponse{
		Total:    decimal.Zero,
		Promedio: decimal.Zero,
		Maxima:   decimal.Zero,
		Minima:   decimal.Zero,
	}
	if len(montos) == 0 {
		return stats
	}
	stats.Cantidad = len(montos)
	stats.Minima = montos[0]
	for _, m := range montos {
		stats.Total = stats.Total.Add(m)
		if m.GreaterThan(stats.Maxima) {
			stats.Maxima = m
		}
		if m.LessThan(stats.Minima) {
			stats.Minima = m
		}
	}
	stats.Promedio = stats.Total.Div(decimal.NewFromInt(int64(len(montos)))).Round(2)
	return stats
}

func (s *cajaService) Activa(ctx context.Context) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindAbiertaHoy(ctx, hoy())
	if err != nil || caja == nil {
		return nil, apierror.NotFound("no hay caja abierta hoy")
	}
	return cajaToResponse(caja), nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func cajaToResponse(caja *model.CajaDiaria) *dto.CajaResponse {
	resp := &dto.CajaResponse{
		ID:           caja.ID.String(),
		Fecha:        caja.Fecha.Format("2006-01-02"),
		Estado:       caja.Estado,
		MontoInicial: caja.MontoInicial,
		MontoSistema: caja.MontoSistema,
		MontoFinal:   caja.MontoFinal,
		Diferencia:   caja.Diferencia,
		OpenedAt:     caja.OpenedAt.Format("2006-01-02 15:04:05"),
	}
	if caja.ClosedAt != nil {
		resp.ClosedAt = caja.ClosedAt.Format("2006-01-02 15:04:05")
	}
	if caja.Diferencia != nil {
		switch {
		case caja.Diferencia.IsZero():
			resp.Resultado = "EXACTO"
		case caja.Diferencia.IsPositive():
			resp.Resultado = "SOBRANTE"
		default:
			resp.Resultado = "FALTANTE"
		}
	}
	return resp
}

func movimientoToResponse(m *model.MovimientoCaja) *dto.MovimientoResponse {
	return &dto.MovimientoResponse{
		ID:          m.ID.String(),
		Tipo:        m.Tipo,
		Categoria:   m.Categoria,
		Monto:       m.Monto,
		Descripcion: m.Descripcion,
		Automatico:  m.EsAutomatico,
		CreatedAt:   m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
