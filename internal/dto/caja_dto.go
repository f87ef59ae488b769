package dto

import "github.com/shopspring/decimal"

type AbrirCajaRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"required"`
}

type CerrarCajaRequest struct {
	MontoFinal decimal.Decimal `json:"monto_final" validate:"required"`
}

type MovimientoManualRequest struct {
	Tipo        string          `json:"tipo"        validate:"required,oneof=INGRESO EGRESO"`
	Monto       decimal.Decimal `json:"monto"       validate:"required"`
	Descripcion string          `json:"descripcion" validate:"required,min=3"`
}

type MovimientoResponse struct {
	ID          string          `json:"id"`
	Tipo        string          `json:"tipo"`
	Categoria   string          `json:"categoria"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion string          `json:"descripcion"`
	Automatico  bool            `json:"automatico"`
	CreatedAt   string          `json:"created_at"`
}

type CajaResponse struct {
	ID           string           `json:"id"`
	Fecha        string           `json:"fecha"`
	Estado       string           `json:"estado"`
	MontoInicial decimal.Decimal  `json:"monto_inicial"`
	MontoSistema *decimal.Decimal `json:"monto_sistema,omitempty"`
	MontoFinal   *decimal.Decimal `json:"monto_final,omitempty"`
	Diferencia   *decimal.Decimal `json:"diferencia,omitempty"`
	// Resultado: EXACTO | SOBRANTE | FALTANTE, only set after close
	Resultado string `json:"resultado,omitempty"`
	OpenedAt  string `json:"opened_at"`
	ClosedAt  string `json:"closed_at,omitempty"`
}

// ─── Detalle (session report) ────────────────────────────────────────────────

type VentaStatsResponse struct {
	Cantidad int             `json:"cantidad"`
	Total    decimal.Decimal `json:"total"`
	Promedio decimal.Decimal `json:"promedio"`
	Maxima   decimal.Decimal `json:"maxima"`
	Minima   decimal.Decimal `json:"minima"`
}

type CajaDetalleResponse struct {
	Caja           CajaResponse               `json:"caja"`
	Movimientos    []MovimientoResponse       `json:"movimientos"`
	TotalIngresos  decimal.Decimal            `json:"total_ingresos"`
	TotalEgresos   decimal.Decimal            `json:"total_egresos"`
	PorCategoria   map[string]decimal.Decimal `json:"por_categoria"`
	VentasPorPago  map[string]decimal.Decimal `json:"ventas_por_metodo_pago"`
	VentasPorTipo  map[string]decimal.Decimal `json:"ventas_por_tipo_comprobante"`
	Ventas         VentaStatsResponse         `json:"ventas"`
	DineroEsperado decimal.Decimal            `json:"dinero_esperado"`
}
