package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemPedidoRequest struct {
	ProductoID string   `json:"producto_id" validate:"required,uuid"`
	Cantidad   int      `json:"cantidad"    validate:"required,min=1"`
	Notas      string   `json:"notas"       validate:"max=200"`
	Variantes  []string `json:"variantes"   validate:"omitempty,dive,uuid"`
}

type CrearPedidoRequest struct {
	MesaID string              `json:"mesa_id" validate:"required,uuid"`
	Items  []ItemPedidoRequest `json:"items"   validate:"required,min=1,dive"`
}

type AgregarItemsRequest struct {
	Items []ItemPedidoRequest `json:"items" validate:"required,min=1,dive"`
}

type CancelarPedidoRequest struct {
	Motivo     string `json:"motivo"      validate:"required,min=5"`
	CodigoAuth string `json:"codigo_auth" validate:"required"`
}

type ActualizarEstadoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=PENDIENTE PREPARADO ENTREGADO"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemPedidoResponse struct {
	ID        string          `json:"id"`
	Producto  string          `json:"producto"`
	Cantidad  int             `json:"cantidad"`
	Precio    decimal.Decimal `json:"precio"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Notas     string          `json:"notas,omitempty"`
	Variantes string          `json:"variantes,omitempty"`
	Activo    bool            `json:"activo"`
	Pagado    bool            `json:"pagado"`
}

type PedidoResponse struct {
	ID           string               `json:"id"`
	NumeroDiario int                  `json:"numero_diario"`
	Mesa         string               `json:"mesa"`
	Piso         string               `json:"piso"`
	Mozo         string               `json:"mozo"`
	Estado       string               `json:"estado"`
	Total        decimal.Decimal      `json:"total"`
	Items        []ItemPedidoResponse `json:"items"`
	CreatedAt    string               `json:"created_at"`
}

// PreCuentaResponse is the pre-bill projection: what the table owes right
// now, with no fiscal effect.
type PreCuentaResponse struct {
	PedidoID     string               `json:"pedido_id"`
	NumeroDiario int                  `json:"numero_diario"`
	Mesa         string               `json:"mesa"`
	Items        []ItemPedidoResponse `json:"items"`
	Total        decimal.Decimal      `json:"total"`
}
