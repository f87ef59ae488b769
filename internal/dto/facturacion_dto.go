package dto

import "github.com/shopspring/decimal"

type ClienteRequest struct {
	DocTipo   string `json:"doc_tipo"   validate:"omitempty,oneof=1 6"`
	DocNumero string `json:"doc_numero" validate:"omitempty,numeric"`
	Nombre    string `json:"nombre"     validate:"omitempty,min=3"`
	Direccion string `json:"direccion"`
	Email     string `json:"email"      validate:"omitempty,email"`
}

// CrearVentaRequest bills a subset of an order's items. An empty items list
// means "everything still unpaid" (full close).
type CrearVentaRequest struct {
	PedidoID    string          `json:"pedido_id"    validate:"required,uuid"`
	Tipo        string          `json:"tipo"         validate:"required,oneof=TICKET BOLETA FACTURA"`
	ItemIDs     []string        `json:"item_ids"     validate:"omitempty,dive,uuid"`
	MetodoPago  string          `json:"metodo_pago"  validate:"required,oneof=EFECTIVO TARJETA YAPE PLIN TRANSFERENCIA"`
	MontoPagado decimal.Decimal `json:"monto_pagado"` // required for EFECTIVO
	Cliente     *ClienteRequest `json:"cliente"      validate:"omitempty"`
}

type VentaItemResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Total          decimal.Decimal `json:"total"`
}

type VentaResponse struct {
	ID                string              `json:"id"`
	Tipo              string              `json:"tipo"`
	NumeroComprobante string              `json:"numero_comprobante"`
	FechaEmision      string              `json:"fecha_emision"`
	Cliente           string              `json:"cliente,omitempty"`
	MontoGravado      decimal.Decimal     `json:"monto_gravado"`
	IGV               decimal.Decimal     `json:"igv"`
	Total             decimal.Decimal     `json:"total"`
	MetodoPago        string              `json:"metodo_pago"`
	Vuelto            *decimal.Decimal    `json:"vuelto,omitempty"`
	PedidoCerrado     bool                `json:"pedido_cerrado"`
	Items             []VentaItemResponse `json:"items"`
	SunatEstado       string              `json:"sunat_estado"`
}
