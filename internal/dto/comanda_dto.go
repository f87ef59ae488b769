package dto

import "github.com/shopspring/decimal"

// ComandaItem is one line on a kitchen or bar ticket.
type ComandaItem struct {
	Producto  string `json:"producto"`
	Cantidad  int    `json:"cantidad"`
	Notas     string `json:"notas,omitempty"`
	Variantes string `json:"variantes,omitempty"`
}

// ComandaTicket is the payload sent to one print area. Each area gets its
// own ticket with its own daily number and only its own items.
type ComandaTicket struct {
	Area         string        `json:"area"` // cocina | barra
	Numero       int           `json:"numero"`
	NumeroPedido int           `json:"numero_pedido"`
	Mesa         string        `json:"mesa"`
	Piso         string        `json:"piso"`
	Mozo         string        `json:"mozo"`
	Items        []ComandaItem `json:"items"`
	Fecha        string        `json:"fecha"`
}

// TicketVenta is the receipt payload sent to the cashier printer.
type TicketVenta struct {
	NumeroComprobante string          `json:"numero_comprobante"`
	Tipo              string          `json:"tipo"`
	Mesa              string          `json:"mesa"`
	Cajero            string          `json:"cajero"`
	Cliente           string          `json:"cliente,omitempty"`
	Items             []ComandaItem   `json:"items"`
	MontoGravado      decimal.Decimal `json:"monto_gravado"`
	IGV               decimal.Decimal `json:"igv"`
	Total             decimal.Decimal `json:"total"`
	MetodoPago        string          `json:"metodo_pago"`
	Vuelto            string          `json:"vuelto,omitempty"`
	Fecha             string          `json:"fecha"`
}

type ReintentarImpresionResponse struct {
	ID       string `json:"id"`
	Estado   string `json:"estado"`
	Intentos int    `json:"intentos"`
}
