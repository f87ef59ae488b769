package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SUNAT submission status values. Written back only by the e-invoicing
// collaborator; the sale is otherwise immutable once created.
const (
	SunatPendiente = "PENDIENTE"
	SunatAceptado  = "ACEPTADO"
	SunatRechazado = "RECHAZADO"
)

// Venta is the fiscal record of one (possibly partial) payment of a pedido.
// It is created only inside the billing transaction and never updated, except
// for the SUNAT status/PDF fields the submission pipeline writes back.
// (Serie, Correlativo) is unique per comprobante type; the correlativo is
// allocated under an advisory lock inside the same transaction.
type Venta struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	UsuarioID uuid.UUID  `gorm:"type:uuid;not null"` // cajero
	ClienteID *uuid.UUID `gorm:"type:uuid;index"`

	// Cabecera
	Tipo              TipoComprobante `gorm:"type:varchar(10);not null"`
	Serie             string          `gorm:"type:varchar(4);not null;uniqueIndex:idx_ventas_serie_correlativo"`
	Correlativo       int64           `gorm:"not null;uniqueIndex:idx_ventas_serie_correlativo"`
	NumeroComprobante string          `gorm:"type:varchar(15);not null"`
	FechaEmision      time.Time       `gorm:"not null"`
	TipoMoneda        string          `gorm:"type:varchar(3);not null;default:'PEN'"`

	// Emisor snapshot
	EmpresaRUC         string `gorm:"column:empresa_ruc;not null"`
	EmpresaRazonSocial string `gorm:"not null"`
	EmpresaDireccion   string `gorm:"not null"`

	// Cliente snapshot
	ClienteTipoDoc     string `gorm:"type:varchar(2);not null;default:'-'"`
	ClienteNumDoc      string `gorm:"not null;default:'-'"`
	ClienteRazonSocial string `gorm:"not null;default:'CLIENTE VARIOS'"`
	ClienteDireccion   string `gorm:"not null;default:'-'"`

	// Totales — prices are tax-inclusive; base and IGV are derived by
	// division and rounded to 2 decimals only at emission.
	MontoGravado     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IGV              decimal.Decimal `gorm:"column:igv;type:decimal(12,2);not null"`
	PrecioVentaTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Pago
	MetodoPago  string           `gorm:"type:varchar(20);not null"`
	MontoPagado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Vuelto      *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// ItemsSnapshot decouples the document from live pedido_items rows so
	// later catalog changes never alter historical documents.
	ItemsSnapshot []byte `gorm:"type:jsonb;not null"`
	// Metadata: mesa, orden, cajero, mozo — lets reconciliation regroup by
	// any of these dimensions.
	Metadata []byte `gorm:"type:jsonb"`

	// SUNAT pipeline write-back
	SunatEstado string  `gorm:"type:varchar(20);not null;default:'PENDIENTE'"`
	XMLFileName *string `gorm:"column:xml_file_name"`
	SunatError  *string
	PDFPath     *string `gorm:"column:pdf_path"`

	CreatedAt time.Time

	Pedido  *Pedido  `gorm:"foreignKey:PedidoID"`
	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
	Cliente *Cliente `gorm:"foreignKey:ClienteID"`
}

func (Venta) TableName() string { return "ventas" }

// VentaItemSnapshot is one line of the immutable item snapshot stored on the
// sale. ActivoAlCobro records whether the pedido item was still active when
// billed (audit flag).
type VentaItemSnapshot struct {
	ProductoID     string          `json:"productoId"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precioUnitario"`
	ValorUnitario  decimal.Decimal `json:"valorUnitario"`
	TotalItem      decimal.Decimal `json:"totalItem"`
	ActivoAlCobro  bool            `json:"activoAlCobro"`
}

// VentaMetadata is the typed context block stored on every sale.
type VentaMetadata struct {
	Mesa   string `json:"mesa"`
	Orden  int    `json:"orden"`
	Cajero string `json:"cajero"`
	Mozo   string `json:"mozo"`
}
