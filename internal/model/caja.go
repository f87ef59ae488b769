package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CajaDiaria status values.
const (
	CajaAbierta = "ABIERTA"
	CajaCerrada = "CERRADA"
)

// Movement direction.
const (
	MovIngreso = "INGRESO"
	MovEgreso  = "EGRESO"
)

// Movement categories. Each movement carries exactly one; reconciliation
// matches on this column instead of probing a metadata bag.
//
//	apertura:  opening-float entry — excluded from the system-money replay
//	venta:     automatic posting of a comprobante
//	manual:    cashier-entered ingreso/egreso
//	anulacion: reversing entry for a cancelled order — excluded from the
//	           replay and reported as a separate statistic
const (
	CatApertura  = "apertura"
	CatVenta     = "venta"
	CatManual    = "manual"
	CatAnulacion = "anulacion"
)

// CajaDiaria is one cash register session. Exactly one may be ABIERTA per
// calendar day (enforced at open time). Closing freezes MontoSistema and
// Diferencia against the physically counted MontoFinal.
type CajaDiaria struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	Fecha        time.Time       `gorm:"type:date;not null;index"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MontoFinal is the physically counted amount supplied at close.
	MontoFinal   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MontoSistema *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Diferencia   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado       string           `gorm:"type:varchar(20);not null;default:'ABIERTA'"`
	OpenedAt     time.Time
	ClosedAt     *time.Time

	Usuario     *Usuario         `gorm:"foreignKey:UsuarioID"`
	Movimientos []MovimientoCaja `gorm:"foreignKey:CajaID"`
}

func (CajaDiaria) TableName() string { return "cajas_diarias" }

// MovimientoCaja is an immutable event in the cash ledger. Movements are
// NEVER modified or deleted — cancellations create tagged reversing entries.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(10);not null"` // INGRESO | EGRESO
	Categoria    string          `gorm:"type:varchar(20);not null;index"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string          `gorm:"not null"`
	EsAutomatico bool            `gorm:"not null;default:false"`
	// Detalle holds the typed per-category payload (see Detalle* structs).
	Detalle   []byte `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

// DetalleVenta is the Detalle payload of a categoria=venta movement. Rich
// enough for reconciliation to regroup by sale, order, table, method, cashier
// or waiter without extra joins.
type DetalleVenta struct {
	VentaID           string `json:"ventaId"`
	PedidoID          string `json:"pedidoId"`
	NumeroComprobante string `json:"numeroComprobante"`
	TipoComprobante   string `json:"tipoComprobante"`
	Mesa              string `json:"mesa"`
	MetodoPago        string `json:"metodoPago"`
	Cajero            string `json:"cajero"`
	Mozo              string `json:"mozo"`
}

// DetalleManual is the Detalle payload of a categoria=manual movement.
type DetalleManual struct {
	RegistradoPor string `json:"registradoPor"`
	Username      string `json:"username"`
}

// DetalleAnulacion is the Detalle payload of a categoria=anulacion movement.
type DetalleAnulacion struct {
	PedidoID      string          `json:"pedidoId"`
	NumeroPedido  int             `json:"numeroPedido"`
	Mesa          string          `json:"mesa"`
	Motivo        string          `json:"motivo"`
	AutorizadoPor string          `json:"autorizadoPor"`
	CantidadItems int             `json:"cantidadItems"`
	TotalPedido   decimal.Decimal `json:"totalPedido"`
}
