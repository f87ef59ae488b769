package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pedido status values. ENTREGADO and CANCELADO are terminal.
const (
	PedidoPendiente = "PENDIENTE"
	PedidoPreparado = "PREPARADO"
	PedidoEntregado = "ENTREGADO"
	PedidoCancelado = "CANCELADO"
)

// Pedido is one table session's order. NumeroDiario restarts at 1 per floor
// per day; it is allocated inside the creation transaction under an advisory
// lock so concurrent openings on the same floor never collide.
// PisoID is denormalized from the mesa so the daily counter query does not
// need a join.
type Pedido struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MesaID    uuid.UUID `gorm:"type:uuid;not null;index"`
	PisoID    uuid.UUID `gorm:"type:uuid;not null;index:idx_pedidos_piso_fecha"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	// NumeroDiario + Fecha form the per-floor daily sequence.
	NumeroDiario int       `gorm:"not null"`
	Fecha        time.Time `gorm:"type:date;not null;index:idx_pedidos_piso_fecha"`
	Estado       string    `gorm:"type:varchar(20);not null;default:'PENDIENTE'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Mesa    *Mesa        `gorm:"foreignKey:MesaID"`
	Usuario *Usuario     `gorm:"foreignKey:UsuarioID"`
	Items   []PedidoItem `gorm:"foreignKey:PedidoID"`
}

func (Pedido) TableName() string { return "pedidos" }

// PedidoItem is one line of a pedido. Precio is frozen at add-time (base
// product price plus selected variant surcharges) so later catalog edits
// never alter an open bill. VentaID marks which comprobante paid the line;
// once set it is never cleared or reassigned.
// Activo=false soft-deactivates the line without deleting financial history.
type PedidoItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Cantidad   int             `gorm:"not null"`
	Precio     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Notas      *string
	// VariantesDetalle: "Sabor: Fresa, Cono: Waffle"
	VariantesDetalle *string
	Activo           bool       `gorm:"not null;default:true"`
	VentaID          *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt        time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (PedidoItem) TableName() string { return "pedido_items" }

// Anulacion is the audit record written when an order is cancelled with a
// valid authorization code. Immutable.
type Anulacion struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Motivo        string          `gorm:"not null"`
	AutorizadoPor uuid.UUID       `gorm:"type:uuid;not null"`
	TotalPedido   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time
}

func (Anulacion) TableName() string { return "anulaciones" }
