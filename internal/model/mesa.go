package model

import (
	"time"

	"github.com/google/uuid"
)

// Mesa status values. Only this core mutates them: a table becomes OCUPADA
// when an order opens it, PIDIENDO_CUENTA on a pre-account request, and LIBRE
// again on full payment or cancellation.
const (
	MesaLibre          = "LIBRE"
	MesaOcupada        = "OCUPADA"
	MesaPidiendoCuenta = "PIDIENDO_CUENTA"
)

// Mesa is one physical table on a floor. Created/edited by admin tooling;
// the order state machine owns the Estado field.
// Business rule (not a DB constraint): at most one non-cancelled, unpaid
// pedido exists per mesa at a time.
type Mesa struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PisoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Numero int       `gorm:"not null"`
	Nombre string    `gorm:"not null"`
	Estado string    `gorm:"type:varchar(20);not null;default:'LIBRE'"`

	Piso      *Piso `gorm:"foreignKey:PisoID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Mesa) TableName() string { return "mesas" }
