package model

import (
	"time"

	"github.com/google/uuid"
)

// ContadorComanda numbers each print area's tickets independently per day.
// Incremented with an upsert + atomic update; never reset manually.
type ContadorComanda struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Area   string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_contador_area_fecha"`
	Fecha  time.Time `gorm:"type:date;not null;uniqueIndex:idx_contador_area_fecha"`
	Ultimo int       `gorm:"not null;default:0"`
}

func (ContadorComanda) TableName() string { return "contadores_comanda" }

// Print log status values.
const (
	PrintPendiente = "PENDIENTE"
	PrintEnviado   = "ENVIADO"
	PrintError     = "ERROR"
)

// Print job kinds.
const (
	PrintComanda   = "comanda"
	PrintTicket    = "ticket"
	PrintPrecuenta = "precuenta"
)

// PrintLog is the durable outbox record for one print job. The payload is
// written in the same transaction as the triggering mutation; dispatch to the
// printer bridge happens after commit and may be retried — manually by id or
// by the retry cron — by re-sending the stored payload.
type PrintLog struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo string    `gorm:"type:varchar(20);not null"` // comanda | ticket | precuenta
	Area *string   `gorm:"type:varchar(20)"`          // nil for ticket/precuenta (caja printer)
	// Payload is the exact job sent to the bridge; retries re-send it as-is.
	Payload     []byte `gorm:"type:jsonb;not null"`
	Estado      string `gorm:"type:varchar(20);not null;default:'PENDIENTE'"`
	Intentos    int    `gorm:"not null;default:0"`
	LastError   *string
	NextRetryAt *time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PrintLog) TableName() string { return "print_logs" }
