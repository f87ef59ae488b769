package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a buyer record, upserted by doc number when a boleta or factura
// is emitted. The sale itself keeps its own buyer snapshot — later edits to
// this record never alter historical documents.
type Cliente struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// DocTipo: "1" (DNI) | "6" (RUC)
	DocTipo   string `gorm:"type:varchar(2);not null"`
	DocNumero string `gorm:"uniqueIndex;not null"`
	Nombre    string `gorm:"not null"`
	Direccion string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }
