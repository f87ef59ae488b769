package model

import (
	"time"

	"github.com/google/uuid"
)

// Usuario stores system users. Credentials and session issuance live in the
// identity service; this core keeps the record for name snapshots (cajero /
// mozo on comprobantes) and floor assignment.
// Rol: "mozo" | "cajero" | "administrador"
type Usuario struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username  string    `gorm:"uniqueIndex;not null"`
	Nombre    string    `gorm:"not null"`
	Rol       string    `gorm:"type:varchar(20);not null"`
	Activo    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Pisos the user may operate on; enforced by the services, mirrored in
	// the JWT claims issued by the identity service.
	Pisos []Piso `gorm:"many2many:usuario_pisos;"`
}

func (Usuario) TableName() string { return "usuarios" }
