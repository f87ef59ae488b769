package model

import (
	"time"

	"github.com/google/uuid"
)

// Print areas a floor routes its comandas to.
const (
	AreaCocina = "cocina"
	AreaBarra  = "barra"
)

// Piso represents one physical level of the restaurant. Floors are created by
// admin tooling; this core only reads them. The Area field decides which
// printer receives the comandas of the categories linked to this floor.
type Piso struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre string    `gorm:"not null"`
	Nivel  int       `gorm:"not null"`
	// Area: "cocina" | "barra"
	Area      string `gorm:"type:varchar(20);not null;default:'cocina'"`
	Activo    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Piso) TableName() string { return "pisos" }
