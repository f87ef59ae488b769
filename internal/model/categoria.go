package model

import (
	"time"

	"github.com/google/uuid"
)

// Categoria groups products and links them to the floors that prepare them.
// The floor links drive comanda routing: an item whose category spans floors
// with different print areas is printed in every one of those areas.
type Categoria struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"uniqueIndex;not null"`
	Slug      string    `gorm:"uniqueIndex;not null"`
	Activo    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Pisos []Piso `gorm:"many2many:categoria_pisos;"`
}

// TableName overrides GORM's default singular → plural logic for Spanish names.
func (Categoria) TableName() string { return "categorias" }
