package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto belongs to the catalog (edited by admin tooling). This core reads
// everything and writes only the stock counters it owns.
// StockDiario is the mise-en-place counter: how much of a prepared item
// remains sellable today. StockAlmacen is the warehouse counter.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CategoriaID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	Precio      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// TasaImpuesto: IGV rate already contained in Precio (tax-inclusive).
	TasaImpuesto decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0.18"`
	ManejaStock  bool            `gorm:"not null;default:false"`
	StockDiario  int             `gorm:"not null;default:0"`
	StockAlmacen int             `gorm:"not null;default:0"`
	Activo       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Categoria *Categoria         `gorm:"foreignKey:CategoriaID"`
	Variantes []ProductoVariante `gorm:"foreignKey:ProductoID"`
}

func (Producto) TableName() string { return "productos" }

// ProductoVariante is a selectable option that surcharges the base price
// (e.g. "Cono: Waffle" +2.00). The surcharge is folded into the frozen
// PedidoItem price at add-time.
type ProductoVariante struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Nombre      string          `gorm:"not null"`
	PrecioExtra decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
}

func (ProductoVariante) TableName() string { return "producto_variantes" }
