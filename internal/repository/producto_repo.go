package repository

import (
	"context"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	// DescontarStockDiarioTx decrements the mise-en-place counter inside the
	// order transaction. The conditional UPDATE makes the decrement safe
	// under concurrency: it only applies when enough stock remains.
	DescontarStockDiarioTx(tx *gorm.DB, id uuid.UUID, cantidad int) error
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Preload("Variantes").
		Preload("Categoria.Pisos").
		First(&p, id).Error
	return &p, err
}

func (r *productoRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := tx.First(&p, id).Error
	return &p, err
}

func (r *productoRepo) DescontarStockDiarioTx(tx *gorm.DB, id uuid.UUID, cantidad int) error {
	res := tx.Model(&model.Producto{}).
		Where("id = ? AND stock_diario >= ?", id, cantidad).
		Update("stock_diario", gorm.Expr("stock_diario - ?", cantidad))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
