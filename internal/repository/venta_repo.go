package repository

import (
	"context"
	"errors"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	CreateTx(tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// NextCorrelativoTx allocates the next sequential number for a serie.
	// Runs inside the sale transaction under an advisory lock so two cashiers
	// closing sales at once never draw the same correlativo.
	NextCorrelativoTx(tx *gorm.DB, serie string) (int, error)
	// ExisteVentaPedido reports whether any sale was already emitted against
	// the order. Full-payment billing requires a clean order.
	ExisteVentaPedido(ctx context.Context, pedidoID uuid.UUID) (bool, error)
	UpdateSunat(ctx context.Context, id uuid.UUID, estado, xmlFileName string, sunatError *string) error
	UpdatePDFPath(ctx context.Context, id uuid.UUID, path string) error
	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Cliente").First(&v, id).Error
	return &v, err
}

func (r *ventaRepo) NextCorrelativoTx(tx *gorm.DB, serie string) (int, error) {
	key := "venta_correlativo:" + serie
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return 0, err
	}
	var max int
	err := tx.Model(&model.Venta{}).
		Where("serie = ?", serie).
		Select("COALESCE(MAX(correlativo), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *ventaRepo) ExisteVentaPedido(ctx context.Context, pedidoID uuid.UUID) (bool, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Where("pedido_id = ?", pedidoID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ventaRepo) UpdateSunat(ctx context.Context, id uuid.UUID, estado, xmlFileName string, sunatError *string) error {
	updates := map[string]any{
		"sunat_estado":  estado,
		"xml_file_name": xmlFileName,
		"sunat_error":   sunatError,
	}
	return r.db.WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ventaRepo) UpdatePDFPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).Update("pdf_path", path).Error
}
