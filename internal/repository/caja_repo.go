package repository

import (
	"context"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CajaRepository interface {
	CreateCaja(ctx context.Context, c *model.CajaDiaria) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CajaDiaria, error)
	// FindAbiertaHoy returns the open session for the given day, or
	// gorm.ErrRecordNotFound when none exists.
	FindAbiertaHoy(ctx context.Context, fecha time.Time) (*model.CajaDiaria, error)
	UpdateCaja(ctx context.Context, c *model.CajaDiaria) error
	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error)
	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) CreateCaja(ctx context.Context, c *model.CajaDiaria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CajaDiaria, error) {
	var c model.CajaDiaria
	err := r.db.WithContext(ctx).
		Preload("Movimientos", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Usuario").
		First(&c, id).Error
	return &c, err
}

func (r *cajaRepo) FindAbiertaHoy(ctx context.Context, fecha time.Time) (*model.CajaDiaria, error) {
	var c model.CajaDiaria
	err := r.db.WithContext(ctx).
		Where("fecha = ? AND estado = ?", fecha, model.CajaAbierta).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) UpdateCaja(ctx context.Context, c *model.CajaDiaria) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cajaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error {
	return tx.Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).
		Where("caja_id = ?", cajaID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}
