package repository

import (
	"context"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MesaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Mesa, error)
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error
}

type mesaRepo struct{ db *gorm.DB }

func NewMesaRepository(db *gorm.DB) MesaRepository { return &mesaRepo{db: db} }

func (r *mesaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Mesa, error) {
	var m model.Mesa
	err := r.db.WithContext(ctx).Preload("Piso").First(&m, id).Error
	return &m, err
}

func (r *mesaRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	return r.db.WithContext(ctx).Model(&model.Mesa{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *mesaRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error {
	return tx.Model(&model.Mesa{}).Where("id = ?", id).Update("estado", estado).Error
}
