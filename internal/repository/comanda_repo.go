package repository

import (
	"context"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComandaRepository interface {
	// SiguienteNumeroTx increments the per-area daily counter and returns the
	// new value. Upsert plus atomic increment under an advisory lock: two
	// kitchens never share a number, and each area restarts at 1 per day.
	SiguienteNumeroTx(tx *gorm.DB, area string, fecha time.Time) (int, error)
	CreatePrintLogTx(tx *gorm.DB, p *model.PrintLog) error
	CreatePrintLog(ctx context.Context, p *model.PrintLog) error
	FindPrintLogByID(ctx context.Context, id uuid.UUID) (*model.PrintLog, error)
	UpdatePrintLog(ctx context.Context, p *model.PrintLog) error
	ListPendingRetries(ctx context.Context, ahora time.Time, limit int) ([]model.PrintLog, error)
	DB() *gorm.DB
}

type comandaRepo struct{ db *gorm.DB }

func NewComandaRepository(db *gorm.DB) ComandaRepository { return &comandaRepo{db: db} }

func (r *comandaRepo) DB() *gorm.DB { return r.db }

func (r *comandaRepo) SiguienteNumeroTx(tx *gorm.DB, area string, fecha time.Time) (int, error) {
	key := "comanda_numero:" + area + ":" + fecha.Format("2006-01-02")
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return 0, err
	}
	var contador model.ContadorComanda
	err := tx.Where("area = ? AND fecha = ?", area, fecha).First(&contador).Error
	if err == gorm.ErrRecordNotFound {
		contador = model.ContadorComanda{Area: area, Fecha: fecha, Ultimo: 1}
		if err := tx.Create(&contador).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	contador.Ultimo++
	if err := tx.Model(&contador).Update("ultimo", contador.Ultimo).Error; err != nil {
		return 0, err
	}
	return contador.Ultimo, nil
}

func (r *comandaRepo) CreatePrintLogTx(tx *gorm.DB, p *model.PrintLog) error {
	return tx.Create(p).Error
}

func (r *comandaRepo) CreatePrintLog(ctx context.Context, p *model.PrintLog) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *comandaRepo) FindPrintLogByID(ctx context.Context, id uuid.UUID) (*model.PrintLog, error) {
	var p model.PrintLog
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *comandaRepo) UpdatePrintLog(ctx context.Context, p *model.PrintLog) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *comandaRepo) ListPendingRetries(ctx context.Context, ahora time.Time, limit int) ([]model.PrintLog, error) {
	var logs []model.PrintLog
	err := r.db.WithContext(ctx).
		Where("estado = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.PrintError, ahora).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
