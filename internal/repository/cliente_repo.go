package repository

import (
	"errors"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"gorm.io/gorm"
)

type ClienteRepository interface {
	// UpsertTx finds a buyer by document number or creates it, refreshing
	// name/address/email when they changed. Runs inside the sale transaction.
	UpsertTx(tx *gorm.DB, c *model.Cliente) (*model.Cliente, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) UpsertTx(tx *gorm.DB, c *model.Cliente) (*model.Cliente, error) {
	var existing model.Cliente
	err := tx.Where("doc_numero = ?", c.DocNumero).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := tx.Create(c).Error; err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	updates := map[string]any{"nombre": c.Nombre}
	if c.Direccion != "" {
		updates["direccion"] = c.Direccion
	}
	if c.Email != "" {
		updates["email"] = c.Email
	}
	if err := tx.Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}
