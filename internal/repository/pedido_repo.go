package repository

import (
	"context"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PedidoRepository interface {
	CreateTx(tx *gorm.DB, p *model.Pedido) error
	CreateItemTx(tx *gorm.DB, item *model.PedidoItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error
	// NextNumeroDiarioTx allocates the per-floor daily sequence. Must run
	// inside the creation transaction: it serializes concurrent openings on
	// the same floor with an advisory lock before reading MAX+1.
	NextNumeroDiarioTx(tx *gorm.DB, pisoID uuid.UUID, fecha time.Time) (int, error)
	// SetVentaIDTx links paid items to their sale. Guarded: rows whose
	// venta_id is already set are never touched (payment is final). Returns
	// the number of rows actually linked so the caller can detect a
	// concurrent sale that grabbed the same items first.
	SetVentaIDTx(tx *gorm.DB, itemIDs []uuid.UUID, ventaID uuid.UUID) (int64, error)
	// CountItemsSinPagarTx counts the order's active unpaid items as seen by
	// the current transaction.
	CountItemsSinPagarTx(tx *gorm.DB, pedidoID uuid.UUID) (int64, error)
	CreateAnulacionTx(tx *gorm.DB, a *model.Anulacion) error
	ListPendientes(ctx context.Context, pisoIDs []uuid.UUID) ([]model.Pedido, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Pedido, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) DB() *gorm.DB { return r.db }

func (r *pedidoRepo) CreateTx(tx *gorm.DB, p *model.Pedido) error {
	return tx.Create(p).Error
}

func (r *pedidoRepo) CreateItemTx(tx *gorm.DB, item *model.PedidoItem) error {
	return tx.Create(item).Error
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Items.Producto.Categoria.Pisos").
		Preload("Items.Producto.Variantes").
		Preload("Mesa.Piso").
		Preload("Usuario").
		First(&p, id).Error
	return &p, err
}

func (r *pedidoRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error {
	return tx.Model(&model.Pedido{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *pedidoRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	return r.db.WithContext(ctx).Model(&model.Pedido{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *pedidoRepo) NextNumeroDiarioTx(tx *gorm.DB, pisoID uuid.UUID, fecha time.Time) (int, error) {
	// The find-max-then-increment pattern races under concurrency; the
	// advisory xact lock serializes writers on the same (piso, día) key for
	// the remainder of the transaction.
	key := "pedido_numero:" + pisoID.String() + ":" + fecha.Format("2006-01-02")
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return 0, err
	}
	var max int
	err := tx.Model(&model.Pedido{}).
		Where("piso_id = ? AND fecha = ?", pisoID, fecha).
		Select("COALESCE(MAX(numero_diario), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *pedidoRepo) SetVentaIDTx(tx *gorm.DB, itemIDs []uuid.UUID, ventaID uuid.UUID) (int64, error) {
	res := tx.Model(&model.PedidoItem{}).
		Where("id IN ? AND venta_id IS NULL", itemIDs).
		Update("venta_id", ventaID)
	return res.RowsAffected, res.Error
}

func (r *pedidoRepo) CountItemsSinPagarTx(tx *gorm.DB, pedidoID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&model.PedidoItem{}).
		Where("pedido_id = ? AND activo = TRUE AND venta_id IS NULL", pedidoID).
		Count(&n).Error
	return n, err
}

func (r *pedidoRepo) CreateAnulacionTx(tx *gorm.DB, a *model.Anulacion) error {
	return tx.Create(a).Error
}

// ListPendientes returns the kitchen/bar view: orders not yet delivered on
// the caller's floors, oldest first (FIFO).
func (r *pedidoRepo) ListPendientes(ctx context.Context, pisoIDs []uuid.UUID) ([]model.Pedido, error) {
	var pedidos []model.Pedido
	err := r.db.WithContext(ctx).
		Where("estado IN ?", []string{model.PedidoPendiente, model.PedidoPreparado}).
		Where("piso_id IN ?", pisoIDs).
		Preload("Items.Producto").
		Preload("Mesa").
		Preload("Usuario").
		Order("created_at ASC").
		Find(&pedidos).Error
	return pedidos, err
}

func (r *pedidoRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Pedido, error) {
	var pedidos []model.Pedido
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Preload("Items").
		Preload("Mesa").
		Order("created_at DESC").
		Find(&pedidos).Error
	return pedidos, err
}
