package infra

import (
	"fmt"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the full schema, then applies the partial indexes GORM cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates or updates all tables. Shared with integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Piso{},
		&model.Mesa{},
		&model.Categoria{},
		&model.Producto{},
		&model.ProductoVariante{},
		&model.Usuario{},
		&model.Pedido{},
		&model.PedidoItem{},
		&model.Anulacion{},
		&model.Cliente{},
		&model.Venta{},
		&model.CajaDiaria{},
		&model.MovimientoCaja{},
		&model.MovimientoStock{},
		&model.ContadorComanda{},
		&model.PrintLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// one open register per day
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_caja_abierta_fecha') THEN
		    CREATE UNIQUE INDEX idx_caja_abierta_fecha
		        ON cajas_diarias (fecha)
		        WHERE estado = 'ABIERTA';
		  END IF;
		END $$`,
		// retry cron scan
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_print_logs_pending_retry') THEN
		    CREATE INDEX idx_print_logs_pending_retry
		        ON print_logs (next_retry_at)
		        WHERE estado = 'ERROR' AND next_retry_at IS NOT NULL;
		  END IF;
		END $$`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
