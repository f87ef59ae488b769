package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the authenticated caller, extracted from JWT claims by the
// handlers. PisoIDs carries the floors the user may operate on;
// administrators bypass the floor check.
type Actor struct {
	ID       uuid.UUID
	Username string
	Nombre   string
	Rol      string
	PisoIDs  []uuid.UUID
}

// PuedeOperarPiso reports whether the actor may touch resources on a floor.
func (a Actor) PuedeOperarPiso(pisoID uuid.UUID) bool {
	if a.Rol == "administrador" {
		return true
	}
	for _, id := range a.PisoIDs {
		if id == pisoID {
			return true
		}
	}
	return false
}

// JobDispatcher is the slice of the async dispatcher the services need.
// Satisfied by *worker.Dispatcher; tests substitute a recorder.
type JobDispatcher interface {
	EnqueueImpresion(ctx context.Context, payload interface{}) error
	EnqueueSunat(ctx context.Context, payload interface{}) error
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// hoy returns today's date truncated to midnight local time. All daily
// counters and the caja session key on this value.
func hoy() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
