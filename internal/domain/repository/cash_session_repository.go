package repository

import (
	"context"

	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// CashSessionRepository puerto de persistencia de sesiones de caja.
type CashSessionRepository interface {
	// Create inserta la sesión. La unicidad de sesión abierta la garantiza un
	// índice único parcial (status = 'ABIERTA'); la implementación mapea la
	// violación a domain.ErrSessionAlreadyOpen.
	Create(ctx context.Context, s *entity.CashSession) error
	// GetOpen devuelve la sesión ABIERTA, o (nil, nil) si no hay ninguna.
	GetOpen(ctx context.Context) (*entity.CashSession, error)
	// GetOpenForUpdate es GetOpen con la fila bloqueada (SELECT ... FOR
	// UPDATE): las ventas la usan para serializar contra el cierre de caja.
	GetOpenForUpdate(ctx context.Context) (*entity.CashSession, error)
	GetByID(ctx context.Context, id string) (*entity.CashSession, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.CashSession, error)
	// Close persiste el cierre: balance final, usuario, timestamps y estado.
	Close(ctx context.Context, s *entity.CashSession) error
}
