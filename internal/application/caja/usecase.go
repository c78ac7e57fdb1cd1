package caja

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmaplus/pos-api/internal/application/ports"
	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// UseCase guardián de sesiones de caja: a lo sumo una ABIERTA a la vez en todo
// el sistema. El invariante lo sostiene un índice único parcial en la base de
// datos (no un chequeo leer-luego-escribir), así sobrevive aperturas
// concurrentes y múltiples instancias del servicio.
type UseCase struct {
	txRunner ports.TxRunner
	sessions repository.CashSessionRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner ports.TxRunner, sessions repository.CashSessionRepository) *UseCase {
	return &UseCase{txRunner: txRunner, sessions: sessions}
}

// Open abre una sesión de caja. Falla con ErrSessionAlreadyOpen si ya existe
// una ABIERTA (la violación del índice parcial la mapea el repositorio).
func (uc *UseCase) Open(ctx context.Context, userID string, openingBalance decimal.Decimal) (*entity.CashSession, error) {
	if userID == "" || openingBalance.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	session := &entity.CashSession{
		ID:             uuid.New().String(),
		OpenedBy:       userID,
		OpeningBalance: openingBalance,
		Status:         entity.CashSessionAbierta,
		OpenedAt:       time.Now(),
	}
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		return r.Sessions.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Close cierra la sesión: balance final = apertura + Σ totales de ventas
// EMITIDA registradas bajo la sesión. Falla con ErrSessionNotOpen si la
// sesión no existe o no está ABIERTA.
func (uc *UseCase) Close(ctx context.Context, sessionID, userID string) (*entity.CashSession, error) {
	if sessionID == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}
	var closed *entity.CashSession
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		session, err := r.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil || session.Status != entity.CashSessionAbierta {
			return domain.ErrSessionNotOpen
		}
		salesTotal, err := r.Sales.SumTotalsBySession(ctx, sessionID, entity.SaleEmitida)
		if err != nil {
			return err
		}
		now := time.Now()
		session.ClosingBalance = session.OpeningBalance.Add(salesTotal)
		session.ClosedBy = userID
		session.ClosedAt = &now
		session.Status = entity.CashSessionCerrada
		if err := r.Sessions.Close(ctx, session); err != nil {
			return err
		}
		closed = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// VerifyOpen es la sonda barata que usan las transacciones de comercio como
// precondición: devuelve la sesión ABIERTA o ErrNoOpenSession.
func (uc *UseCase) VerifyOpen(ctx context.Context) (*entity.CashSession, error) {
	session, err := uc.sessions.GetOpen(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNoOpenSession
	}
	return session, nil
}
