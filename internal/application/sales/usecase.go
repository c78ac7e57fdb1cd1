package sales

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmaplus/pos-api/internal/application/dto"
	"github.com/farmaplus/pos-api/internal/application/inventory"
	"github.com/farmaplus/pos-api/internal/application/ports"
	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// UseCase crea y anula ventas. Toda la creación (cabecera, detalle, descuento
// de stock, movimientos del ledger) confirma atómicamente: cualquier falla
// revierte la venta completa, sin detalles parciales ni descuentos parciales.
type UseCase struct {
	txRunner ports.TxRunner
	ledger   *inventory.Ledger
	resolver *inventory.LotResolver
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner ports.TxRunner, ledger *inventory.Ledger, resolver *inventory.LotResolver) *UseCase {
	return &UseCase{txRunner: txRunner, ledger: ledger, resolver: resolver}
}

// CreateSale crea una venta con >= 1 líneas. Precondiciones: sesión de caja
// ABIERTA (ErrNoOpenSession) y stock suficiente por producto
// (InsufficientStockError con producto y disponible). La fila de cada producto
// se bloquea (SELECT FOR UPDATE) antes del chequeo para que ventas
// concurrentes del mismo producto serialicen y no se sobrevenda.
func (uc *UseCase) CreateSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if userID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, line := range in.Lines {
		if line.ProductID == "" || line.Quantity <= 0 || line.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	now := time.Now()
	saleID := uuid.New().String()
	var resp *dto.SaleResponse

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		// La precondición de caja se verifica dentro de la transacción y con
		// la fila de la sesión bloqueada: el cierre también la bloquea, así
		// que una venta en vuelo y el cierre serializan y ninguna venta
		// EMITIDA queda fuera del balance de cierre.
		session, err := r.Sessions.GetOpenForUpdate(ctx)
		if err != nil {
			return err
		}
		if session == nil {
			return domain.ErrNoOpenSession
		}

		seq := inventory.NewStoreSequencer(r.LotSeq)
		total := decimal.Zero
		details := make([]*entity.SaleDetail, 0, len(in.Lines))
		movements := make([]*entity.InventoryMovement, 0, len(in.Lines))
		// Acumulado solicitado por producto: los descuentos del ledger corren
		// recién después del loop, así que el chequeo de stock debe contar las
		// líneas previas de la misma venta para el mismo producto.
		requested := map[string]int64{}

		for _, line := range in.Lines {
			product, err := r.Products.GetByIDForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			requested[product.ID] += line.Quantity
			if product.Stock < requested[product.ID] {
				return &domain.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   requested[product.ID],
					Available:   product.Stock,
				}
			}

			unitPrice := line.UnitPrice
			if unitPrice.IsZero() {
				unitPrice = product.Price
			}
			subtotal := unitPrice.Mul(decimal.NewFromInt(line.Quantity))
			total = total.Add(subtotal)
			details = append(details, &entity.SaleDetail{
				ID:        uuid.New().String(),
				SaleID:    saleID,
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: unitPrice,
				Subtotal:  subtotal,
			})

			m := &entity.InventoryMovement{
				ProductID: product.ID,
				Date:      now,
				Type:      entity.MovementVenta,
				Quantity:  line.Quantity,
				SaleID:    &saleID,
				CreatedBy: userID,
			}
			if lot := strings.TrimSpace(line.LotNumber); lot != "" {
				m.LotNumber = &lot
			}
			if line.ExpirationDate != nil {
				exp := *line.ExpirationDate
				m.ExpirationDate = &exp
			}
			if err := uc.resolver.ResolveIssue(ctx, r.Movements, product, m, seq); err != nil {
				return err
			}
			movements = append(movements, m)
		}

		sale := &entity.Sale{
			ID:            saleID,
			CustomerID:    in.CustomerID,
			UserID:        userID,
			CashSessionID: session.ID,
			Status:        entity.SaleEmitida,
			Total:         total,
			Date:          now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.Sales.Create(ctx, sale); err != nil {
			return err
		}
		for _, d := range details {
			if err := r.Sales.CreateDetail(ctx, d); err != nil {
				return err
			}
		}
		// Un append del ledger por cada cambio de cantidad, en la misma tx.
		for _, m := range movements {
			if err := uc.ledger.Apply(ctx, r.Movements, r.Products, m); err != nil {
				return err
			}
		}

		resp = toSaleResponse(sale, details)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AnnulSale anula una venta EMITIDA registrando el motivo. No revierte los
// movimientos del ledger: la reposición física de stock es un movimiento
// explícito posterior si la política lo pide, nunca implícita. Asimetría
// deliberada del negocio (crear descuenta atómicamente; anular no repone).
func (uc *UseCase) AnnulSale(ctx context.Context, userID, saleID, reason string) (*entity.Sale, error) {
	if userID == "" || saleID == "" || strings.TrimSpace(reason) == "" {
		return nil, domain.ErrInvalidInput
	}
	var annulled *entity.Sale
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		sale, err := r.Sales.GetByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if !sale.CanAnnul() {
			return &domain.InvalidTransitionError{Entity: "venta", From: sale.Status, To: entity.SaleAnulada}
		}
		if err := r.Sales.UpdateStatus(ctx, saleID, entity.SaleAnulada, reason); err != nil {
			return err
		}
		sale.Status = entity.SaleAnulada
		sale.AnnulReason = reason
		annulled = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return annulled, nil
}

// GetSale devuelve una venta con su detalle.
func (uc *UseCase) GetSale(ctx context.Context, saleID string) (*dto.SaleResponse, error) {
	var resp *dto.SaleResponse
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		sale, err := r.Sales.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		details, err := r.Sales.ListDetails(ctx, saleID)
		if err != nil {
			return err
		}
		resp = toSaleResponse(sale, details)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func toSaleResponse(sale *entity.Sale, details []*entity.SaleDetail) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:            sale.ID,
		CustomerID:    sale.CustomerID,
		CashSessionID: sale.CashSessionID,
		Status:        sale.Status,
		Total:         sale.Total,
		Date:          sale.Date,
		Details:       make([]dto.SaleDetailResponse, 0, len(details)),
	}
	for _, d := range details {
		resp.Details = append(resp.Details, dto.SaleDetailResponse{
			ID:        d.ID,
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
		})
	}
	return resp
}
