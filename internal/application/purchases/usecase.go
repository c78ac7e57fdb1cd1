package purchases

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

// UseCase crea órdenes de compra y maneja su máquina de estados.
type UseCase struct {
	txRunner ports.TxRunner
	ledger   *inventory.Ledger
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner ports.TxRunner, ledger *inventory.Ledger) *UseCase {
	return &UseCase{txRunner: txRunner, ledger: ledger}
}

// mergedLine acumulador del merge de líneas duplicadas.
type mergedLine struct {
	productID      string
	quantity       int64
	costSum        decimal.Decimal
	occurrences    int64
	lotNumber      string
	expirationDate *time.Time
}

// MergeLines fusiona líneas del mismo producto: cantidades sumadas, costo
// unitario promediado aritméticamente entre ocurrencias (no ponderado por
// cantidad — política definida que se preserva tal cual). Conserva el orden de
// primera aparición; lote y vencimiento toman el primer valor no vacío.
func MergeLines(lines []dto.PurchaseLineRequest) []dto.PurchaseLineRequest {
	var order []string
	byProduct := map[string]*mergedLine{}
	for _, line := range lines {
		m, ok := byProduct[line.ProductID]
		if !ok {
			m = &mergedLine{productID: line.ProductID, costSum: decimal.Zero}
			byProduct[line.ProductID] = m
			order = append(order, line.ProductID)
		}
		m.quantity += line.Quantity
		m.costSum = m.costSum.Add(line.UnitCost)
		m.occurrences++
		if m.lotNumber == "" {
			m.lotNumber = strings.TrimSpace(line.LotNumber)
		}
		if m.expirationDate == nil && line.ExpirationDate != nil {
			exp := *line.ExpirationDate
			m.expirationDate = &exp
		}
	}

	out := make([]dto.PurchaseLineRequest, 0, len(order))
	for _, productID := range order {
		m := byProduct[productID]
		out = append(out, dto.PurchaseLineRequest{
			ProductID:      m.productID,
			Quantity:       m.quantity,
			UnitCost:       m.costSum.Div(decimal.NewFromInt(m.occurrences)),
			LotNumber:      m.lotNumber,
			ExpirationDate: m.expirationDate,
		})
	}
	return out
}

// CreateOrder crea una orden de compra en estado CREADO con las líneas ya
// fusionadas y el total recalculado tras el merge. No toca el ledger: el stock
// entra al recibir la orden (ver Transition).
func (uc *UseCase) CreateOrder(ctx context.Context, userID string, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if userID == "" || in.SupplierID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, line := range in.Lines {
		if line.ProductID == "" || line.Quantity <= 0 || line.UnitCost.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	merged := MergeLines(in.Lines)
	now := time.Now()
	orderID := uuid.New().String()
	var resp *dto.PurchaseOrderResponse

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		total := decimal.Zero
		details := make([]*entity.PurchaseOrderDetail, 0, len(merged))
		for _, line := range merged {
			product, err := r.Products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			subtotal := line.UnitCost.Mul(decimal.NewFromInt(line.Quantity))
			total = total.Add(subtotal)
			details = append(details, &entity.PurchaseOrderDetail{
				ID:              uuid.New().String(),
				PurchaseOrderID: orderID,
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				UnitCost:        line.UnitCost,
				Subtotal:        subtotal,
				LotNumber:       line.LotNumber,
				ExpirationDate:  line.ExpirationDate,
			})
		}

		order := &entity.PurchaseOrder{
			ID:         orderID,
			SupplierID: in.SupplierID,
			UserID:     userID,
			Status:     entity.PurchaseCreado,
			Total:      total,
			Date:       now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := r.Purchases.Create(ctx, order); err != nil {
			return err
		}
		for _, d := range details {
			if err := r.Purchases.CreateDetail(ctx, d); err != nil {
				return err
			}
		}
		resp = toOrderResponse(order, details)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Transition mueve la orden a un nuevo estado según la tabla de transiciones;
// cualquier movimiento fuera de tabla falla con InvalidTransitionError. Al
// pasar a RECIBIDO se agrega un movimiento COMPRA (+1) por línea y se
// incrementa el stock, en la misma transacción: el ledger recibe un append por
// cada cambio de cantidad.
func (uc *UseCase) Transition(ctx context.Context, userID, orderID, newStatus string) error {
	if userID == "" || orderID == "" || newStatus == "" {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.Run(ctx, func(r ports.Repos) error {
		order, err := r.Purchases.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransitionPurchase(order.Status, newStatus) {
			return &domain.InvalidTransitionError{Entity: "orden de compra", From: order.Status, To: newStatus}
		}
		if err := r.Purchases.UpdateStatus(ctx, orderID, newStatus); err != nil {
			return err
		}
		if newStatus != entity.PurchaseRecibido {
			return nil
		}

		details, err := r.Purchases.ListDetails(ctx, orderID)
		if err != nil {
			return err
		}
		seq := inventory.NewStoreSequencer(r.LotSeq)
		now := time.Now()
		for _, d := range details {
			if _, err := r.Products.GetByIDForUpdate(ctx, d.ProductID); err != nil {
				return err
			}
			m := &entity.InventoryMovement{
				ProductID:       d.ProductID,
				Date:            now,
				Type:            entity.MovementCompra,
				Quantity:        d.Quantity,
				PurchaseOrderID: &orderID,
				CreatedBy:       userID,
			}
			if d.LotNumber != "" {
				lot := d.LotNumber
				m.LotNumber = &lot
			} else {
				lot, err := seq.NextLot(ctx)
				if err != nil {
					return err
				}
				m.LotNumber = &lot
			}
			if d.ExpirationDate != nil {
				exp := *d.ExpirationDate
				m.ExpirationDate = &exp
			}
			if err := uc.ledger.Apply(ctx, r.Movements, r.Products, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetOrder devuelve una orden con su detalle.
func (uc *UseCase) GetOrder(ctx context.Context, orderID string) (*dto.PurchaseOrderResponse, error) {
	var resp *dto.PurchaseOrderResponse
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		order, err := r.Purchases.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		details, err := r.Purchases.ListDetails(ctx, orderID)
		if err != nil {
			return err
		}
		resp = toOrderResponse(order, details)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func toOrderResponse(order *entity.PurchaseOrder, details []*entity.PurchaseOrderDetail) *dto.PurchaseOrderResponse {
	resp := &dto.PurchaseOrderResponse{
		ID:         order.ID,
		SupplierID: order.SupplierID,
		Status:     order.Status,
		Total:      order.Total,
		Date:       order.Date,
		Details:    make([]dto.PurchaseDetailResponse, 0, len(details)),
	}
	for _, d := range details {
		resp.Details = append(resp.Details, dto.PurchaseDetailResponse{
			ID:        d.ID,
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitCost:  d.UnitCost,
			Subtotal:  d.Subtotal,
		})
	}
	return resp
}
