package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/ledger"
	"github.com/rtavares/movelaria-backend/internal/stock"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the order lifecycle after finalization: listing, converting
// held reservations into physical movements, and closing out consignments.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	RegisterMovement(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	SettleConsignment(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ReturnConsignment(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ExpireOverdueConsignments(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo   *Repository
	ledger *ledger.Repository
	tx     txRunner
}

// NewService constructs an orders service instance.
func NewService(repo *Repository, ledgerRepo *ledger.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, ledger: ledgerRepo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, err
	}
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i], nil))
	}
	return &ListResult{Items: items, NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.repo.Reservations(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order, reservations), nil
}

// RegisterMovement converts the order's held reservations into physical
// outbound movements. Only reserve_only orders have anything to register; a
// movement_now order already moved stock at finalize time.
func (s *service) RegisterMovement(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, terr := repo.Find(ctx, orderID)
		if terr != nil {
			return terr
		}
		if order.CommitmentMode != enums.CommitmentReserveOnly {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order registered its movement at finalize time")
		}

		consumed, terr := stock.ConsumeReservations(ctx, tx, order.ID, itemIDs(order))
		if terr != nil {
			return terr
		}
		if len(consumed) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no active reservations to register")
		}

		if order.Status == enums.OrderStatusReserved {
			return repo.TransitionStatus(ctx, order.ID,
				[]enums.OrderStatus{enums.OrderStatusReserved}, enums.OrderStatusConfirmed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// SettleConsignment closes a consignment the customer decided to keep. Any
// reservations still held are consumed, and the sale is recognized in the
// ledger.
func (s *service) SettleConsignment(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, terr := repo.Find(ctx, orderID)
		if terr != nil {
			return terr
		}
		if !order.Consignment {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a consignment")
		}
		terr = repo.TransitionStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusConsignmentOpen, enums.OrderStatusConsignmentExpired},
			enums.OrderStatusConsignmentSettled)
		if terr != nil {
			return terr
		}
		if _, terr = stock.ConsumeReservations(ctx, tx, order.ID, itemIDs(order)); terr != nil {
			return terr
		}
		return s.ledger.WithTx(tx).Create(ctx, &models.LedgerEntry{
			Kind:       enums.LedgerConsignmentSettled,
			OrderID:    order.ID,
			Amount:     order.Total,
			OccurredAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// ReturnConsignment closes a consignment whose goods came back. Held
// reservations are released, shipped quantities return to stock, and a
// reversal entry cancels the provisional one in the ledger.
func (s *service) ReturnConsignment(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, terr := repo.Find(ctx, orderID)
		if terr != nil {
			return terr
		}
		if !order.Consignment {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a consignment")
		}
		terr = repo.TransitionStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusConsignmentOpen, enums.OrderStatusConsignmentExpired},
			enums.OrderStatusConsignmentReturned)
		if terr != nil {
			return terr
		}
		if terr = stock.ReleaseReservations(ctx, tx, itemIDs(order)); terr != nil {
			return terr
		}

		returns, terr := shippedQuantities(ctx, repo, order.ID)
		if terr != nil {
			return terr
		}
		if len(returns) > 0 {
			if terr = stock.Restock(ctx, tx, order.ID, returns); terr != nil {
				return terr
			}
		}
		return s.ledger.WithTx(tx).Create(ctx, &models.LedgerEntry{
			Kind:       enums.LedgerReversal,
			OrderID:    order.ID,
			Amount:     order.Total.Neg(),
			OccurredAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// ExpireOverdueConsignments flags open consignments past their response
// deadline. Stock stays untouched; an expired consignment is settled or
// returned through the regular endpoints once the follow-up happens.
func (s *service) ExpireOverdueConsignments(ctx context.Context, now time.Time) (int, error) {
	open, err := s.repo.ListOpenConsignments(ctx)
	if err != nil {
		return 0, err
	}
	expired := 0
	var errs []error
	for i := range open {
		deadline := open[i].ConsignmentDeadlineAt()
		if deadline == nil || deadline.After(now) {
			continue
		}
		err := s.repo.TransitionStatus(ctx, open[i].ID,
			[]enums.OrderStatus{enums.OrderStatusConsignmentOpen}, enums.OrderStatusConsignmentExpired)
		if err != nil {
			// Someone settled or returned the order mid-sweep: fine, move on.
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				continue
			}
			errs = append(errs, err)
			continue
		}
		expired++
	}
	return expired, multierr.Combine(errs...)
}

func itemIDs(order *models.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// shippedQuantities folds the order's outbound movements into per
// (variation, warehouse) return demands.
func shippedQuantities(ctx context.Context, repo *Repository, orderID uuid.UUID) ([]stock.Demand, error) {
	movements, err := repo.Movements(ctx, orderID)
	if err != nil {
		return nil, err
	}
	type key struct {
		variationID uuid.UUID
		warehouseID uuid.UUID
	}
	totals := map[key]int{}
	var order []key
	for _, movement := range movements {
		if movement.Kind != enums.MovementSale && movement.Kind != enums.MovementReservationPick {
			continue
		}
		k := key{variationID: movement.VariationID, warehouseID: movement.WarehouseID}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] += -movement.QuantityDelta
	}
	demands := make([]stock.Demand, 0, len(order))
	for _, k := range order {
		if totals[k] <= 0 {
			continue
		}
		warehouseID := k.warehouseID
		demands = append(demands, stock.Demand{
			VariationID: k.variationID,
			WarehouseID: &warehouseID,
			Quantity:    totals[k],
		})
	}
	return demands, nil
}
