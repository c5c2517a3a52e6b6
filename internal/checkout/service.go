package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/cart"
	"github.com/rtavares/movelaria-backend/internal/consignment"
	"github.com/rtavares/movelaria-backend/internal/ledger"
	"github.com/rtavares/movelaria-backend/internal/orders"
	"github.com/rtavares/movelaria-backend/internal/parties"
	"github.com/rtavares/movelaria-backend/internal/stock"
	"github.com/rtavares/movelaria-backend/pkg/auth"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type idempotencyStore interface {
	ClaimIdempotencyKey(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, scope, id string) error
}

const idempotencyScope = "finalize"

// FinalizeInput is the finalization payload. RegisterMovement selects the
// commitment mode: true moves stock immediately, false holds reservations
// for a later pick.
type FinalizeInput struct {
	Notes            *string                 `json:"observacoes"`
	PartnerID        *uuid.UUID              `json:"id_parceiro"`
	SalespersonID    *uuid.UUID              `json:"id_vendedor"`
	Consignment      bool                    `json:"modo_consignacao"`
	DeadlineDays     *int                    `json:"prazo_consignacao"`
	RegisterMovement bool                    `json:"registrar_movimentacao"`
	WarehouseByItem  map[uuid.UUID]uuid.UUID `json:"depositos_por_item"`
}

// Service finalizes carts into orders. The whole transition runs in one
// transaction: consignment gate re-check, order creation, stock commitment,
// bookkeeping, and the cart's terminal status flip.
type Service interface {
	Finalize(ctx context.Context, cartID uuid.UUID, actor *auth.AccessTokenClaims, in FinalizeInput) (*orders.OrderDTO, error)
}

type service struct {
	carts       *cart.Repository
	orders      *orders.Repository
	ledger      *ledger.Repository
	parties     *parties.Repository
	tx          txRunner
	idempotency idempotencyStore
	claimTTL    time.Duration
	logg        *logger.Logger
}

// NewService constructs a checkout service instance.
func NewService(
	carts *cart.Repository,
	ordersRepo *orders.Repository,
	ledgerRepo *ledger.Repository,
	partiesRepo *parties.Repository,
	tx txRunner,
	idempotency idempotencyStore,
	claimTTL time.Duration,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil || ordersRepo == nil || ledgerRepo == nil || partiesRepo == nil {
		return nil, fmt.Errorf("checkout repositories required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if idempotency == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if claimTTL <= 0 {
		claimTTL = 2 * time.Minute
	}
	return &service{
		carts:       carts,
		orders:      ordersRepo,
		ledger:      ledgerRepo,
		parties:     partiesRepo,
		tx:          tx,
		idempotency: idempotency,
		claimTTL:    claimTTL,
		logg:        logg,
	}, nil
}

func (s *service) Finalize(ctx context.Context, cartID uuid.UUID, actor *auth.AccessTokenClaims, in FinalizeInput) (*orders.OrderDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor")
	}

	// Double submissions (double-click, retry storms) collapse onto one
	// claim per cart; the cart's own converted status is the durable guard.
	claimed, err := s.idempotency.ClaimIdempotencyKey(ctx, idempotencyScope, cartID.String(), s.claimTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim finalize key")
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "finalization already in flight for this cart")
	}

	order, err := s.finalize(ctx, cartID, actor, in)
	if err != nil {
		if releaseErr := s.idempotency.ReleaseIdempotencyKey(ctx, idempotencyScope, cartID.String()); releaseErr != nil {
			s.logg.Warn(ctx, "releasing finalize key: "+releaseErr.Error())
		}
		return nil, err
	}
	return order, nil
}

func (s *service) finalize(ctx context.Context, cartID uuid.UUID, actor *auth.AccessTokenClaims, in FinalizeInput) (*orders.OrderDTO, error) {
	salespersonID, err := s.resolveSalesperson(ctx, actor, in.SalespersonID)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(ctx, in); err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		current, terr := cartRepo.FindCart(ctx, cartID)
		if terr != nil {
			return terr
		}
		if current.Status != enums.CartStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart already converted")
		}
		if len(current.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
				WithDetails(map[string]string{"itens": "carrinho vazio"})
		}
		if terr := validateOverrides(ctx, cartRepo, current, in.WarehouseByItem); terr != nil {
			return terr
		}

		if in.Consignment {
			// Re-run inside the transaction: the advisory check the console
			// saw may be stale by now.
			lines, terr := consignment.LoadLines(ctx, stock.NewRepository(tx), current.Items)
			if terr != nil {
				return terr
			}
			if decision := consignment.Evaluate(lines); !decision.Allowed {
				return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock for consignment").
					WithDetails(map[string]any{"linhas_bloqueadas": decision.BlockingLines})
			}
		}

		order := buildOrder(current, salespersonID, in)
		if terr = s.orders.WithTx(tx).Create(ctx, order); terr != nil {
			return terr
		}

		demands := demandsFromOrder(order)
		if in.RegisterMovement {
			terr = stock.Deduct(ctx, tx, order.ID, demands)
		} else {
			_, terr = stock.Reserve(ctx, tx, demands)
		}
		if terr != nil {
			return terr
		}

		entryKind := enums.LedgerSale
		if in.Consignment {
			entryKind = enums.LedgerConsignmentOpened
		}
		terr = s.ledger.WithTx(tx).Create(ctx, &models.LedgerEntry{
			Kind:       entryKind,
			OrderID:    order.ID,
			Amount:     order.Total,
			OccurredAt: time.Now().UTC(),
		})
		if terr != nil {
			return terr
		}

		if terr = cartRepo.ConvertCart(ctx, current.ID); terr != nil {
			return terr
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.orders.Reservations(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "cart finalized")
	return orders.FromModel(order, reservations), nil
}

// resolveSalesperson defaults to the actor; naming someone else requires the
// override capability and the target must be an active user.
func (s *service) resolveSalesperson(ctx context.Context, actor *auth.AccessTokenClaims, requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil || *requested == actor.UserID {
		return actor.UserID, nil
	}
	if !actor.CanSelectSalesperson() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "salesperson override not allowed for this role")
	}
	user, err := s.parties.FindUser(ctx, *requested)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "salesperson not found").
				WithDetails(map[string]string{"id_vendedor": "desconhecido"})
		}
		return uuid.Nil, err
	}
	if !user.IsActive {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "salesperson inactive").
			WithDetails(map[string]string{"id_vendedor": "inativo"})
	}
	return user.ID, nil
}

// validateInput collects field errors into one validation error, mirroring
// the per-field rendering the console does.
func (s *service) validateInput(ctx context.Context, in FinalizeInput) error {
	fields := map[string]string{}

	if in.Consignment {
		if in.DeadlineDays == nil {
			fields["prazo_consignacao"] = "obrigatorio para consignacao"
		} else if err := consignment.ValidateDeadline(*in.DeadlineDays); err != nil {
			fields["prazo_consignacao"] = fmt.Sprintf(
				"deve estar entre %d e %d dias", consignment.MinDeadlineDays, consignment.MaxDeadlineDays)
		}
	} else if in.DeadlineDays != nil {
		fields["prazo_consignacao"] = "somente para consignacao"
	}

	if in.PartnerID != nil {
		exists, err := s.parties.PartnerExists(ctx, *in.PartnerID)
		if err != nil {
			return err
		}
		if !exists {
			fields["id_parceiro"] = "desconhecido"
		}
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid finalization payload").
			WithDetails(fields)
	}
	return nil
}

// validateOverrides rejects depositos_por_item entries naming lines outside
// the cart or warehouses not on record, so the operator sees a field error
// instead of a stock conflict from the commit path.
func validateOverrides(ctx context.Context, cartRepo *cart.Repository, current *models.Cart, overrides map[uuid.UUID]uuid.UUID) error {
	if len(overrides) == 0 {
		return nil
	}

	known := make(map[uuid.UUID]bool, len(current.Items))
	for _, item := range current.Items {
		known[item.ID] = true
	}

	var unknownItems []uuid.UUID
	var unknownWarehouses []uuid.UUID
	checked := map[uuid.UUID]bool{}
	for itemID, warehouseID := range overrides {
		if !known[itemID] {
			unknownItems = append(unknownItems, itemID)
		}
		if checked[warehouseID] {
			continue
		}
		checked[warehouseID] = true
		exists, err := cartRepo.WarehouseExists(ctx, warehouseID)
		if err != nil {
			return err
		}
		if !exists {
			unknownWarehouses = append(unknownWarehouses, warehouseID)
		}
	}

	details := map[string]any{}
	if len(unknownItems) > 0 {
		details["id_carrinho_item"] = unknownItems
	}
	if len(unknownWarehouses) > 0 {
		details["id_deposito"] = unknownWarehouses
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid warehouse overrides").
			WithDetails(details)
	}
	return nil
}

func buildOrder(current *models.Cart, salespersonID uuid.UUID, in FinalizeInput) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		CartID:        current.ID,
		CustomerID:    current.CustomerID,
		PartnerID:     in.PartnerID,
		SalespersonID: salespersonID,
		Notes:         in.Notes,
		Consignment:   in.Consignment,
	}
	if order.PartnerID == nil {
		order.PartnerID = current.PartnerID
	}
	if in.Consignment {
		order.ConsignmentDeadlineDays = in.DeadlineDays
		order.Status = enums.OrderStatusConsignmentOpen
	}
	if in.RegisterMovement {
		order.CommitmentMode = enums.CommitmentMovementNow
		if !in.Consignment {
			order.Status = enums.OrderStatusConfirmed
		}
	} else {
		order.CommitmentMode = enums.CommitmentReserveOnly
		if !in.Consignment {
			order.Status = enums.OrderStatusReserved
		}
	}

	for _, item := range current.Items {
		warehouseID := item.WarehouseID
		if override, ok := in.WarehouseByItem[item.ID]; ok {
			warehouseID = &override
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			WarehouseID: warehouseID,
		})
		order.Total = order.Total.Add(item.Subtotal)
	}
	return order
}

func demandsFromOrder(order *models.Order) []stock.Demand {
	demands := make([]stock.Demand, 0, len(order.Items))
	for _, item := range order.Items {
		demands = append(demands, stock.Demand{
			OrderItemID: item.ID,
			VariationID: item.VariationID,
			WarehouseID: item.WarehouseID,
			Quantity:    item.Quantity,
		})
	}
	return demands
}
