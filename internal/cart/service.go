package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/catalog"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type priceQuoter interface {
	QuoteVariation(ctx context.Context, id uuid.UUID) (*models.Variation, catalog.PriceQuote, error)
}

// CreateInput opens a cart for a customer.
type CreateInput struct {
	CustomerID uuid.UUID  `json:"id_cliente" validate:"required"`
	PartnerID  *uuid.UUID `json:"id_parceiro"`
}

// AddItemInput puts a variation in the cart.
type AddItemInput struct {
	VariationID uuid.UUID `json:"id_variacao" validate:"required"`
	Quantity    int       `json:"quantidade" validate:"required,gt=0"`
}

// UpdateQuantityInput changes a line's quantity. Setting it to zero removes
// the line, but only with ConfirmRemoval set; a bare zero is answered with a
// confirmation-required error so the console can prompt the operator.
type UpdateQuantityInput struct {
	Quantity       int  `json:"quantidade" validate:"gte=0"`
	ConfirmRemoval bool `json:"confirmar_remocao"`
}

// AssignWarehouseInput pins a cart line to a warehouse, or clears the pin
// when WarehouseID is nil.
type AssignWarehouseInput struct {
	WarehouseID *uuid.UUID `json:"id_deposito"`
}

// Service owns the cart lifecycle up to (but not including) finalization.
// Unit prices are snapshots taken through the outlet pricing funnel on every
// add and quantity change.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*CartDTO, error)
	Get(ctx context.Context, cartID uuid.UUID) (*CartDTO, error)
	CurrentForCustomer(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, cartID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, cartID uuid.UUID, in AddItemInput) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, in UpdateQuantityInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartDTO, error)
	AssignWarehouse(ctx context.Context, cartID, itemID uuid.UUID, in AssignWarehouseInput) (*CartDTO, error)
}

type service struct {
	repo   *Repository
	quoter priceQuoter
	tx     txRunner
}

// NewService constructs a cart service instance.
func NewService(repo *Repository, quoter priceQuoter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if quoter == nil {
		return nil, fmt.Errorf("price quoter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, quoter: quoter, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*CartDTO, error) {
	exists, err := s.repo.CustomerExists(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer not found").
			WithDetails(map[string]string{"id_cliente": "desconhecido"})
	}

	cart := &models.Cart{
		ID:         uuid.New(),
		CustomerID: in.CustomerID,
		PartnerID:  in.PartnerID,
		Status:     enums.CartStatusActive,
	}
	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.snapshot(ctx, cart.ID)
}

func (s *service) Get(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	return s.snapshot(ctx, cartID)
}

// CurrentForCustomer returns the customer's open cart.
func (s *service) CurrentForCustomer(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart for customer")
	}
	return snapshotFromModel(cart), nil
}

// Clear removes every line, keeping the cart itself open.
func (s *service) Clear(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, terr := activeCart(ctx, repo, cartID)
		if terr != nil {
			return terr
		}
		return repo.DeleteItemsByCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, cartID)
}

func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, in AddItemInput) (*CartDTO, error) {
	if in.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]string{"quantidade": "deve ser maior que zero"})
	}

	variation, quote, err := s.quoter.QuoteVariation(ctx, in.VariationID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, terr := activeCart(ctx, repo, cartID)
		if terr != nil {
			return terr
		}

		item, terr := repo.FindItemByVariation(ctx, cart.ID, variation.ID)
		if terr != nil {
			return terr
		}
		if item == nil {
			item = &models.CartItem{
				ID:          uuid.New(),
				CartID:      cart.ID,
				VariationID: variation.ID,
			}
			item.Quantity = in.Quantity
			applyPrice(item, quote)
			return repo.CreateItem(ctx, item)
		}

		// Same variation twice: one line, summed quantity, fresh price.
		item.Quantity += in.Quantity
		applyPrice(item, quote)
		return repo.SaveItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, cartID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, in UpdateQuantityInput) (*CartDTO, error) {
	if in.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").
			WithDetails(map[string]string{"quantidade": "nao pode ser negativa"})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, terr := activeCart(ctx, repo, cartID)
		if terr != nil {
			return terr
		}

		item, terr := repo.FindItem(ctx, cart.ID, itemID)
		if terr != nil {
			return terr
		}

		if in.Quantity == 0 {
			if !in.ConfirmRemoval {
				return pkgerrors.New(pkgerrors.CodeConfirmationRequired, "zero quantity removes the item").
					WithDetails(map[string]any{"id_item": item.ID})
			}
			return repo.DeleteItem(ctx, item.ID)
		}

		_, quote, terr := s.quoter.QuoteVariation(ctx, item.VariationID)
		if terr != nil {
			return terr
		}
		item.Quantity = in.Quantity
		applyPrice(item, quote)
		return repo.SaveItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, cartID)
}

func (s *service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, terr := activeCart(ctx, repo, cartID)
		if terr != nil {
			return terr
		}
		item, terr := repo.FindItem(ctx, cart.ID, itemID)
		if terr != nil {
			return terr
		}
		return repo.DeleteItem(ctx, item.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, cartID)
}

func (s *service) AssignWarehouse(ctx context.Context, cartID, itemID uuid.UUID, in AssignWarehouseInput) (*CartDTO, error) {
	if in.WarehouseID != nil {
		exists, err := s.repo.WarehouseExists(ctx, *in.WarehouseID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse not found").
				WithDetails(map[string]string{"id_deposito": "desconhecido"})
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, terr := activeCart(ctx, repo, cartID)
		if terr != nil {
			return terr
		}
		item, terr := repo.FindItem(ctx, cart.ID, itemID)
		if terr != nil {
			return terr
		}
		item.WarehouseID = in.WarehouseID
		return repo.SaveItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, cartID)
}

func (s *service) snapshot(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return snapshotFromModel(cart), nil
}

func activeCart(ctx context.Context, repo *Repository, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart already converted").
			WithDetails(map[string]any{"status": cart.Status})
	}
	return cart, nil
}

func applyPrice(item *models.CartItem, quote catalog.PriceQuote) {
	item.UnitPrice = quote.EffectivePrice
	item.Subtotal = quote.EffectivePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
