package consignment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/internal/stock"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
)

// Deadline bounds for the customer's consignment response window, in days.
const (
	MinDeadlineDays = 1
	MaxDeadlineDays = 30
)

// Decision is the gate's verdict on enabling consignment for a cart.
// BlockingLines is empty exactly when Allowed; the IDs are cart line IDs the
// console highlights for the operator.
type Decision struct {
	Allowed       bool        `json:"permitido"`
	BlockingLines []uuid.UUID `json:"linhas_bloqueadas"`
}

// Evaluate runs the reserve-mode availability check over the cart lines.
// Consignment is all-or-nothing: a single short line blocks the whole cart.
func Evaluate(lines []stock.LineAvailability) Decision {
	insufficient := stock.FindInsufficient(lines, enums.CommitmentReserveOnly)
	decision := Decision{
		Allowed:       len(insufficient) == 0,
		BlockingLines: make([]uuid.UUID, 0, len(insufficient)),
	}
	for _, line := range insufficient {
		decision.BlockingLines = append(decision.BlockingLines, line.LineID)
	}
	return decision
}

// ValidateDeadline enforces the response window bounds.
func ValidateDeadline(days int) error {
	if days < MinDeadlineDays || days > MaxDeadlineDays {
		return pkgerrors.New(pkgerrors.CodeValidation, "consignment deadline out of range").
			WithDetails(map[string]string{
				"prazo_consignacao": fmt.Sprintf("deve estar entre %d e %d dias", MinDeadlineDays, MaxDeadlineDays),
			})
	}
	return nil
}

type cartLoader interface {
	FindCart(ctx context.Context, id uuid.UUID) (*models.Cart, error)
}

// AvailabilityReader is the slice of the stock repository the gate needs.
type AvailabilityReader interface {
	AvailabilityForVariations(ctx context.Context, variationIDs []uuid.UUID) (map[uuid.UUID]stock.VariationAvailability, error)
}

// Service answers the console's "can this cart go out on consignment?"
// question before finalize. The same evaluation re-runs inside the finalize
// transaction, so a favorable answer here is advisory.
type Service interface {
	Check(ctx context.Context, cartID uuid.UUID) (Decision, error)
}

type service struct {
	carts cartLoader
	stock AvailabilityReader
}

// NewService constructs a consignment gate service instance.
func NewService(carts cartLoader, stockReader AvailabilityReader) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if stockReader == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	return &service{carts: carts, stock: stockReader}, nil
}

func (s *service) Check(ctx context.Context, cartID uuid.UUID) (Decision, error) {
	cart, err := s.carts.FindCart(ctx, cartID)
	if err != nil {
		return Decision{}, err
	}
	lines, err := LoadLines(ctx, s.stock, cart.Items)
	if err != nil {
		return Decision{}, err
	}
	return Evaluate(lines), nil
}

// LoadLines fetches the availability snapshot for the cart items and pairs
// it line by line. Shared with the finalize path so both sides judge the
// same picture.
func LoadLines(ctx context.Context, reader AvailabilityReader, items []models.CartItem) ([]stock.LineAvailability, error) {
	variationIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		variationIDs = append(variationIDs, item.VariationID)
	}
	availability, err := reader.AvailabilityForVariations(ctx, variationIDs)
	if err != nil {
		return nil, err
	}
	return stock.LinesFromCartItems(items, availability), nil
}
