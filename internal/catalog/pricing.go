package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rtavares/movelaria-backend/pkg/db/models"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// PriceQuote is the result of resolving a variation's price against its
// outlet offers. When no offer applies, EffectivePrice equals ListPrice and
// DiscountPercent is zero.
type PriceQuote struct {
	ListPrice       decimal.Decimal `json:"preco_tabela"`
	EffectivePrice  decimal.Decimal `json:"preco_efetivo"`
	DiscountPercent decimal.Decimal `json:"percentual_desconto"`
	OfferID         *uuid.UUID      `json:"id_oferta,omitempty"`
	OfferReason     string          `json:"motivo_oferta,omitempty"`
}

// Discounted reports whether an outlet offer was applied.
func (q PriceQuote) Discounted() bool {
	return q.OfferID != nil
}

// ResolvePrice picks the best applicable outlet offer for the variation and
// computes the effective unit price. Offers with no remaining quantity are
// skipped; among eligible offers the highest percentage wins, first
// encountered on a tie. The effective price is rounded half-up to 2 decimal
// places. Pure function: callers must re-resolve whenever offers change.
func ResolvePrice(variation *models.Variation) PriceQuote {
	quote := PriceQuote{
		ListPrice:       variation.ListPrice,
		EffectivePrice:  variation.ListPrice,
		DiscountPercent: decimal.Zero,
	}

	var best *models.OutletOffer
	for i := range variation.Offers {
		offer := &variation.Offers[i]
		if offer.RemainingQty <= 0 {
			continue
		}
		if best == nil || offer.DiscountPercent.GreaterThan(best.DiscountPercent) {
			best = offer
		}
	}
	if best == nil {
		return quote
	}

	factor := one.Sub(best.DiscountPercent.Div(hundred))
	quote.EffectivePrice = variation.ListPrice.Mul(factor).Round(2)
	quote.DiscountPercent = best.DiscountPercent
	quote.OfferID = &best.ID
	quote.OfferReason = best.Reason
	return quote
}
