package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rtavares/movelaria-backend/pkg/db/models"
)

func variationWithOffers(listPrice string, offers ...models.OutletOffer) *models.Variation {
	return &models.Variation{
		ID:        uuid.New(),
		ListPrice: decimal.RequireFromString(listPrice),
		Offers:    offers,
	}
}

func offer(percent string, remaining int, reason string) models.OutletOffer {
	return models.OutletOffer{
		ID:              uuid.New(),
		DiscountPercent: decimal.RequireFromString(percent),
		RemainingQty:    remaining,
		Reason:          reason,
	}
}

func TestResolvePriceNoOffers(t *testing.T) {
	quote := ResolvePrice(variationWithOffers("1200.00"))
	if !quote.EffectivePrice.Equal(quote.ListPrice) {
		t.Fatalf("effective %s should equal list %s", quote.EffectivePrice, quote.ListPrice)
	}
	if !quote.DiscountPercent.IsZero() {
		t.Fatalf("percent = %s, want 0", quote.DiscountPercent)
	}
	if quote.Discounted() {
		t.Fatal("quote should not be discounted")
	}
}

func TestResolvePriceSkipsExhaustedOffers(t *testing.T) {
	// The 20% offer has nothing left; the 10% offer must win.
	quote := ResolvePrice(variationWithOffers("100.00",
		offer("20.00", 0, "mostruario"),
		offer("10.00", 5, "ponta de estoque"),
	))
	if !quote.DiscountPercent.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("percent = %s, want 10.00", quote.DiscountPercent)
	}
	if !quote.EffectivePrice.Equal(decimal.RequireFromString("90.00")) {
		t.Fatalf("effective = %s, want 90.00", quote.EffectivePrice)
	}
	if quote.OfferReason != "ponta de estoque" {
		t.Fatalf("reason = %q", quote.OfferReason)
	}
}

func TestResolvePriceAllOffersExhausted(t *testing.T) {
	quote := ResolvePrice(variationWithOffers("100.00",
		offer("20.00", 0, "mostruario"),
		offer("35.00", -1, "avaria"),
	))
	if !quote.EffectivePrice.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("effective = %s, want list price", quote.EffectivePrice)
	}
	if quote.Discounted() {
		t.Fatal("no offer should apply")
	}
}

func TestResolvePricePicksMaximumPercent(t *testing.T) {
	quote := ResolvePrice(variationWithOffers("250.00",
		offer("5.00", 3, "mostruario"),
		offer("30.00", 1, "avaria"),
		offer("15.00", 10, "ponta de estoque"),
	))
	if !quote.DiscountPercent.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("percent = %s, want 30.00", quote.DiscountPercent)
	}
	if !quote.EffectivePrice.Equal(decimal.RequireFromString("175.00")) {
		t.Fatalf("effective = %s, want 175.00", quote.EffectivePrice)
	}
}

func TestResolvePriceTieKeepsFirstOffer(t *testing.T) {
	first := offer("25.00", 2, "primeiro")
	second := offer("25.00", 9, "segundo")
	quote := ResolvePrice(variationWithOffers("80.00", first, second))
	if quote.OfferID == nil || *quote.OfferID != first.ID {
		t.Fatal("tie should keep the first eligible offer")
	}
}

func TestResolvePriceRoundsHalfUp(t *testing.T) {
	// 99.99 * (1 - 15/100) = 84.9915 -> 84.99; 33.33 * 0.5 = 16.665 -> 16.67
	quote := ResolvePrice(variationWithOffers("33.33", offer("50.00", 1, "avaria")))
	if !quote.EffectivePrice.Equal(decimal.RequireFromString("16.67")) {
		t.Fatalf("effective = %s, want 16.67", quote.EffectivePrice)
	}
}

func TestResolvePriceNeverExceedsListPrice(t *testing.T) {
	prices := []string{"0.01", "19.90", "1250.00"}
	percents := []string{"0.00", "0.01", "50.00", "100.00"}
	for _, p := range prices {
		for _, pct := range percents {
			quote := ResolvePrice(variationWithOffers(p, offer(pct, 1, "x")))
			if quote.EffectivePrice.GreaterThan(quote.ListPrice) {
				t.Fatalf("effective %s > list %s at %s%%", quote.EffectivePrice, quote.ListPrice, pct)
			}
		}
	}
}
