package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/pagination"
)

type stockTotalsReader interface {
	TotalsForVariations(ctx context.Context, variationIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// Service exposes catalog read operations. Every price shown anywhere in the
// console funnels through ResolvePrice here; no caller re-implements the
// offer scan.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error)
	GetVariation(ctx context.Context, id uuid.UUID) (*VariationDTO, error)
	QuoteVariation(ctx context.Context, id uuid.UUID) (*models.Variation, PriceQuote, error)
}

type service struct {
	repo  *Repository
	stock stockTotalsReader
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, stock stockTotalsReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	return &service{repo: repo, stock: stock}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	variations, next, err := s.repo.ListVariations(ctx, filters, params)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(variations))
	variationIDs := make([]uuid.UUID, 0, len(variations))
	for _, v := range variations {
		productIDs = append(productIDs, v.ProductID)
		variationIDs = append(variationIDs, v.ID)
	}

	names, err := s.repo.ProductNames(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	totals, err := s.stock.TotalsForVariations(ctx, variationIDs)
	if err != nil {
		// Read degradation: a stock lookup failure must not take the whole
		// catalog page down. Totals render as zero.
		totals = map[uuid.UUID]int{}
	}

	items := make([]VariationDTO, 0, len(variations))
	for i := range variations {
		v := &variations[i]
		items = append(items, VariationDTO{
			ID:          v.ID,
			ProductID:   v.ProductID,
			ProductName: names[v.ProductID],
			SKU:         v.SKU,
			Attributes:  v.Attributes,
			Price:       ResolvePrice(v),
			StockTotal:  totals[v.ID],
		})
	}
	return &ListResult{Items: items, NextCursor: next}, nil
}

func (s *service) GetVariation(ctx context.Context, id uuid.UUID) (*VariationDTO, error) {
	variation, quote, err := s.QuoteVariation(ctx, id)
	if err != nil {
		return nil, err
	}

	names, err := s.repo.ProductNames(ctx, []uuid.UUID{variation.ProductID})
	if err != nil {
		return nil, err
	}
	totals, err := s.stock.TotalsForVariations(ctx, []uuid.UUID{variation.ID})
	if err != nil {
		totals = map[uuid.UUID]int{}
	}

	return &VariationDTO{
		ID:          variation.ID,
		ProductID:   variation.ProductID,
		ProductName: names[variation.ProductID],
		SKU:         variation.SKU,
		Attributes:  variation.Attributes,
		Price:       quote,
		StockTotal:  totals[variation.ID],
	}, nil
}

// QuoteVariation loads the variation and resolves its current price. The
// cart service uses it to refresh unit-price snapshots on add/update.
func (s *service) QuoteVariation(ctx context.Context, id uuid.UUID) (*models.Variation, PriceQuote, error) {
	variation, err := s.repo.FindVariation(ctx, id)
	if err != nil {
		return nil, PriceQuote{}, err
	}
	return variation, ResolvePrice(variation), nil
}
