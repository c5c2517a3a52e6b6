package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rtavares/movelaria-backend/pkg/enums"
	"github.com/rtavares/movelaria-backend/pkg/pagination"
)

// EntryDTO is one bookkeeping row as rendered to the console.
type EntryDTO struct {
	ID         uuid.UUID             `json:"id"`
	Kind       enums.LedgerEntryKind `json:"tipo"`
	OrderID    uuid.UUID             `json:"id_ordem"`
	Amount     decimal.Decimal       `json:"valor"`
	OccurredAt time.Time             `json:"ocorrido_em"`
}

// ListResult is one ledger page plus the cursor for the next one.
type ListResult struct {
	Items      []EntryDTO `json:"itens"`
	NextCursor string     `json:"proximo_cursor,omitempty"`
}

// Service exposes the bookkeeping read surface. Writes happen inside the
// checkout and order transactions, through the repository directly.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a ledger service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	entries, next, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, err
	}
	items := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, EntryDTO{
			ID:         entry.ID,
			Kind:       entry.Kind,
			OrderID:    entry.OrderID,
			Amount:     entry.Amount,
			OccurredAt: entry.OccurredAt,
		})
	}
	return &ListResult{Items: items, NextCursor: next}, nil
}
