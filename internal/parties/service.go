package parties

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// CustomerDTO is one customer lookup row.
type CustomerDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"nome"`
	Document *string   `json:"documento,omitempty"`
}

// PartnerDTO is one partner lookup row.
type PartnerDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"nome"`
}

// SalespersonDTO is one salesperson lookup row.
type SalespersonDTO struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"nome"`
	Email string     `json:"email"`
	Role  enums.Role `json:"papel"`
}

// Service backs the console's lookup dropdowns.
type Service interface {
	SearchCustomers(ctx context.Context, term string) ([]CustomerDTO, error)
	SearchPartners(ctx context.Context, term string) ([]PartnerDTO, error)
	ListSalespeople(ctx context.Context) ([]SalespersonDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a parties service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("parties repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) SearchCustomers(ctx context.Context, term string) ([]CustomerDTO, error) {
	customers, err := s.repo.SearchCustomers(ctx, term)
	if err != nil {
		return nil, err
	}
	out := make([]CustomerDTO, 0, len(customers))
	for _, customer := range customers {
		out = append(out, CustomerDTO{ID: customer.ID, Name: customer.Name, Document: customer.Document})
	}
	return out, nil
}

func (s *service) SearchPartners(ctx context.Context, term string) ([]PartnerDTO, error) {
	partners, err := s.repo.SearchPartners(ctx, term)
	if err != nil {
		return nil, err
	}
	out := make([]PartnerDTO, 0, len(partners))
	for _, partner := range partners {
		out = append(out, PartnerDTO{ID: partner.ID, Name: partner.Name})
	}
	return out, nil
}

func (s *service) ListSalespeople(ctx context.Context) ([]SalespersonDTO, error) {
	users, err := s.repo.ListSalespeople(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SalespersonDTO, 0, len(users))
	for _, user := range users {
		out = append(out, SalespersonDTO{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
	}
	return out, nil
}
