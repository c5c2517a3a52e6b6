package controllers

import (
	"net/http"
	"strings"

	"github.com/rtavares/movelaria-backend/api/responses"
	"github.com/rtavares/movelaria-backend/internal/parties"
	"github.com/rtavares/movelaria-backend/pkg/logger"
)

// CustomersSearch serves the customer lookup (?q=).
func CustomersSearch(svc parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customers, err := svc.SearchCustomers(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customers)
	}
}

// PartnersSearch serves the partner lookup (?q=).
func PartnersSearch(svc parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partners, err := svc.SearchPartners(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partners)
	}
}

// SalespeopleList serves the active salesperson dropdown.
func SalespeopleList(svc parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		salespeople, err := svc.ListSalespeople(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, salespeople)
	}
}
