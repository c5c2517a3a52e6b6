package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/api/responses"
	"github.com/rtavares/movelaria-backend/api/validators"
	"github.com/rtavares/movelaria-backend/internal/stock"
	"github.com/rtavares/movelaria-backend/pkg/logger"
)

// StockByVariation serves the per-warehouse breakdown the console shows next
// to each catalog line.
func StockByVariation(repo *stock.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variationID, err := validators.PathUUID(chi.URLParam(r, "variationId"), "variationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := repo.ListByVariation(r.Context(), variationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type warehouseDTO struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"codigo"`
	Name string    `json:"nome"`
}

// WarehouseList serves the warehouse lookup dropdown.
func WarehouseList(repo *stock.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouses, err := repo.ListWarehouses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]warehouseDTO, 0, len(warehouses))
		for _, warehouse := range warehouses {
			out = append(out, warehouseDTO{ID: warehouse.ID, Code: warehouse.Code, Name: warehouse.Name})
		}
		responses.WriteSuccess(w, out)
	}
}
