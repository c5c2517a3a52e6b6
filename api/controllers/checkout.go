package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/api/middleware"
	"github.com/rtavares/movelaria-backend/api/responses"
	"github.com/rtavares/movelaria-backend/api/validators"
	"github.com/rtavares/movelaria-backend/internal/checkout"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/logger"
)

type warehouseOverride struct {
	ItemID      uuid.UUID `json:"id_carrinho_item" validate:"required"`
	WarehouseID uuid.UUID `json:"id_deposito" validate:"required"`
}

type finalizeRequest struct {
	Notes            *string             `json:"observacoes"`
	PartnerID        *uuid.UUID          `json:"id_parceiro"`
	SalespersonID    *uuid.UUID          `json:"id_vendedor"`
	Consignment      bool                `json:"modo_consignacao"`
	DeadlineDays     *int                `json:"prazo_consignacao"`
	RegisterMovement bool                `json:"registrar_movimentacao"`
	WarehouseByItem  []warehouseOverride `json:"depositos_por_item" validate:"dive"`
}

// Finalize converts the cart into an order in one transaction.
func Finalize(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.PathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ClaimsFromContext(r.Context())
		if actor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor"))
			return
		}

		var req finalizeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		in := checkout.FinalizeInput{
			Notes:            req.Notes,
			PartnerID:        req.PartnerID,
			SalespersonID:    req.SalespersonID,
			Consignment:      req.Consignment,
			DeadlineDays:     req.DeadlineDays,
			RegisterMovement: req.RegisterMovement,
		}
		if len(req.WarehouseByItem) > 0 {
			in.WarehouseByItem = make(map[uuid.UUID]uuid.UUID, len(req.WarehouseByItem))
			for _, override := range req.WarehouseByItem {
				in.WarehouseByItem[override.ItemID] = override.WarehouseID
			}
		}

		order, err := svc.Finalize(r.Context(), cartID, actor, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
