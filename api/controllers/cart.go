package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/api/responses"
	"github.com/rtavares/movelaria-backend/api/validators"
	"github.com/rtavares/movelaria-backend/internal/cart"
	"github.com/rtavares/movelaria-backend/internal/consignment"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/logger"
)

// CartCurrent serves the customer's open cart (?id_cliente=).
func CartCurrent(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParseQueryUUID(r, "id_cliente")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if customerID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required").
				WithDetails(map[string]any{"field": "id_cliente"}))
			return
		}
		snapshot, err := svc.CurrentForCustomer(r.Context(), *customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// CartCreate opens a cart for a customer.
func CartCreate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in cart.CreateInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.Create(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, snapshot)
	}
}

// CartGet serves one cart by id.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.PathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.Get(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// CartClear empties the cart, keeping it open.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.PathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.Clear(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

type cartAddItemRequest struct {
	CartID uuid.UUID `json:"id_carrinho" validate:"required"`
	cart.AddItemInput
}

// CartAddItem puts a variation in the cart, merging repeated variations into
// one line.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.AddItem(r.Context(), in.CartID, in.AddItemInput)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

type cartUpdateQuantityRequest struct {
	CartID uuid.UUID `json:"id_carrinho" validate:"required"`
	cart.UpdateQuantityInput
}

// CartUpdateItemQuantity changes a line's quantity; zero requires the
// explicit removal confirmation.
func CartUpdateItemQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.PathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var in cartUpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.UpdateItemQuantity(r.Context(), in.CartID, itemID, in.UpdateQuantityInput)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// CartRemoveItem drops a line (?id_carrinho=).
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.PathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := validators.ParseQueryUUID(r, "id_carrinho")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if cartID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required").
				WithDetails(map[string]any{"field": "id_carrinho"}))
			return
		}
		snapshot, err := svc.RemoveItem(r.Context(), *cartID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

type cartAssignWarehouseRequest struct {
	CartID uuid.UUID `json:"id_carrinho" validate:"required"`
	ItemID uuid.UUID `json:"id_carrinho_item" validate:"required"`
	cart.AssignWarehouseInput
}

// CartAssignWarehouse pins a cart line to a warehouse or clears the pin.
func CartAssignWarehouse(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in cartAssignWarehouseRequest
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.AssignWarehouse(r.Context(), in.CartID, in.ItemID, in.AssignWarehouseInput)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// CartConsignmentCheck runs the advisory consignment gate over the cart.
func CartConsignmentCheck(svc consignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.PathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		decision, err := svc.Check(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, decision)
	}
}
