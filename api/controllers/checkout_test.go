package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/api/middleware"
	"github.com/rtavares/movelaria-backend/internal/checkout"
	"github.com/rtavares/movelaria-backend/internal/orders"
	"github.com/rtavares/movelaria-backend/pkg/auth"
	"github.com/rtavares/movelaria-backend/pkg/enums"
)

type stubCheckoutService struct {
	order      *orders.OrderDTO
	err        error
	lastCartID uuid.UUID
	lastActor  *auth.AccessTokenClaims
	lastInput  checkout.FinalizeInput
}

func (s *stubCheckoutService) Finalize(ctx context.Context, cartID uuid.UUID, actor *auth.AccessTokenClaims, in checkout.FinalizeInput) (*orders.OrderDTO, error) {
	s.lastCartID = cartID
	s.lastActor = actor
	s.lastInput = in
	return s.order, s.err
}

func finalizeRequestWith(t *testing.T, cartID string, body string, actor *auth.AccessTokenClaims) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/carrinho/"+cartID+"/finalizar", strings.NewReader(body))
	req = withURLParam(req, "cartId", cartID)
	if actor != nil {
		req = req.WithContext(middleware.WithClaims(req.Context(), actor))
	}
	return req
}

func TestFinalizeRequiresActor(t *testing.T) {
	stub := &stubCheckoutService{}

	req := finalizeRequestWith(t, uuid.NewString(), `{}`, nil)
	rec := httptest.NewRecorder()
	Finalize(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestFinalizeRejectsMalformedCartID(t *testing.T) {
	stub := &stubCheckoutService{}
	actor := &auth.AccessTokenClaims{UserID: uuid.New(), Role: enums.RoleOperator}

	req := finalizeRequestWith(t, "not-a-uuid", `{}`, actor)
	rec := httptest.NewRecorder()
	Finalize(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFinalizeRejectsUnknownFields(t *testing.T) {
	stub := &stubCheckoutService{}
	actor := &auth.AccessTokenClaims{UserID: uuid.New(), Role: enums.RoleOperator}

	req := finalizeRequestWith(t, uuid.NewString(), `{"desconto":10}`, actor)
	rec := httptest.NewRecorder()
	Finalize(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFinalizeMapsWarehouseOverrides(t *testing.T) {
	cartID := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()
	warehouseA := uuid.New()
	warehouseB := uuid.New()
	actor := &auth.AccessTokenClaims{UserID: uuid.New(), Role: enums.RoleAdmin}
	stub := &stubCheckoutService{order: &orders.OrderDTO{ID: uuid.New()}}

	body := `{
		"modo_consignacao": true,
		"prazo_consignacao": 15,
		"depositos_por_item": [
			{"id_carrinho_item": "` + itemA.String() + `", "id_deposito": "` + warehouseA.String() + `"},
			{"id_carrinho_item": "` + itemB.String() + `", "id_deposito": "` + warehouseB.String() + `"}
		]
	}`
	req := finalizeRequestWith(t, cartID.String(), body, actor)
	rec := httptest.NewRecorder()
	Finalize(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if stub.lastCartID != cartID {
		t.Fatalf("cart id = %s, want %s", stub.lastCartID, cartID)
	}
	if stub.lastActor == nil || stub.lastActor.UserID != actor.UserID {
		t.Fatalf("actor not forwarded: %+v", stub.lastActor)
	}
	if !stub.lastInput.Consignment {
		t.Fatal("consignment flag dropped")
	}
	if stub.lastInput.DeadlineDays == nil || *stub.lastInput.DeadlineDays != 15 {
		t.Fatalf("deadline = %v", stub.lastInput.DeadlineDays)
	}
	if len(stub.lastInput.WarehouseByItem) != 2 {
		t.Fatalf("overrides = %d, want 2", len(stub.lastInput.WarehouseByItem))
	}
	if stub.lastInput.WarehouseByItem[itemA] != warehouseA || stub.lastInput.WarehouseByItem[itemB] != warehouseB {
		t.Fatalf("override map mismatch: %v", stub.lastInput.WarehouseByItem)
	}
}

func TestFinalizeOmitsEmptyOverrideMap(t *testing.T) {
	actor := &auth.AccessTokenClaims{UserID: uuid.New(), Role: enums.RoleOperator}
	stub := &stubCheckoutService{order: &orders.OrderDTO{ID: uuid.New()}}

	req := finalizeRequestWith(t, uuid.NewString(), `{"registrar_movimentacao": true}`, actor)
	rec := httptest.NewRecorder()
	Finalize(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if stub.lastInput.WarehouseByItem != nil {
		t.Fatalf("override map should stay nil, got %v", stub.lastInput.WarehouseByItem)
	}
	if !stub.lastInput.RegisterMovement {
		t.Fatal("register movement flag dropped")
	}
}
