package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rtavares/movelaria-backend/api/controllers"
	"github.com/rtavares/movelaria-backend/api/middleware"
	"github.com/rtavares/movelaria-backend/internal/cart"
	"github.com/rtavares/movelaria-backend/internal/catalog"
	checkoutsvc "github.com/rtavares/movelaria-backend/internal/checkout"
	"github.com/rtavares/movelaria-backend/internal/consignment"
	"github.com/rtavares/movelaria-backend/internal/ledger"
	"github.com/rtavares/movelaria-backend/internal/orders"
	"github.com/rtavares/movelaria-backend/internal/parties"
	"github.com/rtavares/movelaria-backend/internal/stock"
	"github.com/rtavares/movelaria-backend/pkg/config"
	"github.com/rtavares/movelaria-backend/pkg/db"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	"github.com/rtavares/movelaria-backend/pkg/logger"
	"github.com/rtavares/movelaria-backend/pkg/redis"
)

// Services bundles everything the router hands to controllers.
type Services struct {
	Catalog     catalog.Service
	Stock       *stock.Repository
	Cart        cart.Service
	Consignment consignment.Service
	Checkout    checkoutsvc.Service
	Orders      orders.Service
	Parties     parties.Service
	Ledger      ledger.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, redisClient, logg))

		r.Route("/produtos", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(svcs.Catalog, logg))
			r.Get("/{variationId}", controllers.CatalogDetail(svcs.Catalog, logg))
		})

		r.Get("/estoque/por-variacao/{variationId}", controllers.StockByVariation(svcs.Stock, logg))
		r.Get("/depositos", controllers.WarehouseList(svcs.Stock, logg))

		r.Route("/carrinho", func(r chi.Router) {
			r.Get("/", controllers.CartCurrent(svcs.Cart, logg))
			r.Post("/", controllers.CartCreate(svcs.Cart, logg))
			r.Post("/itens", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/itens/{itemId}", controllers.CartUpdateItemQuantity(svcs.Cart, logg))
			r.Delete("/itens/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Get("/{cartId}", controllers.CartGet(svcs.Cart, logg))
			r.Delete("/{cartId}", controllers.CartClear(svcs.Cart, logg))
			r.Post("/{cartId}/consignacao/validar", controllers.CartConsignmentCheck(svcs.Consignment, logg))
			r.Post("/{cartId}/finalizar", controllers.Finalize(svcs.Checkout, logg))
		})
		r.Post("/carrinho-itens/atualizar-deposito", controllers.CartAssignWarehouse(svcs.Cart, logg))

		r.Route("/ordens", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/registrar-movimentacao", controllers.OrderRegisterMovement(svcs.Orders, logg))
			r.Post("/{orderId}/consignacao/liquidar", controllers.OrderSettleConsignment(svcs.Orders, logg))
			r.Post("/{orderId}/consignacao/devolver", controllers.OrderReturnConsignment(svcs.Orders, logg))
		})

		r.Get("/clientes", controllers.CustomersSearch(svcs.Parties, logg))
		r.Get("/parceiros", controllers.PartnersSearch(svcs.Parties, logg))
		r.Get("/usuarios/vendedores", controllers.SalespeopleList(svcs.Parties, logg))

		r.Route("/financeiro", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleOperator, enums.RoleAdmin))
			r.Get("/lancamentos", controllers.LedgerList(svcs.Ledger, logg))
		})
	})

	return r
}
