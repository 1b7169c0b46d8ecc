package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/spams12/gege/docs" // Регистрация описания swagger
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/logger"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Deps: зависимости HTTP API.
type Deps struct {
	Products       usecase.ProductUC
	Bids           usecase.BidUC
	Orders         usecase.OrderUC
	Accounts       usecase.AccountUC
	Verifier       usecase.IdentityVerifier
	RequestTimeout time.Duration
}

func (r *Router) Init(deps Deps) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(middleware.Logger)
	r.router.Use(middleware.Recoverer)
	if deps.RequestTimeout > 0 {
		r.router.Use(middleware.Timeout(deps.RequestTimeout))
	}

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	requireIdentity := RequireIdentity(deps.Verifier, r.logger)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerProductRoutes(v1, NewProductHandler(deps.Products, r.logger))
		registerAuctionRoutes(v1, NewAuctionHandler(deps.Bids, r.logger), requireIdentity)
		registerOrderRoutes(v1, NewOrderHandler(deps.Orders, r.logger), requireIdentity)
		registerAccountRoutes(v1, NewAccountHandler(deps.Accounts, r.logger), requireIdentity)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Get("/slug/{slug}", prHandler.getProductBySlug)
	})
	router.Get("/categories", prHandler.listCategories)
	router.Get("/brands", prHandler.listBrands)
}

func registerAuctionRoutes(router chi.Router, auHandler *AuctionHandler, auth func(http.Handler) http.Handler) {
	router.Route("/auctions", func(au chi.Router) {
		au.Get("/", auHandler.listAuctions)
		au.Get("/{id}/bids", auHandler.listBids)
		au.With(auth).Post("/{id}/bids", auHandler.placeBid)
	})
}

func registerOrderRoutes(router chi.Router, orHandler *OrderHandler, auth func(http.Handler) http.Handler) {
	router.Route("/orders", func(or chi.Router) {
		or.Use(auth)
		or.Post("/", orHandler.createOrder)
		or.Get("/", orHandler.listOrders)
		or.Get("/{id}", orHandler.getOrder)
	})
}

func registerAccountRoutes(router chi.Router, acHandler *AccountHandler, auth func(http.Handler) http.Handler) {
	router.Route("/account", func(ac chi.Router) {
		ac.Use(auth)
		ac.Get("/", acHandler.getAccount)
		ac.Put("/", acHandler.updateAccount)
	})
}
