package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/clients"
	"github.com/angelmondragon/storefront-backend/internal/filters"
	"github.com/angelmondragon/storefront-backend/internal/newsletters"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/taxes"
	"github.com/angelmondragon/storefront-backend/internal/taxonomy"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
)

// Services bundles the domain services mounted by the router.
type Services struct {
	Taxonomy    taxonomy.Service
	Filters     filters.Service
	Products    products.Service
	Cart        cart.Service
	Wishlist    wishlist.Service
	Orders      orders.Service
	Taxes       taxes.Service
	Shipping    shipping.Service
	Clients     clients.Service
	Newsletters newsletters.Service
}

// Deps carries infrastructure handles. Redis, Storage and Registry may be nil.
type Deps struct {
	DB       db.Pinger
	Redis    *pkgredis.Client
	Storage  storage.Pinger
	Registry *prometheus.Registry
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps, svc Services) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if deps.Registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(deps.Registry)
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(httpMetrics),
	)

	// Interfaces stay nil when redis is disabled so the middleware can skip.
	var (
		idempotencyStore middleware.IdempotencyStore
		limiterStore     middleware.RateLimiterStore
	)
	ready := map[string]controllers.Pinger{"db": nil, "redis": nil, "storage": nil}
	if deps.DB != nil {
		ready["db"] = deps.DB
	}
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		limiterStore = deps.Redis
		ready["redis"] = deps.Redis
	}
	if deps.Storage != nil {
		ready["storage"] = deps.Storage
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})
	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	auth := middleware.Auth(cfg.JWT, logg)
	admin := middleware.RequireAdmin(logg)
	maxMB := cfg.Storage.MaxUploadMB

	newsletterPolicy := middleware.NewRateLimitPolicy(
		"newsletter",
		cfg.RateLimit.NewsletterWindow,
		cfg.RateLimit.NewsletterIPLimit,
		cfg.RateLimit.NewsletterEmailLimit,
	)

	api := func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(svc.Taxonomy, logg))
			r.Get("/withSubcategories", controllers.CategoryListWithSubcategories(svc.Taxonomy, logg))
			r.Get("/getNavBarCategories", controllers.CategoryNavBar(svc.Taxonomy, logg))
			r.Get("/{id}", controllers.CategoryGet(svc.Taxonomy, logg))

			r.Group(func(r chi.Router) {
				r.Use(auth, admin)
				r.Post("/createCategory", controllers.CategoryCreate(svc.Taxonomy, logg))
				r.Post("/createSubcategory", controllers.SubCategoryCreate(svc.Taxonomy, maxMB, logg))
				r.Post("/createInnerSubcategory/{subcategoryId}", controllers.InnerCategoryCreate(svc.Taxonomy, logg))
				r.Put("/update", controllers.CategoryUpdate(svc.Taxonomy, maxMB, logg))
				r.Post("/delete", controllers.CategoryDelete(svc.Taxonomy, logg))
			})
		})

		r.Route("/subCategories", func(r chi.Router) {
			r.Get("/", controllers.SubCategoryList(svc.Taxonomy, logg))
			r.Get("/{id}", controllers.SubCategoryGet(svc.Taxonomy, logg))
		})

		r.Route("/filters", func(r chi.Router) {
			r.Get("/getFilterGroup", controllers.FilterGroups(svc.Filters, logg))
			r.Get("/getAllFilters", controllers.FilterAll(svc.Filters, logg))
			r.Get("/getCardFilters", controllers.FilterCards(svc.Filters, logg))
			r.Get("/getUnassignedFilters", controllers.FilterUnassigned(svc.Filters, logg))

			r.Group(func(r chi.Router) {
				r.Use(auth, admin)
				r.Post("/createFilterGroup", controllers.FilterGroupCreate(svc.Filters, logg))
				r.Post("/createFilter", controllers.FilterCreate(svc.Filters, maxMB, logg))
				r.Put("/editFilterGroup", controllers.FilterGroupEdit(svc.Filters, logg))
				r.Post("/editFilter", controllers.FilterEdit(svc.Filters, maxMB, logg))
				r.Post("/delete", controllers.FilterDelete(svc.Filters, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svc.Products, logg))
			r.Get("/get/count", controllers.ProductCount(svc.Products, logg))
			r.Get("/get/featured/{limit}", controllers.ProductFeatured(svc.Products, logg))
			r.Get("/get/bestSeller/{limit}", controllers.ProductBestSellers(svc.Products, logg))
			r.Get("/get/productsWithDiscount", controllers.ProductsWithDiscount(svc.Products, logg))
			r.Get("/get/crumbs", controllers.ProductCrumbs(svc.Products, logg))
			r.Post("/get/products", controllers.ProductSearch(svc.Products, false, logg))
			r.Post("/get/productsFiltered", controllers.ProductSearch(svc.Products, true, logg))
			r.Get("/{id}", controllers.ProductGet(svc.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(auth, admin)
				r.Post("/", controllers.ProductCreate(svc.Products, maxMB, logg))
				r.Post("/update", controllers.ProductUpdate(svc.Products, maxMB, logg))
				r.Delete("/{id}", controllers.ProductDelete(svc.Products, logg))
				r.Get("/admin/{id}", controllers.ProductAdminGet(svc.Products, logg))
				r.Get("/productsForAdmin", controllers.ProductsForAdmin(svc.Products, logg))
				r.Get("/latestProductsForAdmin/{limit}", controllers.LatestProductsForAdmin(svc.Products, logg))
				r.Get("/get/variations/total-cost", controllers.ProductsTotalCost(svc.Products, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(auth)
			r.Post("/", controllers.CartAdd(svc.Cart, logg))
			r.Post("/update", controllers.CartUpdate(svc.Cart, logg))
			r.Post("/delete", controllers.CartRemove(svc.Cart, logg))
			r.Post("/clearCart", controllers.CartClear(svc.Cart, logg))
			r.Post("/find", controllers.CartFind(svc.Cart, logg))
			r.With(admin).Get("/", controllers.CartListAll(svc.Cart, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(auth)
			r.Post("/", controllers.WishlistAdd(svc.Wishlist, logg))
			r.Post("/delete", controllers.WishlistRemove(svc.Wishlist, logg))
			r.Post("/clearWishlist", controllers.WishlistClear(svc.Wishlist, logg))
			r.Post("/find", controllers.WishlistFind(svc.Wishlist, logg))
			r.With(admin).Get("/", controllers.WishlistListAll(svc.Wishlist, logg))
		})

		r.Route("/order", func(r chi.Router) {
			r.Use(auth)
			r.With(middleware.Idempotency(idempotencyStore, cfg.RateLimit.OrderIdempotencyTTL, logg)).
				Post("/", controllers.OrderPlace(svc.Orders, logg))
			r.Post("/find", controllers.OrderFind(svc.Orders, logg))
			r.Get("/{id}", controllers.OrderGet(svc.Orders, logg))
			r.With(admin).Get("/", controllers.OrderListAll(svc.Orders, logg))
			r.With(admin).Put("/{id}/status", controllers.OrderUpdateStatus(svc.Orders, logg))
		})

		r.Route("/tax", func(r chi.Router) {
			r.Get("/activeTaxes", controllers.TaxActive(svc.Taxes, logg))
			r.Group(func(r chi.Router) {
				r.Use(auth, admin)
				r.Get("/", controllers.TaxList(svc.Taxes, logg))
				r.Post("/", controllers.TaxCreate(svc.Taxes, logg))
				r.Put("/{id}", controllers.TaxUpdate(svc.Taxes, logg))
				r.Delete("/{id}", controllers.TaxDelete(svc.Taxes, logg))
			})
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Get("/getShippingPrices", controllers.ShippingPrices(svc.Shipping, logg))
			r.Group(func(r chi.Router) {
				r.Use(auth, admin)
				r.Post("/saveData", controllers.ShippingSave(svc.Shipping, logg))
				r.Post("/deleteData", controllers.ShippingDelete(svc.Shipping, logg))
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Use(auth)
			r.Post("/saveUserDetails", controllers.ClientSaveDetails(svc.Clients, logg))
			r.Post("/findUserDetails", controllers.ClientFindDetails(svc.Clients, logg))
			r.Post("/saveUserAddress", controllers.ClientSaveAddress(svc.Clients, logg))
			r.Post("/findUserAddress", controllers.ClientFindAddresses(svc.Clients, logg))
			r.Post("/deleteAddress", controllers.ClientDeleteAddress(svc.Clients, logg))
		})

		r.Route("/news-letters", func(r chi.Router) {
			r.With(middleware.RateLimit(newsletterPolicy, limiterStore, logg)).
				Post("/", controllers.NewsletterSubscribe(svc.Newsletters, logg))
			r.Group(func(r chi.Router) {
				r.Use(auth, admin)
				r.Get("/", controllers.NewsletterList(svc.Newsletters, logg))
				r.Delete("/{id}", controllers.NewsletterDelete(svc.Newsletters, logg))
			})
		})
	}
	if prefix := cfg.App.Prefix(); prefix != "" {
		r.Route(prefix, api)
	} else {
		r.Group(api)
	}

	return r
}
