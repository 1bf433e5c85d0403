// routes/routes.go
package routes

import (
	"net/http"

	"go-ecommerce/controllers"
	"go-ecommerce/middleware"
	"go-ecommerce/utils"

	"github.com/gorilla/mux"
)

// Controllers bundles every handler the router serves.
type Controllers struct {
	Health       *controllers.HealthController
	Auth         *controllers.AuthController
	Order        *controllers.OrderController
	Product      *controllers.ProductController
	Subscription *controllers.SubscriptionController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, tokens *utils.TokenManager, c Controllers) {
	authed := middleware.AuthMiddleware(tokens)
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.AdminMiddleware(h))
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.Fail(w, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.HandleFunc("/health", c.Health.Health).Methods("GET")

	// Auth routes
	router.HandleFunc("/auth/register", c.Auth.Register).Methods("POST")
	router.HandleFunc("/auth/verify-email", c.Auth.VerifyEmail).Methods("GET")
	router.HandleFunc("/auth/check-email", c.Auth.CheckEmail).Methods("GET")
	router.HandleFunc("/auth/login", c.Auth.Login).Methods("POST")
	router.HandleFunc("/auth/refresh-token", c.Auth.RefreshToken).Methods("POST")
	router.Handle("/auth/me", authed(http.HandlerFunc(c.Auth.Me))).Methods("GET")
	router.HandleFunc("/auth/{provider:google|facebook}", c.Auth.OAuthStart).Methods("GET")
	router.HandleFunc("/auth/{provider:google|facebook}/callback", c.Auth.OAuthCallback).Methods("GET")

	// Order routes; the guest lookups come before /orders/{id}
	router.HandleFunc("/orders/track", c.Order.TrackOrder).Methods("GET")
	router.HandleFunc("/orders/getOrder/{orderId}", c.Order.GetOrderByCode).Methods("GET")
	router.Handle("/orders", authed(http.HandlerFunc(c.Order.GetOrders))).Methods("GET")
	router.Handle("/orders/cancel/{orderId}", authed(http.HandlerFunc(c.Order.CancelOrder))).Methods("PUT")
	router.Handle("/orders/{id}", authed(http.HandlerFunc(c.Order.GetOrder))).Methods("GET")
	router.Handle("/orders/{id}/status", admin(c.Order.UpdateOrderStatus)).Methods("PUT")

	// Guest catalog routes
	products := router.PathPrefix("/products").Subrouter()
	products.HandleFunc("/getNewestProducts", c.Product.GetNewestProducts).Methods("GET")
	products.HandleFunc("/getTopRatedProducts", c.Product.GetTopRatedProducts).Methods("GET")
	products.HandleFunc("/getDiscountProducts", c.Product.GetDiscountProducts).Methods("GET")
	products.HandleFunc("/searchRecommended", c.Product.GetSearchRecommended).Methods("GET")
	products.HandleFunc("/search", c.Product.GetSearchResult).Methods("GET")
	products.HandleFunc("/getProductsByCategory/{categoryId}", c.Product.GetProductsByCategory).Methods("GET")
	products.HandleFunc("/getOrderProducts", c.Product.GetOrderProducts).Methods("POST")
	products.HandleFunc("/getProductsGroupedByCategory", c.Product.GetProductsGroupedByCategory).Methods("GET")
	products.HandleFunc("/byCategory", c.Product.GetCategoriesWithRandomProducts).Methods("GET")

	router.HandleFunc("/subscriptions", c.Subscription.Subscribe).Methods("POST")
}
