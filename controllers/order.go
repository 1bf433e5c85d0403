// controllers/order.go
package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"go-ecommerce/models"
	"go-ecommerce/services"
	"go-ecommerce/utils"

	"github.com/gorilla/mux"
)

type OrderQueries interface {
	List(ctx context.Context, ownerID string, p services.ListParams) (*services.OrderPage, error)
	Get(ctx context.Context, ownerID, orderID string) (*models.OrderView, error)
	GetByCode(ctx context.Context, code string) (*models.OrderView, error)
	Track(ctx context.Context, p services.TrackParams) ([]models.OrderView, error)
	Cancel(ctx context.Context, ownerID, orderID string) (models.OrderStatus, error)
	Advance(ctx context.Context, orderID string, next models.OrderStatus) error
}

// OrderController handles order-related requests
type OrderController struct {
	orders OrderQueries
	log    *slog.Logger
}

// NewOrderController creates a new OrderController
func NewOrderController(orders OrderQueries, log *slog.Logger) *OrderController {
	return &OrderController{orders: orders, log: log}
}

// GetOrders lists the caller's orders
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	ctx, cancel := requestContext(r)
	defer cancel()
	result, err := oc.orders.List(ctx, userID, services.ListParams{
		Status:      q.Get("status"),
		OrderID:     q.Get("order_id"),
		PhoneNumber: q.Get("phone_number"),
		ProductName: q.Get("product_name"),
		Sort:        q.Get("sort"),
		Order:       q.Get("order"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		writeError(w, r, oc.log, err)
		return
	}

	utils.OK(w, result)
}

// GetOrder returns one of the caller's orders by internal id
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	order, err := oc.orders.Get(ctx, userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, oc.log, err)
		return
	}

	utils.OK(w, map[string]interface{}{"order": order})
}

// GetOrderByCode returns the order with the given human-readable order id
func (oc *OrderController) GetOrderByCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()
	order, err := oc.orders.GetByCode(ctx, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, r, oc.log, err)
		return
	}

	utils.OK(w, map[string]interface{}{"order": order})
}

// TrackOrder lets a guest look up orders by code prefix and phone number
func (oc *OrderController) TrackOrder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ctx, cancel := requestContext(r)
	defer cancel()
	orders, err := oc.orders.Track(ctx, services.TrackParams{
		OrderID:     q.Get("order_id"),
		PhoneNumber: q.Get("phone_number"),
	})
	if err != nil {
		writeError(w, r, oc.log, err)
		return
	}

	utils.OK(w, map[string]interface{}{"orders": orders})
}

// CancelOrder cancels one of the caller's orders
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	status, err := oc.orders.Cancel(ctx, userID, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, r, oc.log, err)
		return
	}

	utils.Message(w, http.StatusOK, fmt.Sprintf("Order status updated to '%s'.", status))
}

// UpdateOrderStatus moves an order forward (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status" validate:"required,oneof=delivering delivered"`
	}
	if err := utils.DecodeAndValidate(r, &in); err != nil {
		writeError(w, r, oc.log, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := oc.orders.Advance(ctx, mux.Vars(r)["id"], models.OrderStatus(in.Status)); err != nil {
		writeError(w, r, oc.log, err)
		return
	}

	utils.Message(w, http.StatusOK, fmt.Sprintf("Order status updated to '%s'.", in.Status))
}
