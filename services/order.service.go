package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-ecommerce/models"
	"go-ecommerce/pipeline"
	"go-ecommerce/store"
	"go-ecommerce/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStore interface {
	Query(ctx context.Context, o pipeline.OrderOptions) (*pipeline.OrderFacet, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Cancel(ctx context.Context, ownerID, id primitive.ObjectID) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error
}

type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type StatusMailer interface {
	SendOrderStatusEmail(toEmail, buyerName, orderCode string, status models.OrderStatus) error
}

// ListParams are the query parameters of an order listing.
type ListParams struct {
	Status      string `json:"status" validate:"omitempty,oneof=unpaid delivering delivered canceled"`
	OrderID     string `json:"order_id"`
	PhoneNumber string `json:"phone_number"`
	ProductName string `json:"product_name"`
	Sort        string `json:"sort"`
	Order       string `json:"order" validate:"omitempty,oneof=asc desc"`
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
}

// TrackParams identify an order without signing in.
type TrackParams struct {
	OrderID     string `json:"order_id" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required,number,min=10,max=11"`
}

type OrderPage struct {
	Orders     []models.OrderView `json:"orders"`
	Pagination Pagination         `json:"pagination"`
}

type OrderService struct {
	orders OrderStore
	users  UserFinder
	mailer StatusMailer
	log    *slog.Logger
	async  func(func())
}

func NewOrderService(orders OrderStore, users UserFinder, mailer StatusMailer, log *slog.Logger) *OrderService {
	return &OrderService{orders: orders, users: users, mailer: mailer, log: log, async: goAsync}
}

// List returns one page of the owner's orders.
func (s *OrderService) List(ctx context.Context, ownerID string, p ListParams) (*OrderPage, error) {
	const op = "services.OrderService.List"

	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, ErrInvalidID
	}
	if err := utils.Validate(&p); err != nil {
		return nil, err
	}

	page, limit := normalizePage(p.Page, p.Limit)
	facet, err := s.orders.Query(ctx, pipeline.OrderOptions{
		OwnerID:     &owner,
		Status:      models.OrderStatus(p.Status),
		IDFragment:  p.OrderID,
		PhoneNumber: p.PhoneNumber,
		ProductName: p.ProductName,
		SortField:   p.Sort,
		SortDesc:    p.Order != "asc",
		Skip:        skipFor(page, limit),
		Limit:       int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders := facet.Orders
	if orders == nil {
		orders = []models.OrderView{}
	}
	return &OrderPage{
		Orders:     orders,
		Pagination: newPagination(page, limit, facet.Count()),
	}, nil
}

// Get returns one of the owner's orders by internal id.
func (s *OrderService) Get(ctx context.Context, ownerID, orderID string) (*models.OrderView, error) {
	const op = "services.OrderService.Get"

	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, ErrInvalidID
	}
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, ErrInvalidID
	}

	return s.first(ctx, op, pipeline.OrderOptions{OwnerID: &owner, ID: &id, Limit: 1})
}

// GetByCode returns the order with the given human-readable order id.
func (s *OrderService) GetByCode(ctx context.Context, code string) (*models.OrderView, error) {
	const op = "services.OrderService.GetByCode"

	if code == "" {
		return nil, &utils.ValidationError{Fields: map[string]string{"orderId": "is required"}}
	}

	return s.first(ctx, op, pipeline.OrderOptions{OrderCode: code, Limit: 1})
}

// Track finds orders whose code starts with the given prefix and whose buyer
// phone matches exactly. Costs are recomputed from the line items.
func (s *OrderService) Track(ctx context.Context, p TrackParams) ([]models.OrderView, error) {
	const op = "services.OrderService.Track"

	if err := utils.Validate(&p); err != nil {
		return nil, err
	}

	facet, err := s.orders.Query(ctx, pipeline.OrderOptions{
		CodePrefix:  p.OrderID,
		PhoneNumber: p.PhoneNumber,
		WithCosts:   true,
		SortDesc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(facet.Orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return facet.Orders, nil
}

// Cancel cancels one of the owner's orders. Canceling a canceled order is a
// no-op that still succeeds.
func (s *OrderService) Cancel(ctx context.Context, ownerID, orderID string) (models.OrderStatus, error) {
	const op = "services.OrderService.Cancel"

	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return "", ErrInvalidID
	}
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return "", ErrInvalidID
	}

	if err := s.orders.Cancel(ctx, owner, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return "", ErrOrderNotFound
		case errors.Is(err, store.ErrConflict):
			return "", ErrInvalidTransition
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("order canceled", slog.String("op", op), slog.String("order_id", orderID))
	return models.StatusCanceled, nil
}

// Advance moves an order one step forward and notifies the buyer.
func (s *OrderService) Advance(ctx context.Context, orderID string, next models.OrderStatus) error {
	const op = "services.OrderService.Advance"
	log := s.log.With(slog.String("op", op), slog.String("order_id", orderID))

	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return ErrInvalidID
	}
	if !next.Valid() {
		return &utils.ValidationError{Fields: map[string]string{"status": "must be one of: delivering delivered"}}
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if next == models.StatusCanceled || !order.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	if err := s.orders.UpdateStatus(ctx, id, order.Status, next); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("order status changed", slog.String("from", string(order.Status)), slog.String("to", string(next)))

	s.async(func() {
		user, err := s.users.FindByID(context.Background(), order.UserID)
		if err != nil {
			log.Error("failed to load buyer for status email", slog.Any("err", err))
			return
		}
		if err := s.mailer.SendOrderStatusEmail(user.Email, order.Buyer.Name, order.OrderID, next); err != nil {
			log.Error("failed to send status email", slog.Any("err", err))
		}
	})

	return nil
}

func (s *OrderService) first(ctx context.Context, op string, o pipeline.OrderOptions) (*models.OrderView, error) {
	facet, err := s.orders.Query(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(facet.Orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return &facet.Orders[0], nil
}
