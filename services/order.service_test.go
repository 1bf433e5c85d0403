package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"go-ecommerce/models"
	"go-ecommerce/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newOrders(orders *fakeOrders, users *fakeUsers, mailer *fakeMailer) *OrderService {
	s := NewOrderService(orders, users, mailer, discardLogger())
	s.async = inline
	return s
}

func lines(names ...string) []models.OrderLine {
	out := make([]models.OrderLine, 0, len(names))
	for _, n := range names {
		out = append(out, models.OrderLine{ProductName: n})
	}
	return out
}

func TestListPagesOwnersOrders(t *testing.T) {
	orders := &fakeOrders{}
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	for i := 0; i < 25; i++ {
		orders.add(models.OrderView{UserID: a, OrderID: fmt.Sprintf("A-%02d", i)})
	}
	for i := 0; i < 3; i++ {
		orders.add(models.OrderView{UserID: b, OrderID: fmt.Sprintf("B-%02d", i)})
	}
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	page, err := s.List(context.Background(), a.Hex(), ListParams{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Len(t, page.Orders, 10)
	for _, o := range page.Orders {
		assert.Equal(t, a, o.UserID)
	}
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 25, TotalPages: 3}, page.Pagination)

	q := orders.queries[0]
	assert.Equal(t, int64(10), q.Skip)
	assert.Equal(t, int64(10), q.Limit)
	assert.True(t, q.SortDesc)
}

func TestListCoercesPaging(t *testing.T) {
	orders := &fakeOrders{}
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})
	owner := primitive.NewObjectID().Hex()

	tests := []struct {
		name        string
		page, limit int
		wantSkip    int64
		wantLimit   int64
	}{
		{"defaults", 0, 0, 0, 10},
		{"negative", -3, -1, 0, 10},
		{"capped", 3, 1000, 200, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders.queries = nil
			page, err := s.List(context.Background(), owner, ListParams{Page: tt.page, Limit: tt.limit, Order: "asc"})
			require.NoError(t, err)

			assert.NotNil(t, page.Orders)
			assert.Equal(t, tt.wantSkip, orders.queries[0].Skip)
			assert.Equal(t, tt.wantLimit, orders.queries[0].Limit)
			assert.False(t, orders.queries[0].SortDesc)
		})
	}
}

func TestListClampsHugePage(t *testing.T) {
	orders := &fakeOrders{}
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	page, err := s.List(context.Background(), primitive.NewObjectID().Hex(), ListParams{Page: math.MaxInt, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, MaxPage, page.Pagination.Page)
	assert.Equal(t, int64(MaxPage-1)*10, orders.queries[0].Skip)
	assert.Empty(t, page.Orders)
}

func TestListRejectsBadInputWithoutQuerying(t *testing.T) {
	orders := &fakeOrders{}
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	_, err := s.List(context.Background(), "not-an-id", ListParams{})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.List(context.Background(), primitive.NewObjectID().Hex(), ListParams{Status: "shipped"})
	var ve *utils.ValidationError
	assert.ErrorAs(t, err, &ve)

	assert.Empty(t, orders.queries)
}

func TestListProductNameKeepsAllLineItems(t *testing.T) {
	orders := &fakeOrders{}
	owner := primitive.NewObjectID()
	orders.add(models.OrderView{UserID: owner, Products: lines("Soap", "Lotion")})
	orders.add(models.OrderView{UserID: owner, Products: lines("Shampoo")})
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	page, err := s.List(context.Background(), owner.Hex(), ListParams{ProductName: "lot"})
	require.NoError(t, err)

	require.Len(t, page.Orders, 1)
	assert.Len(t, page.Orders[0].Products, 2)
	assert.Equal(t, "lot", orders.queries[0].ProductName)
}

func TestListStoreFailure(t *testing.T) {
	orders := &fakeOrders{err: errors.New("connection reset")}
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	page, err := s.List(context.Background(), primitive.NewObjectID().Hex(), ListParams{})
	assert.Error(t, err)
	assert.Nil(t, page)
}

func TestGetIsOwnerScoped(t *testing.T) {
	orders := &fakeOrders{}
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	o := orders.add(models.OrderView{UserID: a, OrderID: "A-1"})
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	got, err := s.Get(context.Background(), a.Hex(), o.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "A-1", got.OrderID)

	_, err = s.Get(context.Background(), b.Hex(), o.ID.Hex())
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = s.Get(context.Background(), a.Hex(), "zzz")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestGetByCode(t *testing.T) {
	orders := &fakeOrders{}
	orders.add(models.OrderView{OrderID: "ORD-100"})
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	got, err := s.GetByCode(context.Background(), "ORD-100")
	require.NoError(t, err)
	assert.Equal(t, "ORD-100", got.OrderID)

	_, err = s.GetByCode(context.Background(), "ORD-1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTrack(t *testing.T) {
	orders := &fakeOrders{}
	orders.add(models.OrderView{OrderID: "ABC123", Buyer: models.Buyer{PhoneNumber: "0901234567"}})
	orders.add(models.OrderView{OrderID: "ABC456", Buyer: models.Buyer{PhoneNumber: "0901234567"}})
	orders.add(models.OrderView{OrderID: "ABC789", Buyer: models.Buyer{PhoneNumber: "0999999999"}})
	orders.add(models.OrderView{OrderID: "XYZ123", Buyer: models.Buyer{PhoneNumber: "0901234567"}})
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	found, err := s.Track(context.Background(), TrackParams{OrderID: "abc", PhoneNumber: "0901234567"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "ABC123", found[0].OrderID)
	assert.Equal(t, "ABC456", found[1].OrderID)
	assert.True(t, orders.queries[0].WithCosts)

	_, err = s.Track(context.Background(), TrackParams{OrderID: "ABC", PhoneNumber: "0911111111"})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTrackValidatesPhone(t *testing.T) {
	orders := &fakeOrders{}
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	for _, phone := range []string{"", "12345", "09012345678901", "09012345ab", "+123456789", "12345.6789", "-0901234567"} {
		t.Run(phone, func(t *testing.T) {
			_, err := s.Track(context.Background(), TrackParams{OrderID: "ABC", PhoneNumber: phone})
			var ve *utils.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	assert.Empty(t, orders.queries)
}

func TestCancel(t *testing.T) {
	orders := &fakeOrders{}
	owner := primitive.NewObjectID()
	o := orders.add(models.OrderView{UserID: owner, Status: models.StatusDelivering})
	s := newOrders(orders, newFakeUsers(), &fakeMailer{})

	status, err := s.Cancel(context.Background(), owner.Hex(), o.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, status)
	assert.Equal(t, models.StatusCanceled, orders.status(o.ID))

	// Canceling again reaches the same terminal state.
	status, err = s.Cancel(context.Background(), owner.Hex(), o.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, status)

	_, err = s.Cancel(context.Background(), owner.Hex(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = s.Cancel(context.Background(), primitive.NewObjectID().Hex(), o.ID.Hex())
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = s.Cancel(context.Background(), owner.Hex(), "bad")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestAdvance(t *testing.T) {
	users := newFakeUsers()
	buyer := users.add(models.User{Email: "ann@example.com"})
	orders := &fakeOrders{}
	o := orders.add(models.OrderView{UserID: buyer.ID, OrderID: "ORD-7", Buyer: models.Buyer{Name: "Ann"}})
	mailer := &fakeMailer{}
	s := newOrders(orders, users, mailer)
	ctx := context.Background()

	require.NoError(t, s.Advance(ctx, o.ID.Hex(), models.StatusDelivering))
	assert.Equal(t, models.StatusDelivering, orders.status(o.ID))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, mail{to: "ann@example.com", name: "Ann", code: "ORD-7", status: models.StatusDelivering}, mailer.sent[0])

	tests := []struct {
		name string
		next models.OrderStatus
		want error
	}{
		{"skip backwards", models.StatusUnpaid, ErrInvalidTransition},
		{"repeat", models.StatusDelivering, ErrInvalidTransition},
		{"cancel is not an advance", models.StatusCanceled, ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.Advance(ctx, o.ID.Hex(), tt.next), tt.want)
		})
	}

	require.NoError(t, s.Advance(ctx, o.ID.Hex(), models.StatusDelivered))
	assert.Equal(t, models.StatusDelivered, orders.status(o.ID))

	assert.ErrorIs(t, s.Advance(ctx, primitive.NewObjectID().Hex(), models.StatusDelivering), ErrOrderNotFound)

	var ve *utils.ValidationError
	assert.ErrorAs(t, s.Advance(ctx, o.ID.Hex(), "shipped"), &ve)
}
