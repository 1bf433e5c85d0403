package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"go-ecommerce/models"
	"go-ecommerce/pipeline"
	"go-ecommerce/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func inline(f func()) { f() }

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]models.User
	err   error
	dupOn string // Create reports a duplicate for this email
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]models.User{}}
}

func (f *fakeUsers) add(u models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) get(id primitive.ObjectID) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	if u.Email == f.dupOn {
		return fmt.Errorf("fake: %w", store.ErrDuplicate)
	}
	added := f.add(*u)
	u.ID = added.ID
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("fake: %w", store.ErrNotFound)
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", store.ErrNotFound)
	}
	return &u, nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	if err != nil {
		if f.err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || u.IsVerified {
		return fmt.Errorf("fake: %w", store.ErrNotFound)
	}
	u.IsVerified = true
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("fake: %w", store.ErrNotFound)
	}
	u.RefreshToken = token
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SwapRefreshToken(_ context.Context, id primitive.ObjectID, old, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || u.RefreshToken != old {
		return fmt.Errorf("fake: %w", store.ErrNotFound)
	}
	u.RefreshToken = next
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) UpsertFederated(ctx context.Context, u *models.User) (*models.User, error) {
	existing, err := f.FindByEmail(ctx, u.Email)
	if err == nil {
		if !existing.IsVerified && existing.Account.Kind == models.AccountLocal {
			existing.Account = u.Account
			existing.Password = ""
			existing.RefreshToken = ""
		}
		existing.IsVerified = true
		f.add(*existing)
		return existing, nil
	}
	added := f.add(*u)
	return &added, nil
}

// fakeOrders applies the filters of pipeline.OrderOptions to an in-memory list
// of already joined orders.
type fakeOrders struct {
	mu      sync.Mutex
	views   []models.OrderView
	queries []pipeline.OrderOptions
	err     error
}

func (f *fakeOrders) add(v models.OrderView) models.OrderView {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if v.Status == "" {
		v.Status = models.StatusUnpaid
	}
	f.views = append(f.views, v)
	return v
}

func (f *fakeOrders) status(id primitive.ObjectID) models.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.views {
		if v.ID == id {
			return v.Status
		}
	}
	return ""
}

func (f *fakeOrders) matches(v models.OrderView, o pipeline.OrderOptions) bool {
	if o.OwnerID != nil && v.UserID != *o.OwnerID {
		return false
	}
	if o.ID != nil && v.ID != *o.ID {
		return false
	}
	if o.OrderCode != "" {
		if v.OrderID != o.OrderCode {
			return false
		}
	} else if o.CodePrefix != "" && !strings.HasPrefix(strings.ToLower(v.OrderID), strings.ToLower(o.CodePrefix)) {
		return false
	}
	if o.Status != "" && v.Status != o.Status {
		return false
	}
	if o.PhoneNumber != "" && v.Buyer.PhoneNumber != o.PhoneNumber {
		return false
	}
	if o.ProductName != "" {
		found := false
		for _, line := range v.Products {
			if strings.Contains(strings.ToLower(line.ProductName), strings.ToLower(o.ProductName)) {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *fakeOrders) Query(_ context.Context, o pipeline.OrderOptions) (*pipeline.OrderFacet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, o)
	if f.err != nil {
		return nil, f.err
	}

	var matched []models.OrderView
	for _, v := range f.views {
		if f.matches(v, o) {
			matched = append(matched, v)
		}
	}

	facet := &pipeline.OrderFacet{}
	facet.Total = append(facet.Total, struct {
		Count int64 `bson:"count"`
	}{Count: int64(len(matched))})

	start := int(o.Skip)
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if o.Limit > 0 && start+int(o.Limit) < end {
		end = start + int(o.Limit)
	}
	facet.Orders = matched[start:end]
	return facet, nil
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.views {
		if v.ID == id {
			return &models.Order{ID: v.ID, OrderID: v.OrderID, UserID: v.UserID, Buyer: v.Buyer, Status: v.Status}, nil
		}
	}
	return nil, fmt.Errorf("fake: %w", store.ErrNotFound)
}

func (f *fakeOrders) Cancel(_ context.Context, ownerID, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, v := range f.views {
		if v.ID == id && v.UserID == ownerID {
			f.views[i].Status = models.StatusCanceled
			return nil
		}
	}
	return fmt.Errorf("fake: %w", store.ErrNotFound)
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, v := range f.views {
		if v.ID == id {
			if v.Status != from {
				return fmt.Errorf("fake: %w", store.ErrConflict)
			}
			f.views[i].Status = to
			return nil
		}
	}
	return fmt.Errorf("fake: %w", store.ErrNotFound)
}

type mail struct {
	to, link, name, code string
	status               models.OrderStatus
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail
	err  error
}

func (m *fakeMailer) record(x mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, x)
	return nil
}

func (m *fakeMailer) SendVerificationEmail(toEmail, link string) error {
	return m.record(mail{to: toEmail, link: link})
}

func (m *fakeMailer) SendSubscriptionEmail(toEmail string) error {
	return m.record(mail{to: toEmail})
}

func (m *fakeMailer) SendOrderStatusEmail(toEmail, buyerName, orderCode string, status models.OrderStatus) error {
	return m.record(mail{to: toEmail, name: buyerName, code: orderCode, status: status})
}

type findCall struct {
	filter, sort bson.D
	limit        int64
}

type fakeProducts struct {
	finds    []findCall
	searches []pipeline.SearchOptions
	ids      []primitive.ObjectID
	facet    pipeline.ProductFacet
	err      error
}

func (f *fakeProducts) Find(_ context.Context, filter, sort bson.D, limit int64) ([]models.Product, error) {
	f.finds = append(f.finds, findCall{filter, sort, limit})
	if f.err != nil {
		return nil, f.err
	}
	return []models.Product{{Name: "Soap"}}, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	f.ids = ids
	return []models.Product{}, f.err
}

func (f *fakeProducts) Search(_ context.Context, o pipeline.SearchOptions) (*pipeline.ProductFacet, error) {
	f.searches = append(f.searches, o)
	if f.err != nil {
		return nil, f.err
	}
	return &f.facet, nil
}

func (f *fakeProducts) GroupedByCategory(_ context.Context, perCategory int) ([]models.CategoryProducts, error) {
	return []models.CategoryProducts{{CategoryName: fmt.Sprint(perCategory)}}, f.err
}

func (f *fakeProducts) CategoriesWithRandomProducts(_ context.Context, size int) ([]models.CategoryProducts, error) {
	return []models.CategoryProducts{{CategoryName: fmt.Sprint(size)}}, f.err
}

type fakeSubscriptions struct {
	emails map[string]bool
}

func (f *fakeSubscriptions) Create(_ context.Context, email string) error {
	if f.emails[email] {
		return fmt.Errorf("fake: %w", store.ErrDuplicate)
	}
	f.emails[email] = true
	return nil
}
