package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"go-ecommerce/models"
	"go-ecommerce/services"
	"go-ecommerce/utils"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) utils.Envelope {
	t.Helper()
	var raw struct {
		utils.Envelope
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Envelope
}

type stubAuth struct {
	register       func(services.RegisterInput) (*models.User, error)
	verify         func(token string) error
	checkEmail     func(email string) (bool, error)
	login          func(services.LoginInput) (*services.Session, error)
	refresh        func(token string) (*services.Session, error)
	me             func(userID string) (*models.Profile, error)
	federatedLogin func(*utils.OAuthProfile) (*services.Session, error)
}

func (s *stubAuth) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return s.register(in)
}

func (s *stubAuth) VerifyEmail(_ context.Context, token string) error { return s.verify(token) }

func (s *stubAuth) CheckEmail(_ context.Context, email string) (bool, error) {
	return s.checkEmail(email)
}

func (s *stubAuth) Login(_ context.Context, in services.LoginInput) (*services.Session, error) {
	return s.login(in)
}

func (s *stubAuth) Refresh(_ context.Context, token string) (*services.Session, error) {
	return s.refresh(token)
}

func (s *stubAuth) Me(_ context.Context, userID string) (*models.Profile, error) { return s.me(userID) }

func (s *stubAuth) FederatedLogin(_ context.Context, p *utils.OAuthProfile) (*services.Session, error) {
	return s.federatedLogin(p)
}

type stubProvider struct {
	profile *utils.OAuthProfile
	err     error
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.test/consent?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*utils.OAuthProfile, error) {
	return p.profile, p.err
}

type stubOrders struct {
	list      func(ownerID string, p services.ListParams) (*services.OrderPage, error)
	get       func(ownerID, orderID string) (*models.OrderView, error)
	getByCode func(code string) (*models.OrderView, error)
	track     func(p services.TrackParams) ([]models.OrderView, error)
	cancel    func(ownerID, orderID string) (models.OrderStatus, error)
	advance   func(orderID string, next models.OrderStatus) error
}

func (s *stubOrders) List(_ context.Context, ownerID string, p services.ListParams) (*services.OrderPage, error) {
	return s.list(ownerID, p)
}

func (s *stubOrders) Get(_ context.Context, ownerID, orderID string) (*models.OrderView, error) {
	return s.get(ownerID, orderID)
}

func (s *stubOrders) GetByCode(_ context.Context, code string) (*models.OrderView, error) {
	return s.getByCode(code)
}

func (s *stubOrders) Track(_ context.Context, p services.TrackParams) ([]models.OrderView, error) {
	return s.track(p)
}

func (s *stubOrders) Cancel(_ context.Context, ownerID, orderID string) (models.OrderStatus, error) {
	return s.cancel(ownerID, orderID)
}

func (s *stubOrders) Advance(_ context.Context, orderID string, next models.OrderStatus) error {
	return s.advance(orderID, next)
}

type stubCatalog struct {
	products []models.Product
	groups   []models.CategoryProducts
	search   func(p services.SearchParams) (*services.ProductPage, error)
	lastKey  string
	lastIDs  []string
	err      error
}

func (s *stubCatalog) Newest(context.Context) ([]models.Product, error)     { return s.products, s.err }
func (s *stubCatalog) TopRated(context.Context) ([]models.Product, error)   { return s.products, s.err }
func (s *stubCatalog) Discounted(context.Context) ([]models.Product, error) { return s.products, s.err }

func (s *stubCatalog) Recommended(_ context.Context, key string) ([]models.Product, error) {
	s.lastKey = key
	return s.products, s.err
}

func (s *stubCatalog) ByCategory(_ context.Context, categoryID string) ([]models.Product, error) {
	s.lastKey = categoryID
	return s.products, s.err
}

func (s *stubCatalog) ByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	s.lastIDs = ids
	return s.products, s.err
}

func (s *stubCatalog) GroupedByCategory(context.Context) ([]models.CategoryProducts, error) {
	return s.groups, s.err
}

func (s *stubCatalog) CategoriesWithRandomProducts(context.Context) ([]models.CategoryProducts, error) {
	return s.groups, s.err
}

func (s *stubCatalog) Search(_ context.Context, p services.SearchParams) (*services.ProductPage, error) {
	return s.search(p)
}

type stubSubscriber struct {
	err   error
	email string
}

func (s *stubSubscriber) Subscribe(_ context.Context, in services.SubscribeInput) error {
	s.email = in.Email
	return s.err
}
