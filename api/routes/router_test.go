package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/farhanmajid/bazario-backend/internal/auth"
	"github.com/farhanmajid/bazario-backend/internal/cart"
	"github.com/farhanmajid/bazario-backend/internal/catalog"
	"github.com/farhanmajid/bazario-backend/internal/companies"
	"github.com/farhanmajid/bazario-backend/internal/invites"
	"github.com/farhanmajid/bazario-backend/internal/orders"
	"github.com/farhanmajid/bazario-backend/internal/users"
	pkgauth "github.com/farhanmajid/bazario-backend/pkg/auth"
	"github.com/farhanmajid/bazario-backend/pkg/auth/session"
	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Signup(ctx context.Context, input authsvc.SignupInput) (*authsvc.AuthResult, error) {
	return &authsvc.AuthResult{}, nil
}

func (stubAuthService) Login(ctx context.Context, input authsvc.LoginInput) (*authsvc.AuthResult, error) {
	return &authsvc.AuthResult{}, nil
}

func (stubAuthService) Refresh(ctx context.Context, input authsvc.RefreshInput) (*authsvc.TokenPair, error) {
	return &authsvc.TokenPair{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Me(ctx context.Context, userID uuid.UUID) (*users.UserView, error) {
	return &users.UserView{ID: userID}, nil
}

func (stubUsersService) UpdateMe(ctx context.Context, input users.UpdateMeInput) (*users.UserView, error) {
	panic("unimplemented")
}

func (stubUsersService) DeleteMe(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

type stubCatalogService struct{}

func (stubCatalogService) Create(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductView, error) {
	return &catalog.ProductView{}, nil
}

func (stubCatalogService) Update(ctx context.Context, input catalog.UpdateProductInput) (*catalog.ProductView, error) {
	panic("unimplemented")
}

func (stubCatalogService) Delete(ctx context.Context, actor catalog.Actor, productID uuid.UUID) error {
	panic("unimplemented")
}

func (stubCatalogService) Get(ctx context.Context, productID uuid.UUID) (*catalog.ProductView, error) {
	return &catalog.ProductView{ID: productID}, nil
}

func (stubCatalogService) List(ctx context.Context, filters catalog.ListFilters, params pagination.Params) (*catalog.ProductList, error) {
	return &catalog.ProductList{}, nil
}

func (stubCatalogService) ListCategories(ctx context.Context) ([]catalog.CategoryView, error) {
	return nil, nil
}

type stubCompaniesService struct{}

func (stubCompaniesService) Create(ctx context.Context, ownerUserID uuid.UUID, name string) (*companies.CompanyView, error) {
	panic("unimplemented")
}

func (stubCompaniesService) Get(ctx context.Context, companyID uuid.UUID, includeMembers bool) (*companies.CompanyView, error) {
	panic("unimplemented")
}

func (stubCompaniesService) List(ctx context.Context, params pagination.Params) (*companies.CompanyList, error) {
	return &companies.CompanyList{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, input orders.CreateInput) (*orders.OrderView, error) {
	panic("unimplemented")
}

func (stubOrdersService) Update(ctx context.Context, input orders.UpdateInput) (*orders.OrderView, error) {
	panic("unimplemented")
}

func (stubOrdersService) Get(ctx context.Context, orderID, userID uuid.UUID) (*orders.OrderView, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) GetForCompany(ctx context.Context, orderID, companyID uuid.UUID) (*orders.CompanyOrderView, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForCompany(ctx context.Context, companyID uuid.UUID, params pagination.Params) (*orders.CompanyOrderList, error) {
	return &orders.CompanyOrderList{}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input orders.StatusUpdateInput) (*orders.FulfillmentView, error) {
	return &orders.FulfillmentView{OrderID: input.OrderID, CompanyID: input.CompanyID, Status: input.Status}, nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.CartView, error) {
	return &cart.CartView{UserID: userID}, nil
}

func (stubCartService) AddItem(ctx context.Context, input cart.AddItemInput) (*cart.CartView, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItem(ctx context.Context, input cart.UpdateItemInput) (*cart.CartView, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cart.CartView, error) {
	panic("unimplemented")
}

type stubInvitesService struct{}

func (stubInvitesService) Create(ctx context.Context, input invites.CreateInput) (*invites.InviteView, error) {
	return &invites.InviteView{}, nil
}

func (stubInvitesService) Accept(ctx context.Context, input invites.AcceptInput) (*invites.AcceptView, error) {
	return &invites.AcceptView{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
			RefreshTTLHours:   24,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           stubPinger{},
		Sessions:     stubSessionManager{},
		AuthSvc:      stubAuthService{},
		UsersSvc:     stubUsersService{},
		CatalogSvc:   stubCatalogService{},
		CompaniesSvc: stubCompaniesService{},
		OrdersSvc:    stubOrdersService{},
		CartSvc:      stubCartService{},
		InvitesSvc:   stubInvitesService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole, companyID *uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:    uuid.New(),
		CompanyID: companyID,
		Role:      role,
		JTI:       session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestCompanyGroupRequiresCompanyRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/company/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	companyID := uuid.New()
	staff := httptest.NewRequest(http.MethodGet, "/api/v1/company/orders", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff, &companyID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff got %d", resp.Code)
	}
}

func TestInviteCreationRequiresAdmin(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	companyID := uuid.New()
	body := `{"email":"new@example.com","role":"staff"}`

	staff := httptest.NewRequest(http.MethodPost, "/api/v1/company/invites", strings.NewReader(body))
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff, &companyID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/v1/company/invites", strings.NewReader(body))
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin, &companyID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin got %d", resp.Code)
	}
}

func TestInviteAcceptIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invites/accept/sometoken", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public accept got %d", resp.Code)
	}
}
