package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/entrydesk-backend/internal/auth"
	"github.com/angelmondragon/entrydesk-backend/internal/entries"
	"github.com/angelmondragon/entrydesk-backend/internal/notifications"
	"github.com/angelmondragon/entrydesk-backend/internal/users"
	pkgAuth "github.com/angelmondragon/entrydesk-backend/pkg/auth"
	"github.com/angelmondragon/entrydesk-backend/pkg/config"
	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
	"github.com/angelmondragon/entrydesk-backend/pkg/logger"
	"github.com/angelmondragon/entrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/entrydesk-backend/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, errors.New("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Username: req.Username}, nil
}

type stubProfileService struct{}

func (stubProfileService) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID, Username: "someone"}, nil
}

func (stubProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req auth.UpdateProfileRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

func (stubProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, req auth.ChangePasswordRequest) error {
	return nil
}

type stubUsers struct{}

func (stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, errors.New("not implemented")
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubEntriesService struct{}

func (stubEntriesService) Create(ctx context.Context, p entries.Principal, input entries.CreateEntryInput) (*entries.EntryDTO, error) {
	return &entries.EntryDTO{ID: uuid.New(), OwnerID: p.ID, Status: enums.EntryStatusPending}, nil
}

func (stubEntriesService) List(ctx context.Context, p entries.Principal, input entries.ListEntriesInput) (*types.Page[entries.EntryDTO], error) {
	return &types.Page[entries.EntryDTO]{Items: []entries.EntryDTO{}}, nil
}

func (stubEntriesService) Get(ctx context.Context, p entries.Principal, id uuid.UUID) (*entries.EntryDTO, error) {
	return &entries.EntryDTO{ID: id}, nil
}

func (stubEntriesService) Update(ctx context.Context, p entries.Principal, id uuid.UUID, input entries.UpdateEntryInput) (*entries.EntryDTO, error) {
	return &entries.EntryDTO{ID: id}, nil
}

func (stubEntriesService) Delete(ctx context.Context, p entries.Principal, id uuid.UUID) error {
	return nil
}

func (stubEntriesService) Approve(ctx context.Context, p entries.Principal, id uuid.UUID) (*entries.EntryDTO, error) {
	return &entries.EntryDTO{ID: id, Status: enums.EntryStatusApproved}, nil
}

func (stubEntriesService) Reject(ctx context.Context, p entries.Principal, id uuid.UUID, reason string) (*entries.EntryDTO, error) {
	return &entries.EntryDTO{ID: id, Status: enums.EntryStatusRejected, RejectionReason: &reason}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*types.Page[notifications.NotificationDTO], error) {
	return &types.Page[notifications.NotificationDTO]{Items: []notifications.NotificationDTO{}}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, recipient notifications.Recipient, id uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, recipient notifications.Recipient) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func testServices() Services {
	return Services{
		Auth:          stubAuthService{},
		Register:      stubRegisterService{},
		AdminRegister: stubRegisterService{},
		Profile:       stubProfileService{},
		Users:         stubUsers{},
		Sessions:      stubSessionManager{},
		Entries:       stubEntriesService{},
		Notifications: stubNotificationsService{},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	return newTestRouterWith(cfg, Stores{}, testServices())
}

func newTestRouterWith(cfg *config.Config, stores Stores, services Services) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	reg := prometheus.NewRegistry()
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stores,
		services,
		metrics.NewHTTPMetrics(reg),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "someone",
		Role:     role,
		JTI:      uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestEntriesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestEntriesSucceedWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDecisionRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	path := "/api/v1/entries/" + uuid.NewString() + "/approve"

	nonAdmin := httptest.NewRequest(http.MethodPost, path, nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	if resp := serve(router, nonAdmin); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, path, nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	if resp := serve(router, admin); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRejectRouteAcceptsReason(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/"+uuid.NewString()+"/reject", strings.NewReader(`{"rejection_reason":"missing receipt"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "missing receipt") {
		t.Fatalf("expected reason echoed, got %s", resp.Body.String())
	}
}

func TestNotificationsRequireJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestProfileRequiresJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminRegisterHiddenInProd(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = config.AppEnvProd
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", strings.NewReader(`{}`))
	if resp := serve(router, req); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 in prod got %d", resp.Code)
	}
}

func TestAdminRegisterEnabledByFlagInProd(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = config.AppEnvProd
	cfg.FeatureFlags.AdminSignup = true
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", strings.NewReader(`{}`))
	if resp := serve(router, req); resp.Code == http.StatusNotFound {
		t.Fatal("expected admin register route to be mounted")
	}
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())

	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", resp.Code)
	}
	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected ready 200 got %d: %s", resp.Code, resp.Body.String())
	}

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected metrics 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestReadyReportsFailingDependency(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	router := NewRouter(testConfig(), logg, stubPinger{err: errors.New("down")}, Stores{}, testServices(), metrics.NewHTTPMetrics(prometheus.NewRegistry()), nil)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

type memoryIdempotencyStore struct {
	data map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type countingEntriesService struct {
	stubEntriesService
	creates   int
	approvals int
	createErr error
}

func (c *countingEntriesService) Create(ctx context.Context, p entries.Principal, input entries.CreateEntryInput) (*entries.EntryDTO, error) {
	c.creates++
	if c.createErr != nil {
		return nil, c.createErr
	}
	return &entries.EntryDTO{ID: uuid.New(), OwnerID: p.ID, Status: enums.EntryStatusPending}, nil
}

func (c *countingEntriesService) Approve(ctx context.Context, p entries.Principal, id uuid.UUID) (*entries.EntryDTO, error) {
	c.approvals++
	return &entries.EntryDTO{ID: id, Status: enums.EntryStatusApproved}, nil
}

const createEntryBody = `{"amount":"12.50","entry_date":"2026-01-02"}`

func idempotencyRouter(entrySvc entries.Service) (http.Handler, *memoryIdempotencyStore, *config.Config) {
	cfg := testConfig()
	store := newMemoryIdempotencyStore()
	services := testServices()
	services.Entries = entrySvc
	return newTestRouterWith(cfg, Stores{Idempotency: store}, services), store, cfg
}

func keyedRequest(method, path, token, key, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotencyKeyRequiredOnWorkflowPosts(t *testing.T) {
	svc := &countingEntriesService{}
	router, store, cfg := idempotencyRouter(svc)
	admin := buildToken(t, cfg, enums.UserRoleAdmin)
	entryPath := "/api/v1/entries/" + uuid.NewString()

	for _, req := range []*http.Request{
		keyedRequest(http.MethodPost, "/api/v1/entries", admin, "", createEntryBody),
		keyedRequest(http.MethodPost, "/api/v1/entries/", admin, "", createEntryBody),
		keyedRequest(http.MethodPost, entryPath+"/approve", admin, "", `{}`),
		keyedRequest(http.MethodPost, entryPath+"/reject", admin, "", `{"rejection_reason":"no receipt"}`),
	} {
		if resp := serve(router, req); resp.Code != http.StatusBadRequest {
			t.Fatalf("POST %s without key: expected 400 got %d: %s", req.URL.Path, resp.Code, resp.Body.String())
		}
	}
	if svc.creates != 0 || svc.approvals != 0 {
		t.Fatalf("handlers ran without a key: creates=%d approvals=%d", svc.creates, svc.approvals)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored, got %d records", len(store.data))
	}

	list := keyedRequest(http.MethodGet, "/api/v1/entries", admin, "", "")
	if resp := serve(router, list); resp.Code != http.StatusOK {
		t.Fatalf("expected GET without key to pass, got %d", resp.Code)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	svc := &countingEntriesService{}
	router, store, cfg := idempotencyRouter(svc)
	user := buildToken(t, cfg, enums.UserRoleUser)

	first := serve(router, keyedRequest(http.MethodPost, "/api/v1/entries", user, "create-1", createEntryBody))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := serve(router, keyedRequest(http.MethodPost, "/api/v1/entries", user, "create-1", createEntryBody))
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected replayed body %s, got %s", first.Body.String(), second.Body.String())
	}
	if svc.creates != 1 {
		t.Fatalf("expected one create, got %d", svc.creates)
	}
	if len(store.data) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.data))
	}

	admin := buildToken(t, cfg, enums.UserRoleAdmin)
	approvePath := "/api/v1/entries/" + uuid.NewString() + "/approve"
	for i := 0; i < 2; i++ {
		if resp := serve(router, keyedRequest(http.MethodPost, approvePath, admin, "approve-1", `{}`)); resp.Code != http.StatusOK {
			t.Fatalf("approve attempt %d: expected 200 got %d", i+1, resp.Code)
		}
	}
	if svc.approvals != 1 {
		t.Fatalf("expected one approval, got %d", svc.approvals)
	}
}

func TestIdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	svc := &countingEntriesService{}
	router, _, cfg := idempotencyRouter(svc)
	user := buildToken(t, cfg, enums.UserRoleUser)

	serve(router, keyedRequest(http.MethodPost, "/api/v1/entries", user, "create-2", createEntryBody))
	resp := serve(router, keyedRequest(http.MethodPost, "/api/v1/entries", user, "create-2", `{"amount":"99.00","entry_date":"2026-01-03"}`))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), string(pkgerrors.CodeIdempotency)) {
		t.Fatalf("expected %s in body, got %s", pkgerrors.CodeIdempotency, resp.Body.String())
	}
	if svc.creates != 1 {
		t.Fatalf("expected one create, got %d", svc.creates)
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	svc := &countingEntriesService{createErr: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	router, store, cfg := idempotencyRouter(svc)
	user := buildToken(t, cfg, enums.UserRoleUser)

	for i := 0; i < 2; i++ {
		resp := serve(router, keyedRequest(http.MethodPost, "/api/v1/entries", user, "create-3", createEntryBody))
		if resp.Code < http.StatusInternalServerError {
			t.Fatalf("attempt %d: expected 5xx got %d", i+1, resp.Code)
		}
	}
	if svc.creates != 2 {
		t.Fatalf("expected retry to reach the service, got %d creates", svc.creates)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected no stored records, got %d", len(store.data))
	}
}
