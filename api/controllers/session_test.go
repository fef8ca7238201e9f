package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/entrydesk-backend/pkg/auth"
	"github.com/angelmondragon/entrydesk-backend/pkg/auth/session"
	"github.com/angelmondragon/entrydesk-backend/pkg/config"
	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
)

type stubSessionTokenManager struct {
	lastRevoked    string
	lastRotateUser uuid.UUID
	lastRotateOld  string
	lastRotateBody string
	rotateRespID   string
	rotateRespTok  string
	rotateErr      error
	revokeErr      error
}

func (s *stubSessionTokenManager) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error) {
	s.lastRotateUser = userID
	s.lastRotateOld = oldAccessID
	s.lastRotateBody = provided
	return s.rotateRespID, s.rotateRespTok, s.rotateErr
}

func (s *stubSessionTokenManager) Revoke(ctx context.Context, accessID string) error {
	s.lastRevoked = accessID
	return s.revokeErr
}

type stubUserLookup struct {
	user *models.User
	err  error
}

func (s stubUserLookup) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.UserRole, issuedAt time.Time) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(cfg, issuedAt, auth.AccessTokenPayload{
		UserID:   userID,
		Username: "alice",
		Role:     role,
		JTI:      accessID,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token, accessID
}

func TestAuthLogout(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	manager := &stubSessionTokenManager{}
	handler := AuthLogout(manager, cfg, nil)

	token, jti := mintTestToken(t, cfg, uuid.New(), enums.UserRoleUser, time.Now())
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if manager.lastRevoked != jti {
		t.Fatalf("expected revoked %s got %s", jti, manager.lastRevoked)
	}
}

func TestAuthLogoutAcceptsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	manager := &stubSessionTokenManager{}

	token, jti := mintTestToken(t, cfg, uuid.New(), enums.UserRoleUser, time.Now().Add(-time.Hour))
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthLogout(manager, cfg, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if manager.lastRevoked != jti {
		t.Fatalf("expected revoked %s got %s", jti, manager.lastRevoked)
	}
}

func TestAuthRefresh(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	manager := &stubSessionTokenManager{
		rotateRespID:  "new-jti",
		rotateRespTok: "new-refresh",
	}
	userID := uuid.New()
	// The stored role wins over the one in the presented token.
	lookup := stubUserLookup{user: &models.User{ID: userID, Username: "alice", Role: enums.UserRoleAdmin, IsActive: true}}

	token, jti := mintTestToken(t, cfg, userID, enums.UserRoleUser, time.Now().Add(-time.Hour))
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(`{"refresh_token":"old-refresh"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthRefresh(manager, lookup, cfg, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if manager.lastRotateOld != jti || manager.lastRotateBody != "old-refresh" || manager.lastRotateUser != userID {
		t.Fatalf("unexpected rotate call %+v", manager)
	}

	resp := decodeData[refreshResponse](t, rec)
	if resp.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected refresh token %q", resp.RefreshToken)
	}
	claims, err := auth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse new token: %v", err)
	}
	if claims.ID != "new-jti" {
		t.Fatalf("expected new jti, got %s", claims.ID)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("expected refreshed role ADMIN, got %s", claims.Role)
	}
}

func TestAuthRefreshInvalidRefreshToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	manager := &stubSessionTokenManager{rotateErr: session.ErrInvalidRefreshToken}
	userID := uuid.New()
	lookup := stubUserLookup{user: &models.User{ID: userID, Role: enums.UserRoleUser, IsActive: true}}

	token, _ := mintTestToken(t, cfg, userID, enums.UserRoleUser, time.Now())
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(`{"refresh_token":"wrong"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthRefresh(manager, lookup, cfg, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthRefreshInactiveUserRevokes(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	manager := &stubSessionTokenManager{}
	userID := uuid.New()
	lookup := stubUserLookup{user: &models.User{ID: userID, Role: enums.UserRoleUser, IsActive: false}}

	token, jti := mintTestToken(t, cfg, userID, enums.UserRoleUser, time.Now())
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(`{"refresh_token":"r"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthRefresh(manager, lookup, cfg, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if manager.lastRevoked != jti {
		t.Fatalf("expected session %s revoked", jti)
	}
	if manager.lastRotateOld != "" {
		t.Fatal("rotate must not run for inactive users")
	}
}

func TestAuthRefreshUnknownUser(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	token, _ := mintTestToken(t, cfg, uuid.New(), enums.UserRoleUser, time.Now())
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(`{"refresh_token":"r"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthRefresh(&stubSessionTokenManager{}, stubUserLookup{err: gorm.ErrRecordNotFound}, cfg, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
