package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/crypto"
	"github.com/opsforge/workflow-automation/internal/ghl"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Integration{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func authedRequest(method, target string, body string, orgID uint) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, uint(1))
	ctx = context.WithValue(ctx, auth.OrgIDKey, orgID)
	ctx = context.WithValue(ctx, auth.IsAdminKey, true)
	return req.WithContext(ctx)
}

func TestConnectUpsertIsIdempotent(t *testing.T) {
	t.Setenv("TOKEN_ENCRYPTION_KEY", "test-key")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	for _, pit := range []string{"pit-first", "pit-latest"} {
		body := `{"pit":"` + pit + `","locationId":"loc-9"}`
		rec := httptest.NewRecorder()
		h.Connect(rec, authedRequest(http.MethodPost, "/integrations/ghl/connect", body, 42))
		if rec.Code != http.StatusOK {
			t.Fatalf("connect status = %d: %s", rec.Code, rec.Body.String())
		}
	}

	var count int64
	db.Model(&Integration{}).Where("organization_id = ?", 42).Count(&count)
	if count != 1 {
		t.Fatalf("rows = %d, want 1", count)
	}

	in, err := NewRepository().FindActive(db, 42, TypeGoHighLevel)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	pit, err := crypto.Decrypt(in.Config.PIT)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if pit != "pit-latest" {
		t.Fatalf("stored pit = %q, want latest value", pit)
	}
}

func TestDisconnectBlocksProxyWithoutNetworkCall(t *testing.T) {
	t.Setenv("TOKEN_ENCRYPTION_KEY", "test-key")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	// Any upstream traffic after disconnect is a bug.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected CRM call to %s", r.URL.Path)
	}))
	defer srv.Close()
	t.Setenv("GHL_API_BASE", srv.URL)

	rec := httptest.NewRecorder()
	h.Connect(rec, authedRequest(http.MethodPost, "/integrations/ghl/connect", `{"pit":"pit-1","locationId":"loc-1"}`, 7))
	if rec.Code != http.StatusOK {
		t.Fatalf("connect status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Disconnect(rec, authedRequest(http.MethodDelete, "/integrations/ghl", "", 7))
	if rec.Code != http.StatusOK {
		t.Fatalf("disconnect status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Contacts(rec, authedRequest(http.MethodGet, "/crm/contacts", "", 7))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("proxy status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "integration not connected" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestRefreshPersistsReencryptedTokens(t *testing.T) {
	t.Setenv("TOKEN_ENCRYPTION_KEY", "test-key")
	t.Setenv("GHL_CLIENT_ID", "cid")
	t.Setenv("GHL_CLIENT_SECRET", "secret")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			_ = json.NewEncoder(w).Encode(ghl.Tokens{
				AccessToken:  "rotated-access",
				RefreshToken: "rotated-refresh",
				ExpiresIn:    86400,
			})
		case "/contacts/":
			if r.Header.Get("Authorization") != "Bearer rotated-access" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Invalid JWT"}`))
				return
			}
			_, _ = w.Write([]byte(`{"contacts":[]}`))
		}
	}))
	defer srv.Close()
	t.Setenv("GHL_API_BASE", srv.URL)

	encAccess, _ := crypto.Encrypt("stale-access")
	encRefresh, _ := crypto.Encrypt("old-refresh")
	if _, err := NewRepository().Upsert(db, &Integration{
		OrganizationID: 9,
		Type:           TypeGoHighLevel,
		Config:         Config{AccessToken: encAccess, RefreshToken: encRefresh, LocationID: "loc-1"},
		IsActive:       true,
	}); err != nil {
		t.Fatalf("seed integration: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Contacts(rec, authedRequest(http.MethodGet, "/crm/contacts", "", 9))
	if rec.Code != http.StatusOK {
		t.Fatalf("proxy status = %d: %s", rec.Code, rec.Body.String())
	}

	// Subsequent decrypt must yield the rotated token, never the old one.
	in, err := NewRepository().FindActive(db, 9, TypeGoHighLevel)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	access, err := crypto.Decrypt(in.Config.AccessToken)
	if err != nil {
		t.Fatalf("decrypt access: %v", err)
	}
	if access != "rotated-access" {
		t.Fatalf("persisted access = %q", access)
	}
	refresh, err := crypto.Decrypt(in.Config.RefreshToken)
	if err != nil {
		t.Fatalf("decrypt refresh: %v", err)
	}
	if refresh != "rotated-refresh" {
		t.Fatalf("persisted refresh = %q", refresh)
	}
}

func TestRevokedPITMapsToReconnect(t *testing.T) {
	t.Setenv("TOKEN_ENCRYPTION_KEY", "test-key")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid or revoked token"}`))
	}))
	defer srv.Close()
	t.Setenv("GHL_API_BASE", srv.URL)

	rec := httptest.NewRecorder()
	h.Connect(rec, authedRequest(http.MethodPost, "/integrations/ghl/connect", `{"pit":"revoked-pit","locationId":"loc-3"}`, 11))
	if rec.Code != http.StatusOK {
		t.Fatalf("connect status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Contacts(rec, authedRequest(http.MethodGet, "/crm/contacts", "", 11))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("proxy status = %d, want 401", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "authentication failed, please reconnect" {
		t.Fatalf("error = %q, want reconnect message", body["error"])
	}
}

func TestFindActiveUnknownOrg(t *testing.T) {
	db := testDB(t)
	_, err := NewRepository().FindActive(db, 999, TypeGoHighLevel)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}
