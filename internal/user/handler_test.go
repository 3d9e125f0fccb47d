package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/organization"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&User{},
		&organization.Organization{},
		&organization.OrganizationMember{},
		&auth.RefreshToken{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func inviteRequestFor(orgID uint, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/organizations/%d/members", orgID), strings.NewReader(body))
	ctx := context.WithValue(req.Context(), auth.UserIDKey, uint(1))
	ctx = context.WithValue(ctx, auth.OrgIDKey, orgID)
	ctx = context.WithValue(ctx, auth.IsAdminKey, true)
	return mux.SetURLVars(req.WithContext(ctx), map[string]string{"id": fmt.Sprint(orgID)})
}

func TestSignupBootstrapsTenant(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	body := `{"email":"owner@acme.io","password":"hunter22","firstName":"Ada","organizationName":"Acme Ops"}`
	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var u User
	if err := db.Where("email = ?", "owner@acme.io").First(&u).Error; err != nil {
		t.Fatalf("user row: %v", err)
	}
	if u.PasswordHash == "hunter22" || u.PasswordHash == "" {
		t.Fatalf("password stored badly")
	}

	var org organization.Organization
	if err := db.Where("slug = ?", "acme-ops").First(&org).Error; err != nil {
		t.Fatalf("org row: %v", err)
	}
	if org.SubscriptionStatus != organization.StatusTrialing {
		t.Fatalf("subscription status = %q", org.SubscriptionStatus)
	}

	var m organization.OrganizationMember
	if err := db.Where("organization_id = ? AND user_id = ?", org.ID, u.ID).First(&m).Error; err != nil {
		t.Fatalf("membership row: %v", err)
	}
	if m.Role != organization.RoleOwner || !m.IsActive {
		t.Fatalf("membership = %+v", m)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"a@b.co","password":"correct","organizationName":"B"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@b.co","password":"wrong"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", rec.Code)
	}
}

func TestLoginIssuesTokenWithOrgScope(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"a@b.co","password":"pw123456","organizationName":"B Corp"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@b.co","password":"pw123456"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	// Login must also set the refresh cookie.
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.RefreshCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("refresh cookie not set")
	}
}

func TestInviteCreatesAccountWithTempPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"owner@c.io","password":"pw123456","organizationName":"C Corp"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.InviteMember(rec, inviteRequestFor(1, `{"email":"new@c.io","role":"member","firstName":"Nia"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	temp, _ := resp["temporaryPassword"].(string)
	if temp == "" {
		t.Fatalf("no temporary password in response")
	}

	var u User
	if err := db.Where("email = ?", "new@c.io").First(&u).Error; err != nil {
		t.Fatalf("user row: %v", err)
	}
	if !u.NeedsPasswordReset {
		t.Fatalf("invited user should need a password reset")
	}

	var m organization.OrganizationMember
	if err := db.Where("organization_id = 1 AND user_id = ?", u.ID).First(&m).Error; err != nil {
		t.Fatalf("membership row: %v", err)
	}
	if m.Role != organization.RoleMember || !m.IsActive {
		t.Fatalf("membership = %+v", m)
	}

	// The relayed credential must work and flag the pending reset.
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"new@c.io","password":"`+temp+`"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var login map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login["needsPasswordReset"] != true {
		t.Fatalf("needsPasswordReset = %v", login["needsPasswordReset"])
	}
}

func TestInviteReactivatesRemovedMember(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"owner@d.io","password":"pw123456","organizationName":"D Corp"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.InviteMember(rec, inviteRequestFor(1, `{"email":"back@d.io"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first invite status = %d", rec.Code)
	}

	var u User
	if err := db.Where("email = ?", "back@d.io").First(&u).Error; err != nil {
		t.Fatalf("user row: %v", err)
	}
	if err := organization.NewRepository().DeactivateMember(db, 1, u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	rec = httptest.NewRecorder()
	h.InviteMember(rec, inviteRequestFor(1, `{"email":"back@d.io","role":"admin"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("re-invite status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := resp["temporaryPassword"]; ok {
		t.Fatalf("existing account must keep its password")
	}

	var users int64
	db.Model(&User{}).Where("email = ?", "back@d.io").Count(&users)
	if users != 1 {
		t.Fatalf("user rows = %d, want 1", users)
	}

	m, err := organization.NewRepository().FindMember(db, 1, u.ID)
	if err != nil {
		t.Fatalf("membership: %v", err)
	}
	if !m.IsActive || m.Role != organization.RoleAdmin {
		t.Fatalf("membership = %+v", m)
	}
}

func TestInviteRejectsDuplicateAndBadRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"owner@e.io","password":"pw123456","organizationName":"E Corp"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.InviteMember(rec, inviteRequestFor(1, `{"email":"owner@e.io"}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate invite status = %d, want 409", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.InviteMember(rec, inviteRequestFor(1, `{"email":"x@e.io","role":"superuser"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role status = %d, want 400", rec.Code)
	}
}
