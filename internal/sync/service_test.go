package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opsforge/workflow-automation/internal/commission"
	"github.com/opsforge/workflow-automation/internal/contact"
	"github.com/opsforge/workflow-automation/internal/crypto"
	"github.com/opsforge/workflow-automation/internal/ghl"
	"github.com/opsforge/workflow-automation/internal/integration"
	"github.com/opsforge/workflow-automation/internal/invoice"
	"github.com/opsforge/workflow-automation/internal/opportunity"

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
	if err := db.AutoMigrate(
		&integration.Integration{},
		&contact.ContactCache{},
		&opportunity.OpportunityCache{},
		&invoice.InvoiceCache{},
		&commission.CommissionAssignment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func fakeCRM(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contacts/":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"contacts": []ghl.Contact{
					{ID: "c1", FirstName: "Ann", Email: "ann@x.co"},
					{ID: "c2", FirstName: "Bob", Email: "bob@x.co"},
				},
			})
		case "/opportunities/search":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"opportunities": []ghl.Opportunity{
					{ID: "o1", Name: "Deal", MonetaryValue: 1000, Status: "open", AssignedTo: "u1"},
				},
			})
		case "/invoices/":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"invoices": []ghl.Invoice{
					{ID: "i1", Name: "INV-1", Total: 250, Status: "paid"},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
}

func seedSyncer(t *testing.T, db *gorm.DB, defaultRate float64) *Syncer {
	t.Helper()
	encPIT, err := crypto.Encrypt("pit-token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	in := &integration.Integration{
		OrganizationID: 1,
		Type:           integration.TypeGoHighLevel,
		Config: integration.Config{
			PIT:                   encPIT,
			LocationID:            "loc-1",
			DefaultCommissionRate: defaultRate,
		},
		IsActive: true,
	}
	if _, err := integration.NewRepository().Upsert(db, in); err != nil {
		t.Fatalf("seed integration: %v", err)
	}

	build := func(orgID uint) (*ghl.Client, *integration.Integration, error) {
		row, err := integration.NewRepository().FindActive(db, orgID, integration.TypeGoHighLevel)
		if err != nil {
			return nil, nil, err
		}
		pit, err := crypto.Decrypt(row.Config.PIT)
		if err != nil {
			return nil, nil, err
		}
		return ghl.NewPITClient(pit, row.Config.LocationID), row, nil
	}
	return NewSyncer(db, zap.NewNop().Sugar(), build)
}

func TestSyncOrganizationPopulatesCaches(t *testing.T) {
	t.Setenv("TOKEN_ENCRYPTION_KEY", "test-key")
	db := testDB(t)

	srv := fakeCRM(t)
	defer srv.Close()
	t.Setenv("GHL_API_BASE", srv.URL)

	s := seedSyncer(t, db, 10)

	res, err := s.SyncOrganization(context.Background(), 1)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Contacts != 2 || res.Opportunities != 1 || res.Invoices != 1 {
		t.Fatalf("result = %+v", res)
	}

	// First-seen opportunity with an assignee must get an assignment at the
	// default rate.
	if res.NewAssignments != 1 {
		t.Fatalf("new assignments = %d", res.NewAssignments)
	}
	var a commission.CommissionAssignment
	if err := db.Where("opportunity_id = ? AND ghl_user_id = ?", "o1", "u1").First(&a).Error; err != nil {
		t.Fatalf("assignment row: %v", err)
	}
	if a.BaseRate != 10 || a.CommissionType != commission.TypePercentageGross {
		t.Fatalf("assignment = %+v", a)
	}
}

func TestSyncTwiceIsIdempotent(t *testing.T) {
	t.Setenv("TOKEN_ENCRYPTION_KEY", "test-key")
	db := testDB(t)

	srv := fakeCRM(t)
	defer srv.Close()
	t.Setenv("GHL_API_BASE", srv.URL)

	s := seedSyncer(t, db, 10)

	for i := 0; i < 2; i++ {
		if _, err := s.SyncOrganization(context.Background(), 1); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}

	var contacts, opps, invoices, assignments int64
	db.Model(&contact.ContactCache{}).Count(&contacts)
	db.Model(&opportunity.OpportunityCache{}).Count(&opps)
	db.Model(&invoice.InvoiceCache{}).Count(&invoices)
	db.Model(&commission.CommissionAssignment{}).Count(&assignments)

	if contacts != 2 || opps != 1 || invoices != 1 || assignments != 1 {
		t.Fatalf("rows after double sync = %d/%d/%d/%d", contacts, opps, invoices, assignments)
	}
}

func TestSyncWithoutConnectionFails(t *testing.T) {
	t.Setenv("TOKEN_ENCRYPTION_KEY", "test-key")
	db := testDB(t)
	s := NewSyncer(db, zap.NewNop().Sugar(), func(orgID uint) (*ghl.Client, *integration.Integration, error) {
		return nil, nil, integration.ErrNotConnected
	})

	if _, err := s.SyncOrganization(context.Background(), 99); err == nil {
		t.Fatalf("expected error for unconnected org")
	}
}
