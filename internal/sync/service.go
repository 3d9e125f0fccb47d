package sync

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/opsforge/workflow-automation/internal/commission"
	"github.com/opsforge/workflow-automation/internal/contact"
	"github.com/opsforge/workflow-automation/internal/ghl"
	"github.com/opsforge/workflow-automation/internal/integration"
	"github.com/opsforge/workflow-automation/internal/invoice"
	"github.com/opsforge/workflow-automation/internal/notification"
	"github.com/opsforge/workflow-automation/internal/opportunity"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pageSize = 100

// Result summarizes one organization's sync run.
type Result struct {
	Contacts            int `json:"contacts"`
	Opportunities       int `json:"opportunities"`
	Invoices            int `json:"invoices"`
	NewAssignments      int `json:"newAssignments"`
	DuplicateContacts   int `json:"duplicateContacts"`
}

// ClientBuilder resolves an org to a ready CRM client plus its integration
// row; wired to integration.Handler.BuildClient in main.
type ClientBuilder func(orgID uint) (*ghl.Client, *integration.Integration, error)

// Syncer pulls CRM data into the cache tables on a schedule or on demand.
type Syncer struct {
	DB           *gorm.DB
	Log          *zap.SugaredLogger
	BuildClient  ClientBuilder
	Integrations integration.Repository
	Contacts     contact.Repository
	Opportunities opportunity.Repository
	Invoices     invoice.Repository
	Commissions  commission.Repository
}

func NewSyncer(db *gorm.DB, log *zap.SugaredLogger, build ClientBuilder) *Syncer {
	return &Syncer{
		DB:            db,
		Log:           log,
		BuildClient:   build,
		Integrations:  integration.NewRepository(),
		Contacts:      contact.NewRepository(),
		Opportunities: opportunity.NewRepository(),
		Invoices:      invoice.NewRepository(),
		Commissions:   commission.NewRepository(),
	}
}

// Schedule registers the periodic sync for every active integration.
func (s *Syncer) Schedule(scheduler *gocron.Scheduler) error {
	minutes := 30
	if v, err := strconv.Atoi(os.Getenv("SYNC_INTERVAL_MINUTES")); err == nil && v > 0 {
		minutes = v
	}
	_, err := scheduler.Every(minutes).Minutes().Do(func() {
		s.SyncAll(context.Background())
	})
	return err
}

// SyncAll runs one pass over every org with an active GHL connection.
func (s *Syncer) SyncAll(ctx context.Context) {
	var orgIDs []uint
	err := s.DB.Model(&integration.Integration{}).
		Where("type = ? AND is_active = ?", integration.TypeGoHighLevel, true).
		Pluck("organization_id", &orgIDs).Error
	if err != nil {
		s.Log.Errorw("list active integrations", "error", err)
		return
	}

	for _, orgID := range orgIDs {
		if _, err := s.SyncOrganization(ctx, orgID); err != nil {
			s.Log.Errorw("sync organization", "org", orgID, "error", err)
		}
	}
}

// SyncOrganization pulls contacts, opportunities, and invoices for one org
// and upserts the cache tables. First-seen opportunities with an assignee
// get a commission assignment at the integration's default rate.
func (s *Syncer) SyncOrganization(ctx context.Context, orgID uint) (*Result, error) {
	client, in, err := s.BuildClient(orgID)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	start := time.Now()

	if err := s.syncContacts(ctx, client, orgID, res); err != nil {
		return res, err
	}
	if err := s.syncOpportunities(ctx, client, in, orgID, res); err != nil {
		return res, err
	}
	if err := s.syncInvoices(ctx, client, orgID, res); err != nil {
		return res, err
	}

	s.Log.Infow("sync finished",
		"org", orgID,
		"contacts", res.Contacts,
		"opportunities", res.Opportunities,
		"invoices", res.Invoices,
		"newAssignments", res.NewAssignments,
		"took", time.Since(start))
	return res, nil
}

func (s *Syncer) syncContacts(ctx context.Context, client *ghl.Client, orgID uint, res *Result) error {
	for offset := 0; ; offset += pageSize {
		page, err := client.ListContacts(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		for _, c := range page {
			if c.Email != "" {
				count, err := s.Contacts.CountByEmail(s.DB, orgID, c.Email)
				if err == nil && count > 0 {
					// Only alert when a *different* contact already owns
					// the email.
					var existing int64
					s.DB.Model(&contact.ContactCache{}).
						Where("organization_id = ? AND email = ? AND contact_id <> ?", orgID, c.Email, c.ID).
						Count(&existing)
					if existing > 0 {
						res.DuplicateContacts++
						notification.SendDuplicateContactAlert(s.Log, orgID, c.Email)
					}
				}
			}
			if err := s.Contacts.Upsert(s.DB, &contact.ContactCache{
				OrganizationID: orgID,
				ContactID:      c.ID,
				FirstName:      c.FirstName,
				LastName:       c.LastName,
				Email:          c.Email,
				Phone:          c.Phone,
				Tags:           c.Tags,
			}); err != nil {
				return err
			}
			res.Contacts++
		}
		if len(page) < pageSize {
			return nil
		}
	}
}

func (s *Syncer) syncOpportunities(ctx context.Context, client *ghl.Client, in *integration.Integration, orgID uint, res *Result) error {
	defaultRate := in.Config.DefaultCommissionRate

	for offset := 0; ; offset += pageSize {
		page, err := client.ListOpportunities(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		for _, o := range page {
			created, err := s.Opportunities.Upsert(s.DB, &opportunity.OpportunityCache{
				OrganizationID: orgID,
				OpportunityID:  o.ID,
				Name:           o.Name,
				ContactID:      o.ContactID,
				ContactName:    o.ContactName,
				ContactEmail:   o.ContactEmail,
				MonetaryValue:  o.MonetaryValue,
				PipelineID:     o.PipelineID,
				Stage:          o.StageID,
				Status:         o.Status,
				AssignedTo:     o.AssignedTo,
			})
			if err != nil {
				return err
			}
			res.Opportunities++

			if created && o.AssignedTo != "" && defaultRate > 0 {
				if _, err := s.Commissions.Upsert(s.DB, &commission.CommissionAssignment{
					OrganizationID: orgID,
					OpportunityID:  o.ID,
					GHLUserID:      o.AssignedTo,
					CommissionType: commission.TypePercentageGross,
					BaseRate:       commission.ClampRate(commission.TypePercentageGross, defaultRate),
				}); err != nil {
					return err
				}
				res.NewAssignments++
			}
		}
		if len(page) < pageSize {
			return nil
		}
	}
}

func (s *Syncer) syncInvoices(ctx context.Context, client *ghl.Client, orgID uint, res *Result) error {
	for offset := 0; ; offset += pageSize {
		page, err := client.ListInvoices(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		for _, inv := range page {
			row := invoice.InvoiceCache{
				OrganizationID: orgID,
				InvoiceID:      inv.ID,
				Name:           inv.Name,
				ContactID:      inv.ContactID,
				Total:          inv.Total,
				Status:         inv.Status,
			}
			if t, err := time.Parse(time.RFC3339, inv.IssueDate); err == nil {
				row.IssuedAt = &t
			}
			if t, err := time.Parse(time.RFC3339, inv.DueDate); err == nil {
				row.DueAt = &t
			}
			if err := s.Invoices.Upsert(s.DB, &row); err != nil {
				return err
			}
			res.Invoices++
		}
		if len(page) < pageSize {
			return nil
		}
	}
}
