package main

import (
	"net/http"
	"os"
	"time"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/commission"
	"github.com/opsforge/workflow-automation/internal/contact"
	"github.com/opsforge/workflow-automation/internal/integration"
	"github.com/opsforge/workflow-automation/internal/invoice"
	"github.com/opsforge/workflow-automation/internal/logger"
	"github.com/opsforge/workflow-automation/internal/opportunity"
	"github.com/opsforge/workflow-automation/internal/organization"
	"github.com/opsforge/workflow-automation/internal/receipt"
	syncsvc "github.com/opsforge/workflow-automation/internal/sync"
	"github.com/opsforge/workflow-automation/internal/teampayment"
	"github.com/opsforge/workflow-automation/internal/user"
	"github.com/opsforge/workflow-automation/internal/utils/db"
	"github.com/opsforge/workflow-automation/internal/workflow"

	"github.com/go-co-op/gocron"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("workflow-automation")
	defer log.Sync()

	database, err := db.GetDB()
	if err != nil {
		log.Fatalw("database connection failed", "error", err)
	}

	if err := database.AutoMigrate(
		&user.User{},
		&organization.Organization{},
		&organization.OrganizationMember{},
		&auth.RefreshToken{},
		&integration.Integration{},
		&contact.ContactCache{},
		&opportunity.OpportunityCache{},
		&invoice.InvoiceCache{},
		&commission.CommissionAssignment{},
		&receipt.Receipt{},
		&teampayment.TeamPayment{},
		&workflow.Workflow{},
		&workflow.Execution{},
	); err != nil {
		log.Fatalw("auto-migration failed", "error", err)
	}

	// Handlers
	userHandler := user.NewHandler(database, log)
	orgHandler := organization.NewHandler(database, log)
	integrationHandler := integration.NewHandler(database, log)
	contactHandler := contact.NewHandler(database)
	opportunityHandler := opportunity.NewHandler(database)
	invoiceHandler := invoice.NewHandler(database)
	commissionHandler := commission.NewHandler(database, log)
	receiptHandler := receipt.NewHandler(database)
	teamPaymentHandler := teampayment.NewHandler(database)
	workflowHandler := workflow.NewHandler(database, log)

	syncer := syncsvc.NewSyncer(database, log, integrationHandler.BuildClient)
	syncHandler := syncsvc.NewHandler(syncer)

	scheduler := gocron.NewScheduler(time.UTC)
	if err := syncer.Schedule(scheduler); err != nil {
		log.Fatalw("scheduling sync failed", "error", err)
	}
	scheduler.StartAsync()

	// Router
	r := mux.NewRouter()

	// Auth routes (no bearer token required)
	r.HandleFunc("/auth/signup", userHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", userHandler.Login).Methods("POST")
	r.HandleFunc("/auth/refresh", auth.RefreshHTTPHandler(database)).Methods("POST")
	r.HandleFunc("/auth/logout", auth.LogoutHTTPHandler(database)).Methods("POST")

	api := r.PathPrefix("/").Subrouter()
	api.Use(auth.Middleware)

	api.HandleFunc("/users/me", userHandler.Me).Methods("GET")

	// Organizations
	api.HandleFunc("/organizations/{id}", orgHandler.Get).Methods("GET")
	api.HandleFunc("/organizations/{id}/members", orgHandler.ListMembers).Methods("GET")

	admin := api.PathPrefix("/").Subrouter()
	admin.Use(auth.RequireAdmin)
	admin.HandleFunc("/organizations/{id}", orgHandler.Update).Methods("PUT")
	admin.HandleFunc("/organizations/{id}/subscription", orgHandler.UpdateSubscription).Methods("PUT")
	admin.HandleFunc("/organizations/{id}/members", userHandler.InviteMember).Methods("POST")
	admin.HandleFunc("/organizations/{id}/members/{userId}", orgHandler.UpdateMemberRole).Methods("PUT")
	admin.HandleFunc("/organizations/{id}/members/{userId}", orgHandler.DeactivateMember).Methods("DELETE")

	// CRM integration
	api.HandleFunc("/integrations/ghl/connect", integrationHandler.Connect).Methods("POST")
	api.HandleFunc("/integrations/ghl", integrationHandler.Disconnect).Methods("DELETE")
	api.HandleFunc("/integrations", integrationHandler.List).Methods("GET")

	api.HandleFunc("/crm/contacts", integrationHandler.Contacts).Methods("GET")
	api.HandleFunc("/crm/opportunities", integrationHandler.Opportunities).Methods("GET")
	api.HandleFunc("/crm/invoices", integrationHandler.Invoices).Methods("GET")

	// Cached CRM data
	api.HandleFunc("/contacts", contactHandler.List).Methods("GET")
	api.HandleFunc("/opportunities", opportunityHandler.Search).Methods("GET")
	api.HandleFunc("/opportunities/{opportunityId}", opportunityHandler.Get).Methods("GET")
	api.HandleFunc("/invoices", invoiceHandler.List).Methods("GET")

	// Commissions
	api.HandleFunc("/commissions", commissionHandler.Create).Methods("POST")
	api.HandleFunc("/commissions", commissionHandler.List).Methods("GET")
	api.HandleFunc("/commissions/summary", commissionHandler.Summary).Methods("GET")
	api.HandleFunc("/commissions/{id}/mark-paid", commissionHandler.MarkPaid).Methods("POST")
	api.HandleFunc("/commissions/{id}/toggle", commissionHandler.Toggle).Methods("POST")
	api.HandleFunc("/commissions/{id}", commissionHandler.Delete).Methods("DELETE")

	// Receipts
	api.HandleFunc("/receipts", receiptHandler.Create).Methods("POST")
	api.HandleFunc("/receipts", receiptHandler.List).Methods("GET")
	api.HandleFunc("/receipts/{id}", receiptHandler.Update).Methods("PUT")
	api.HandleFunc("/receipts/{id}", receiptHandler.Delete).Methods("DELETE")

	// Team payments
	api.HandleFunc("/team-payments", teamPaymentHandler.Create).Methods("POST")
	api.HandleFunc("/team-payments", teamPaymentHandler.List).Methods("GET")
	api.HandleFunc("/team-payments/{id}/mark-paid", teamPaymentHandler.MarkPaid).Methods("POST")
	api.HandleFunc("/team-payments/{id}", teamPaymentHandler.Delete).Methods("DELETE")

	// Workflows
	api.HandleFunc("/workflows", workflowHandler.Create).Methods("POST")
	api.HandleFunc("/workflows", workflowHandler.List).Methods("GET")
	api.HandleFunc("/workflows/{id}", workflowHandler.Get).Methods("GET")
	api.HandleFunc("/workflows/{id}", workflowHandler.Update).Methods("PUT")
	api.HandleFunc("/workflows/{id}", workflowHandler.Delete).Methods("DELETE")
	api.HandleFunc("/workflows/{id}/execute", workflowHandler.Execute).Methods("POST")
	api.HandleFunc("/workflows/{id}/executions", workflowHandler.ListExecutions).Methods("GET")
	api.HandleFunc("/executions/{executionId}", workflowHandler.GetExecution).Methods("GET")

	// Sync
	api.HandleFunc("/sync/run", syncHandler.Run).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Infow("server listening", "port", port)
	if err := http.ListenAndServe(":"+port, c.Handler(r)); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
