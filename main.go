package main

import (
	"html/template"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"dailyreport/approval"
	"dailyreport/config"
	"dailyreport/database"
	"dailyreport/handlers"
	"dailyreport/middleware"
	"dailyreport/models"
	"dailyreport/notify"
	"dailyreport/policy"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	middleware.SetJWTSecret(cfg.JWTSecret)

	if err := database.Init(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Parse templates - each page template paired with base
	templates := make(map[string]*template.Template)
	pages := []string{
		"login", "change-password", "dashboard",
		"report-form", "report-edit", "import", "export",
		"users", "user-edit", "groups",
	}
	for _, page := range pages {
		templates[page] = template.Must(template.ParseFiles(
			"templates/base.html",
			"templates/"+page+".html",
		))
	}

	// Notification transport: SMTP when configured, otherwise log-only.
	var notifier notify.Notifier = notify.Noop{}
	if cfg.SMTPEnabled() {
		notifier = notify.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		logger.Warn("SMTP not configured, submission notices are disabled")
	}

	approvalSvc := approval.NewService(database.GetDB(), notifier, logger, cfg.BaseURL)

	authHandler := handlers.NewAuthHandler(cfg, templates)
	reportHandler := handlers.NewReportHandler(cfg, templates, approvalSvc, policy.Default())
	exchangeHandler := handlers.NewExchangeHandler(cfg, templates, logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	// Public routes
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	router.Get("/login", authHandler.LoginPage)
	router.Post("/login", authHandler.Login)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)

		r.Get("/logout", authHandler.Logout)

		// Accessible even when a password change is pending
		r.Get("/change-password", authHandler.ChangePasswordPage)
		r.Post("/change-password", authHandler.ChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePasswordChange)

			r.Get("/dashboard", reportHandler.Dashboard)

			// Daily reports
			r.Get("/reports/new", reportHandler.NewReportPage)
			r.Post("/reports/new", reportHandler.CreateReport)
			r.Get("/reports/edit", reportHandler.EditReportPage)
			r.Post("/reports/edit", reportHandler.UpdateReport)
			r.Post("/reports/details/add", reportHandler.AddDetail)
			r.Post("/reports/details/delete", reportHandler.DeleteDetail)
			r.Post("/reports/submit", reportHandler.SubmitReport)
			r.Post("/reports/delete", reportHandler.DeleteReport)

			// Approver routes: confirmation toggle and CSV exchange
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireApprover)
				r.Post("/reports/confirm", reportHandler.ConfirmReport)
				r.Get("/export", exchangeHandler.ExportPage)
				r.Get("/export/csv", exchangeHandler.ExportCSV)
				r.Get("/import", exchangeHandler.ImportPage)
				r.Post("/import", exchangeHandler.ImportCSV)
			})

			// Admin only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/users", authHandler.UsersPage)
				r.Post("/users", authHandler.CreateUser)
				r.Get("/users/edit", authHandler.EditUserPage)
				r.Post("/users/edit", authHandler.UpdateUser)
				r.Post("/users/delete", authHandler.DeleteUser)
				r.Get("/groups", authHandler.GroupsPage)
				r.Post("/groups", authHandler.CreateGroup)
				r.Post("/groups/delete", authHandler.DeleteGroup)
			})
		})
	})

	log.Printf("Server starting on port %s", cfg.ServerPort)
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, router))
}
