package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"gorm.io/gorm"

	"dailyreport/config"
	"dailyreport/csvio"
	"dailyreport/database"
	"dailyreport/middleware"
	"dailyreport/models"
	"dailyreport/policy"
)

// ExchangeHandler serves the CSV export/import screens for approvers.
type ExchangeHandler struct {
	config    *config.Config
	templates map[string]*template.Template
	log       *slog.Logger
}

func NewExchangeHandler(cfg *config.Config, templates map[string]*template.Template, log *slog.Logger) *ExchangeHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ExchangeHandler{
		config:    cfg,
		templates: templates,
		log:       log,
	}
}

func (h *ExchangeHandler) ExportPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	data := map[string]interface{}{
		"User":    user,
		"Error":   r.URL.Query().Get("error"),
		"Success": r.URL.Query().Get("success"),
	}
	h.templates["export"].ExecuteTemplate(w, "base", data)
}

// ExportCSV streams every report the actor may see as a Shift_JIS CSV
// attachment, reports date-descending with details in start-time order.
func (h *ExchangeHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var reports []models.Report
	err := policy.Scope(database.GetDB().Model(&models.Report{}), user).
		Preload("User").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("start_time asc") }).
		Order("reports.date desc").
		Find(&reports).Error
	if err != nil {
		http.Error(w, "Failed to load reports", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("daily_report_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=Shift_JIS")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := csvio.Export(w, reports); err != nil {
		h.log.Error("csv export failed", "error", err)
	}
}

func (h *ExchangeHandler) ImportPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	data := map[string]interface{}{
		"User":    user,
		"Error":   r.URL.Query().Get("error"),
		"Success": r.URL.Query().Get("success"),
	}
	h.templates["import"].ExecuteTemplate(w, "base", data)
}

// ImportCSV applies an uploaded exchange file. The import is atomic: a
// malformed row rolls everything back and only the error message reaches
// the user.
func (h *ExchangeHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		http.Redirect(w, r, "/import?error=Invalid+upload", http.StatusSeeOther)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Redirect(w, r, "/import?error=Choose+a+CSV+file+to+import", http.StatusSeeOther)
		return
	}
	defer file.Close()

	res, err := csvio.NewImporter(database.GetDB(), h.log).Import(file)
	if err != nil {
		h.log.Warn("csv import aborted", "error", err)
		msg := url.QueryEscape(fmt.Sprintf("Import failed, nothing was saved: %v", err))
		http.Redirect(w, r, "/import?error="+msg, http.StatusSeeOther)
		return
	}

	msg := url.QueryEscape(fmt.Sprintf("Imported %d rows (%d skipped)", res.Imported, res.Skipped))
	http.Redirect(w, r, "/import?success="+msg, http.StatusSeeOther)
}
