package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"dailyreport/approval"
	"dailyreport/config"
	"dailyreport/database"
	"dailyreport/middleware"
	"dailyreport/models"
	"dailyreport/policy"
)

type ReportHandler struct {
	config    *config.Config
	templates map[string]*template.Template
	approval  *approval.Service
	policy    policy.Policy
}

func NewReportHandler(cfg *config.Config, templates map[string]*template.Template, svc *approval.Service, pol policy.Policy) *ReportHandler {
	return &ReportHandler{
		config:    cfg,
		templates: templates,
		approval:  svc,
		policy:    pol,
	}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	db := database.GetDB()
	query := policy.Scope(db.Model(&models.Report{}), user).
		Preload("User").Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("start_time asc")
	})

	// Month/year filter
	monthStr := r.URL.Query().Get("month")
	yearStr := r.URL.Query().Get("year")
	var selectedMonth, selectedYear int
	if m, err := strconv.Atoi(monthStr); err == nil && m >= 1 && m <= 12 {
		selectedMonth = m
	}
	if y, err := strconv.Atoi(yearStr); err == nil && y >= 2000 && y <= 2100 {
		selectedYear = y
	}
	if selectedMonth > 0 && selectedYear > 0 {
		start := time.Date(selectedYear, time.Month(selectedMonth), 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("reports.date >= ? AND reports.date < ?", start, start.AddDate(0, 1, 0))
	} else if selectedYear > 0 {
		start := time.Date(selectedYear, 1, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("reports.date >= ? AND reports.date < ?", start, start.AddDate(1, 0, 0))
	}

	var reports []models.Report
	query.Order("reports.date desc").Limit(100).Find(&reports)

	currentYear := time.Now().Year()
	years := make([]int, 5)
	for i := 0; i < 5; i++ {
		years[i] = currentYear - i
	}

	data := map[string]interface{}{
		"User":          user,
		"Reports":       reports,
		"Error":         r.URL.Query().Get("error"),
		"Success":       r.URL.Query().Get("success"),
		"SelectedMonth": selectedMonth,
		"SelectedYear":  selectedYear,
		"Years":         years,
	}
	h.templates["dashboard"].ExecuteTemplate(w, "base", data)
}

func (h *ReportHandler) NewReportPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	data := map[string]interface{}{
		"User":  user,
		"Error": r.URL.Query().Get("error"),
		"Today": time.Now().Format("2006-01-02"),
	}
	h.templates["report-form"].ExecuteTemplate(w, "base", data)
}

func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/reports/new?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	date, err := time.Parse("2006-01-02", r.FormValue("date"))
	if err != nil {
		http.Redirect(w, r, "/reports/new?error=Invalid+date+format", http.StatusSeeOther)
		return
	}

	db := database.GetDB()

	// One report per user and date.
	var count int64
	db.Model(&models.Report{}).Where("user_id = ? AND date = ?", user.ID, date).Count(&count)
	if count > 0 {
		http.Redirect(w, r, "/reports/new?error=A+report+for+that+date+already+exists", http.StatusSeeOther)
		return
	}

	report := models.Report{
		UserID:  user.ID,
		Date:    date,
		Remarks: r.FormValue("remarks"),
	}
	if err := db.Create(&report).Error; err != nil {
		http.Redirect(w, r, "/reports/new?error=Failed+to+create+report", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&success=Report+created", report.ID), http.StatusSeeOther)
}

// loadReport fetches the report with owner and details and checks the
// actor's access. Returns nil after writing the response when denied.
func (h *ReportHandler) loadReport(w http.ResponseWriter, r *http.Request, idStr string, need policy.Level) (*models.Report, *models.User) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, nil
	}

	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		http.Redirect(w, r, "/dashboard?error=Invalid+report+ID", http.StatusSeeOther)
		return nil, nil
	}

	var report models.Report
	err = database.GetDB().
		Preload("User.Groups").Preload("User.Profile").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("start_time asc") }).
		First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Redirect(w, r, "/dashboard?error=Report+not+found", http.StatusSeeOther)
		} else {
			http.Redirect(w, r, "/dashboard?error=Failed+to+load+report", http.StatusSeeOther)
		}
		return nil, nil
	}

	if policy.Evaluate(user, &report.User) < need {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, nil
	}

	return &report, user
}

func (h *ReportHandler) EditReportPage(w http.ResponseWriter, r *http.Request) {
	report, user := h.loadReport(w, r, r.URL.Query().Get("id"), policy.LevelView)
	if report == nil {
		return
	}

	data := map[string]interface{}{
		"User":       user,
		"Report":     report,
		"State":      approval.StateOf(report),
		"CanComment": h.policy.CanComment(user, &report.User),
		"CanDelete":  h.policy.CanDelete(user, &report.User),
		"Error":      r.URL.Query().Get("error"),
		"Success":    r.URL.Query().Get("success"),
	}
	h.templates["report-edit"].ExecuteTemplate(w, "base", data)
}

func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	report, user := h.loadReport(w, r, r.FormValue("id"), policy.LevelEdit)
	if report == nil {
		return
	}

	updates := map[string]interface{}{
		"remarks": r.FormValue("remarks"),
	}
	// The supervisor comment is approver-only; silently keep the old
	// value for everyone else.
	if h.policy.CanComment(user, &report.User) {
		updates["comment"] = r.FormValue("comment")
	}

	// A plain save never touches is_submitted or boss_confirmation.
	if err := database.GetDB().Model(report).Updates(updates).Error; err != nil {
		http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&error=Failed+to+update+report", report.ID), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&success=Report+updated", report.ID), http.StatusSeeOther)
}

func (h *ReportHandler) AddDetail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	report, _ := h.loadReport(w, r, r.FormValue("report_id"), policy.LevelEdit)
	if report == nil {
		return
	}

	start := normalizeTime(r.FormValue("start_time"))
	end := normalizeTime(r.FormValue("end_time"))
	if start == "" || end == "" {
		http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&error=Start+and+end+time+are+required", report.ID), http.StatusSeeOther)
		return
	}

	detail := models.ReportDetail{
		ReportID:          report.ID,
		StartTime:         start,
		EndTime:           end,
		WorkTitle:         r.FormValue("work_title"),
		WorkDetail:        r.FormValue("work_detail"),
		Client:            r.FormValue("client"),
		ResponsiblePerson: r.FormValue("responsible_person"),
	}
	if err := database.GetDB().Create(&detail).Error; err != nil {
		http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&error=Failed+to+add+entry", report.ID), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&success=Entry+added", report.ID), http.StatusSeeOther)
}

func (h *ReportHandler) DeleteDetail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	report, _ := h.loadReport(w, r, r.FormValue("report_id"), policy.LevelEdit)
	if report == nil {
		return
	}

	detailID, err := strconv.ParseUint(r.FormValue("detail_id"), 10, 32)
	if err != nil {
		http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&error=Invalid+entry+ID", report.ID), http.StatusSeeOther)
		return
	}

	result := database.GetDB().
		Where("id = ? AND report_id = ?", detailID, report.ID).
		Delete(&models.ReportDetail{})
	if result.Error != nil || result.RowsAffected == 0 {
		http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&error=Entry+not+found", report.ID), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&success=Entry+removed", report.ID), http.StatusSeeOther)
}

// SubmitReport is the owner's explicit submit action.
func (h *ReportHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	report, user := h.loadReport(w, r, r.FormValue("id"), policy.LevelEdit)
	if report == nil {
		return
	}

	// Only the owner submits; an approver editing someone's report does
	// not submit on their behalf.
	if report.UserID != user.ID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.approval.Submit(r.Context(), report, &report.User); err != nil {
		http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&error=Failed+to+submit+report", report.ID), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&success=Report+submitted", report.ID), http.StatusSeeOther)
}

// ConfirmReport toggles the supervisor confirmation checkbox.
func (h *ReportHandler) ConfirmReport(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil || !user.IsApprover() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	report, _ := h.loadReport(w, r, r.FormValue("id"), policy.LevelEdit)
	if report == nil {
		return
	}

	confirmed := r.FormValue("confirmed") == "on" || r.FormValue("confirmed") == "true"
	if err := h.approval.SetConfirmation(r.Context(), report, confirmed); err != nil {
		http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&error=Failed+to+update+confirmation", report.ID), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/reports/edit?id=%d&success=Confirmation+updated", report.ID), http.StatusSeeOther)
}

func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	report, user := h.loadReport(w, r, r.FormValue("id"), policy.LevelEdit)
	if report == nil {
		return
	}

	if !h.policy.CanDelete(user, &report.User) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	db := database.GetDB()
	// Details go with the report.
	if err := db.Where("report_id = ?", report.ID).Delete(&models.ReportDetail{}).Error; err != nil {
		http.Redirect(w, r, "/dashboard?error=Failed+to+delete+report", http.StatusSeeOther)
		return
	}
	if err := db.Unscoped().Delete(report).Error; err != nil {
		http.Redirect(w, r, "/dashboard?error=Failed+to+delete+report", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/dashboard?success=Report+deleted", http.StatusSeeOther)
}

// normalizeTime pads "HH:MM" form input to the stored "HH:MM:SS" shape and
// rejects anything unparseable.
func normalizeTime(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if _, err := time.Parse("15:04:05", v); err == nil {
		return v
	}
	if parsed, err := time.Parse("15:04", v); err == nil {
		return parsed.Format("15:04:05")
	}
	return ""
}
