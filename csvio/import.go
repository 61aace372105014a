package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"gorm.io/gorm"

	"dailyreport/models"
)

// Result summarizes one import for the user-facing message.
type Result struct {
	Imported int // data rows applied
	Skipped  int // rows dropped because the username did not resolve
}

// Importer loads exchange files back into the store. The whole file is
// applied in one transaction: any malformed date or time aborts and rolls
// back every row.
type Importer struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewImporter(db *gorm.DB, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{db: db, log: log}
}

// Import reads Shift_JIS CSV from r and applies it. The header row is
// required and skipped. Rows naming an unknown user are dropped silently
// and counted in Result.Skipped. Report rows are get-or-create keyed on
// (user, date); an existing report keeps its report-level fields and only
// gains appended details.
func (im *Importer) Import(r io.Reader) (Result, error) {
	var res Result

	cr := csv.NewReader(transform.NewReader(r, japanese.ShiftJIS.NewDecoder()))
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, errors.New("import file is empty")
		}
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}

	err := im.db.Transaction(func(tx *gorm.DB) error {
		line := 1
		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read csv row: %w", err)
			}
			line++
			if err := im.importRow(tx, rec, line, &res); err != nil {
				return err
			}
		}
	})
	if err != nil {
		return Result{}, err
	}

	im.log.Info("csv import finished", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

func (im *Importer) importRow(tx *gorm.DB, rec []string, line int, res *Result) error {
	if len(rec) < columnCount {
		return fmt.Errorf("line %d: expected %d columns, got %d", line, columnCount, len(rec))
	}

	username := strings.TrimSpace(rec[colUsername])
	var user models.User
	if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown users drop the row, not the import.
			im.log.Debug("skipping row for unknown user", "line", line, "username", username)
			res.Skipped++
			return nil
		}
		return fmt.Errorf("line %d: look up user %q: %w", line, username, err)
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(rec[colDate]))
	if err != nil {
		return fmt.Errorf("line %d: invalid date %q", line, rec[colDate])
	}

	report, err := im.findOrCreateReport(tx, &user, date, rec)
	if err != nil {
		return fmt.Errorf("line %d: %w", line, err)
	}

	start := strings.TrimSpace(rec[colStartTime])
	end := strings.TrimSpace(rec[colEndTime])
	if start != "" && end != "" {
		for _, v := range []string{start, end} {
			if _, err := time.Parse(timeLayout, v); err != nil {
				return fmt.Errorf("line %d: invalid time %q", line, v)
			}
		}
		detail := models.ReportDetail{
			ReportID:          report.ID,
			StartTime:         start,
			EndTime:           end,
			WorkTitle:         rec[colWorkTitle],
			Client:            rec[colClient],
			ResponsiblePerson: rec[colResponsible],
			WorkDetail:        rec[colWorkDetail],
		}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("line %d: create detail: %w", line, err)
		}
	}

	res.Imported++
	return nil
}

// findOrCreateReport resolves the (user, date) report. Only a newly
// created report takes its remarks/comment/status from the row; for an
// existing one the first imported row wins and later rows may only append
// details.
func (im *Importer) findOrCreateReport(tx *gorm.DB, user *models.User, date time.Time, rec []string) (*models.Report, error) {
	var report models.Report
	err := tx.Where("user_id = ? AND date = ?", user.ID, date).First(&report).Error
	if err == nil {
		return &report, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up report: %w", err)
	}

	report = models.Report{
		UserID:           user.ID,
		Date:             date,
		Remarks:          rec[colRemarks],
		Comment:          rec[colComment],
		BossConfirmation: rec[colConfirmation] == TokenConfirmed,
		IsSubmitted:      rec[colSubmission] == TokenSubmitted,
	}
	if err := tx.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return &report, nil
}
