package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"dailyreport/models"
)

// Export writes reports to w as Shift_JIS CSV. One row per detail, details
// ordered by start time; a report without details still gets one row so
// its report-level fields survive the round trip. Reports are written in
// the order given (callers list them date-descending). User must be
// preloaded on each report.
func Export(w io.Writer, reports []models.Report) error {
	enc := transform.NewWriter(w, japanese.ShiftJIS.NewEncoder())
	cw := csv.NewWriter(enc)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range reports {
		if err := writeReport(cw, &reports[i]); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush shift_jis encoder: %w", err)
	}
	return nil
}

func writeReport(cw *csv.Writer, r *models.Report) error {
	if len(r.Details) == 0 {
		return cw.Write(row(r, nil))
	}

	details := make([]models.ReportDetail, len(r.Details))
	copy(details, r.Details)
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].StartTime < details[j].StartTime
	})

	for i := range details {
		if err := cw.Write(row(r, &details[i])); err != nil {
			return err
		}
	}
	return nil
}

func row(r *models.Report, d *models.ReportDetail) []string {
	rec := make([]string, columnCount)
	rec[colDate] = r.Date.Format(dateLayout)
	rec[colUsername] = r.User.Username
	if d != nil {
		rec[colStartTime] = d.StartTime
		rec[colEndTime] = d.EndTime
		rec[colWorkTitle] = d.WorkTitle
		rec[colClient] = d.Client
		rec[colResponsible] = d.ResponsiblePerson
		rec[colWorkDetail] = d.WorkDetail
	}
	rec[colRemarks] = r.Remarks
	rec[colComment] = r.Comment
	rec[colConfirmation] = confirmationToken(r.BossConfirmation)
	rec[colSubmission] = submissionToken(r.IsSubmitted)
	return rec
}

func confirmationToken(confirmed bool) string {
	if confirmed {
		return TokenConfirmed
	}
	return TokenUnconfirmed
}

func submissionToken(submitted bool) string {
	if submitted {
		return TokenSubmitted
	}
	return TokenDraft
}
