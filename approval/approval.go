// Package approval owns the draft/submitted/confirmed lifecycle of a
// report. Only explicit actions move a report between states; plain saves
// never do.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"gorm.io/gorm"

	"dailyreport/models"
	"dailyreport/notify"
)

type State string

const (
	StateDraft     State = "draft"
	StateSubmitted State = "submitted"
	StateConfirmed State = "confirmed"
)

// StateOf derives the lifecycle state from the two report flags.
func StateOf(r *models.Report) State {
	switch {
	case !r.IsSubmitted:
		return StateDraft
	case r.BossConfirmation:
		return StateConfirmed
	default:
		return StateSubmitted
	}
}

type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
	log      *slog.Logger
	baseURL  string
}

func NewService(db *gorm.DB, notifier notify.Notifier, log *slog.Logger, baseURL string) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, notifier: notifier, log: log, baseURL: baseURL}
}

// Submit moves a draft report to submitted and notifies the owner's own
// addresses once. Submitting an already-submitted report is a no-op: no
// state change and no duplicate notice. Delivery failures are logged and
// swallowed; the state change stands either way.
func (s *Service) Submit(ctx context.Context, report *models.Report, owner *models.User) error {
	if report.IsSubmitted {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(report).Update("is_submitted", true).Error; err != nil {
		return fmt.Errorf("submit report: %w", err)
	}
	report.IsSubmitted = true

	notice := notify.SubmissionNotice{
		Recipients: owner.NotificationAddresses(),
		Username:   owner.Username,
		Date:       report.Date,
		EditURL:    s.editURL(report.ID),
		Remarks:    report.Remarks,
	}
	if len(notice.Recipients) == 0 {
		s.log.Warn("report submitted but owner has no notification address",
			"report_id", report.ID, "username", owner.Username)
		return nil
	}
	if err := s.notifier.SendSubmissionNotice(ctx, notice); err != nil {
		s.log.Error("submission notice failed",
			"report_id", report.ID, "username", owner.Username, "error", err)
	}
	return nil
}

// SetConfirmation toggles the supervisor confirmation flag. It never
// notifies and leaves every other field alone.
func (s *Service) SetConfirmation(ctx context.Context, report *models.Report, confirmed bool) error {
	if err := s.db.WithContext(ctx).Model(report).Update("boss_confirmation", confirmed).Error; err != nil {
		return fmt.Errorf("set confirmation: %w", err)
	}
	report.BossConfirmation = confirmed
	return nil
}

func (s *Service) editURL(reportID uint) string {
	if s.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/reports/edit?%s", s.baseURL, url.Values{"id": {fmt.Sprint(reportID)}}.Encode())
}
