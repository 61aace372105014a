// Package notify delivers submission notices. Delivery is synchronous and
// best-effort; callers log failures and never roll back state on them.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SubmissionNotice is the message sent when a report is submitted. It goes
// to the submitting user's own addresses, never to a supervisor list.
type SubmissionNotice struct {
	Recipients []string
	Username   string
	Date       time.Time
	EditURL    string
	Remarks    string
}

type Notifier interface {
	SendSubmissionNotice(ctx context.Context, n SubmissionNotice) error
}

// Noop is used when no SMTP transport is configured.
type Noop struct{}

func (Noop) SendSubmissionNotice(context.Context, SubmissionNotice) error { return nil }

// SMTPNotifier sends plain-text mail over a single SMTP server.
type SMTPNotifier struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

func NewSMTP(host, port, from, username, password string) *SMTPNotifier {
	n := &SMTPNotifier{
		addr: host + ":" + port,
		from: from,
	}
	if username != "" {
		n.auth = smtp.PlainAuth("", username, password, host)
	}
	return n
}

func (s *SMTPNotifier) SendSubmissionNotice(ctx context.Context, n SubmissionNotice) error {
	if len(n.Recipients) == 0 {
		return nil
	}
	msg := buildMessage(s.from, n)
	if err := smtp.SendMail(s.addr, s.auth, s.from, n.Recipients, msg); err != nil {
		return fmt.Errorf("send submission notice: %w", err)
	}
	return nil
}

func buildMessage(from string, n SubmissionNotice) []byte {
	date := n.Date.Format("2006-01-02")
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: Daily report submitted: %s %s\r\n", n.Username, date)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "%s submitted the daily report for %s.\r\n\r\n", n.Username, date)
	if n.EditURL != "" {
		fmt.Fprintf(&b, "Review: %s\r\n\r\n", n.EditURL)
	}
	if n.Remarks != "" {
		fmt.Fprintf(&b, "Remarks:\r\n%s\r\n", n.Remarks)
	}
	return []byte(b.String())
}
