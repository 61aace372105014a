package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	n := SubmissionNotice{
		Recipients: []string{"alice@example.com", "alice.alt@example.com"},
		Username:   "alice",
		Date:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EditURL:    "http://localhost:8080/reports/edit?id=7",
		Remarks:    "finished the design review",
	}

	msg := string(buildMessage("noreply@example.com", n))

	assert.Contains(t, msg, "To: alice@example.com, alice.alt@example.com")
	assert.Contains(t, msg, "Subject: Daily report submitted: alice 2024-01-10")
	assert.Contains(t, msg, "http://localhost:8080/reports/edit?id=7")
	assert.Contains(t, msg, "finished the design review")

	// Headers and body separated by one blank line.
	assert.True(t, strings.Contains(msg, "\r\n\r\n"))
}

func TestBuildMessageWithoutOptionalFields(t *testing.T) {
	n := SubmissionNotice{
		Recipients: []string{"bob@example.com"},
		Username:   "bob",
		Date:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	msg := string(buildMessage("noreply@example.com", n))
	assert.NotContains(t, msg, "Review:")
	assert.NotContains(t, msg, "Remarks:")
}
