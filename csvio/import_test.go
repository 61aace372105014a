package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dailyreport/models"
)

var dbSeq atomic.Int64

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A sequence number keeps the shared-cache DSN unique when one test
	// opens more than one database.
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Group{}, &models.UserProfile{}, &models.Report{}, &models.ReportDetail{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Role: models.RoleMember, PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// encodeFile builds a Shift_JIS CSV with the standard header plus rows.
func encodeFile(t *testing.T, rows [][]string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	enc := transform.NewWriter(&buf, japanese.ShiftJIS.NewEncoder())
	cw := csv.NewWriter(enc)
	require.NoError(t, cw.Write(Header))
	for _, row := range rows {
		require.NoError(t, cw.Write(row))
	}
	cw.Flush()
	require.NoError(t, cw.Error())
	require.NoError(t, enc.Close())
	return &buf
}

func dataRow(date, user, start, end, title string) []string {
	return []string{date, user, start, end, title, "", "", "", "", "", TokenUnconfirmed, TokenDraft}
}

func TestImportRoundTrip(t *testing.T) {
	src := setupDB(t)
	alice := createUser(t, src, "alice")

	report := models.Report{
		UserID:      alice.ID,
		Date:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Remarks:     "on schedule",
		Comment:     "checked",
		IsSubmitted: true,
		Details: []models.ReportDetail{
			{StartTime: "09:00:00", EndTime: "10:00:00", WorkTitle: "Design", Client: "ACME", ResponsiblePerson: "Sato", WorkDetail: "api sketch"},
			{StartTime: "10:00:00", EndTime: "11:30:00", WorkTitle: "Build"},
		},
	}
	require.NoError(t, src.Create(&report).Error)

	var exported []models.Report
	require.NoError(t, src.Preload("User").Preload("Details").Order("date desc").Find(&exported).Error)
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, exported))

	// Re-import into an empty store that knows the same user.
	dst := setupDB(t)
	createUser(t, dst, "alice")

	res, err := NewImporter(dst, nil).Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Skipped)

	var got models.Report
	require.NoError(t, dst.Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("start_time asc")
	}).Preload("User").First(&got).Error)

	assert.Equal(t, "alice", got.User.Username)
	assert.Equal(t, "2024-01-10", got.Date.Format("2006-01-02"))
	assert.Equal(t, "on schedule", got.Remarks)
	assert.Equal(t, "checked", got.Comment)
	assert.True(t, got.IsSubmitted)
	assert.False(t, got.BossConfirmation)

	require.Len(t, got.Details, 2)
	assert.Equal(t, "Design", got.Details[0].WorkTitle)
	assert.Equal(t, "ACME", got.Details[0].Client)
	assert.Equal(t, "Sato", got.Details[0].ResponsiblePerson)
	assert.Equal(t, "api sketch", got.Details[0].WorkDetail)
	assert.Equal(t, "10:00:00", got.Details[1].StartTime)
	assert.Equal(t, "11:30:00", got.Details[1].EndTime)
}

func TestImportTwiceDuplicatesDetailsOnly(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "alice")

	file := [][]string{
		dataRow("2024-01-10", "alice", "09:00:00", "10:00:00", "Design"),
		dataRow("2024-01-10", "alice", "10:00:00", "11:30:00", "Build"),
	}

	for i := 0; i < 2; i++ {
		_, err := NewImporter(db, nil).Import(encodeFile(t, file))
		require.NoError(t, err)
	}

	// Reports are get-or-create on (user, date); details have no dedup key
	// and duplicate on re-import. That is the intended contract.
	var reports, details int64
	db.Model(&models.Report{}).Count(&reports)
	db.Model(&models.ReportDetail{}).Count(&details)
	assert.Equal(t, int64(1), reports)
	assert.Equal(t, int64(4), details)
}

func TestImportIsAtomic(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "alice")

	var file [][]string
	for i := 1; i <= 10; i++ {
		d := fmt.Sprintf("2024-01-%02d", i)
		if i == 5 {
			d = "not-a-date"
		}
		file = append(file, dataRow(d, "alice", "09:00:00", "10:00:00", "Work"))
	}

	_, err := NewImporter(db, nil).Import(encodeFile(t, file))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")

	var reports, details int64
	db.Model(&models.Report{}).Count(&reports)
	db.Model(&models.ReportDetail{}).Count(&details)
	assert.Zero(t, reports)
	assert.Zero(t, details)
}

func TestImportMalformedTimeAborts(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "alice")

	file := [][]string{
		dataRow("2024-01-10", "alice", "09:00:00", "10:00:00", "Design"),
		dataRow("2024-01-11", "alice", "9am", "10:00:00", "Build"),
	}

	_, err := NewImporter(db, nil).Import(encodeFile(t, file))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time")

	var reports int64
	db.Model(&models.Report{}).Count(&reports)
	assert.Zero(t, reports)
}

func TestImportSkipsUnknownUser(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "alice")

	file := [][]string{
		dataRow("2024-01-10", "nobody", "09:00:00", "10:00:00", "Ghost"),
		dataRow("2024-01-10", "alice", "09:00:00", "10:00:00", "Design"),
	}

	res, err := NewImporter(db, nil).Import(encodeFile(t, file))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	var reports int64
	db.Model(&models.Report{}).Count(&reports)
	assert.Equal(t, int64(1), reports)
}

func TestImportFirstRowWinsForReportFields(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "alice")

	first := dataRow("2024-01-10", "alice", "09:00:00", "10:00:00", "Design")
	first[colRemarks] = "first remarks"
	first[colSubmission] = TokenSubmitted
	second := dataRow("2024-01-10", "alice", "10:00:00", "11:00:00", "Build")
	second[colRemarks] = "second remarks"
	second[colSubmission] = TokenDraft

	_, err := NewImporter(db, nil).Import(encodeFile(t, [][]string{first, second}))
	require.NoError(t, err)

	var got models.Report
	require.NoError(t, db.Preload("Details").First(&got).Error)
	assert.Equal(t, "first remarks", got.Remarks)
	assert.True(t, got.IsSubmitted)
	assert.Len(t, got.Details, 2)
}

func TestImportRowWithoutTimesAddsNoDetail(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "bob")

	row := dataRow("2024-02-01", "bob", "", "", "")
	row[colRemarks] = "no entries today"
	row[colConfirmation] = TokenConfirmed

	res, err := NewImporter(db, nil).Import(encodeFile(t, [][]string{row}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	var got models.Report
	require.NoError(t, db.Preload("Details").First(&got).Error)
	assert.Equal(t, "no entries today", got.Remarks)
	assert.True(t, got.BossConfirmation)
	assert.Empty(t, got.Details)
}

func TestImportEmptyFile(t *testing.T) {
	db := setupDB(t)
	_, err := NewImporter(db, nil).Import(bytes.NewReader(nil))
	require.Error(t, err)
}
