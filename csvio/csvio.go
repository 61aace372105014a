// Package csvio encodes daily reports to the legacy CSV exchange format
// and decodes it back. The format is Shift_JIS (cp932) with a fixed
// 12-column layout and localized status tokens; both must match the legacy
// files byte for byte to keep the round trip working.
package csvio

// Header is the mandatory first row of every exchange file.
var Header = []string{
	"日付", "ユーザー", "開始時間", "終了時間", "作業内容", "得意先",
	"担当者", "作業詳細", "報告事項", "コメント", "上司確認", "提出状態",
}

// Localized status tokens. Legacy files use exactly these strings.
const (
	TokenConfirmed   = "確認済"
	TokenUnconfirmed = "未確認"
	TokenSubmitted   = "提出済"
	TokenDraft       = "下書き"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Column indexes within a data row.
const (
	colDate = iota
	colUsername
	colStartTime
	colEndTime
	colWorkTitle
	colClient
	colResponsible
	colWorkDetail
	colRemarks
	colComment
	colConfirmation
	colSubmission
	columnCount
)
