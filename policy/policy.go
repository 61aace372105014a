// Package policy computes per-user access to daily reports. Decisions are
// a pure function of the actor's role and group membership and the report
// owner; no request state is consulted.
package policy

import (
	"errors"

	"gorm.io/gorm"

	"dailyreport/models"
)

// Level is the access an actor has to a report.
type Level int

const (
	LevelNone Level = iota
	LevelView
	LevelEdit
)

var ErrDenied = errors.New("access denied")

// Policy holds the configurable knobs. Delete can be held to a stricter
// bar than edit.
type Policy struct {
	// DeleteRequiresApprover restricts hard deletion to admins and
	// in-scope leaders even when the owner could otherwise edit.
	DeleteRequiresApprover bool
}

func Default() Policy {
	return Policy{DeleteRequiresApprover: true}
}

// Evaluate returns the actor's access to reports owned by owner.
// Rules, in order: admins edit everything; leaders edit their own reports
// and reports of users sharing at least one group; everyone else edits
// only their own reports.
func Evaluate(actor, owner *models.User) Level {
	if actor == nil {
		return LevelNone
	}
	if actor.IsAdmin() {
		return LevelEdit
	}
	if owner != nil && actor.ID == owner.ID {
		return LevelEdit
	}
	if actor.IsLeader() && actor.SharesGroupWith(owner) {
		return LevelEdit
	}
	return LevelNone
}

// CanDelete is a separate check because deletion may be stricter than
// edit.
func (p Policy) CanDelete(actor, owner *models.User) bool {
	if Evaluate(actor, owner) < LevelEdit {
		return false
	}
	if p.DeleteRequiresApprover {
		return actor.IsApprover()
	}
	return true
}

// CanComment reports whether the actor may edit the supervisor comment
// field on reports owned by owner.
func (p Policy) CanComment(actor, owner *models.User) bool {
	return actor != nil && actor.IsApprover() && Evaluate(actor, owner) >= LevelView
}

// Scope narrows a reports query to what the actor may see, mirroring
// Evaluate. Groups must be preloaded on the actor.
func Scope(db *gorm.DB, actor *models.User) *gorm.DB {
	if actor.IsAdmin() {
		return db
	}
	if actor.IsLeader() {
		groupIDs := make([]uint, 0, len(actor.Groups))
		for _, g := range actor.Groups {
			groupIDs = append(groupIDs, g.ID)
		}
		if len(groupIDs) == 0 {
			return db.Where("reports.user_id = ?", actor.ID)
		}
		return db.Where(
			"reports.user_id = ? OR reports.user_id IN (SELECT user_id FROM user_groups WHERE group_id IN ?)",
			actor.ID, groupIDs,
		)
	}
	return db.Where("reports.user_id = ?", actor.ID)
}
