package policy

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dailyreport/models"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func user(id uint, role models.Role, groups ...models.Group) *models.User {
	return &models.User{ID: id, Username: fmt.Sprintf("u%d", id), Role: role, Groups: groups}
}

func TestEvaluate(t *testing.T) {
	teamX := models.Group{ID: 1, Name: "team-x"}
	teamY := models.Group{ID: 2, Name: "team-y"}

	admin := user(1, models.RoleAdmin)
	leaderX := user(2, models.RoleLeader, teamX)
	memberX := user(3, models.RoleMember, teamX)
	memberY := user(4, models.RoleMember, teamY)

	assert.Equal(t, LevelEdit, Evaluate(admin, memberX))
	assert.Equal(t, LevelEdit, Evaluate(admin, memberY))

	assert.Equal(t, LevelEdit, Evaluate(leaderX, leaderX))
	assert.Equal(t, LevelEdit, Evaluate(leaderX, memberX))
	assert.Equal(t, LevelNone, Evaluate(leaderX, memberY))

	assert.Equal(t, LevelEdit, Evaluate(memberX, memberX))
	assert.Equal(t, LevelNone, Evaluate(memberX, memberY))
	assert.Equal(t, LevelNone, Evaluate(memberX, admin))

	assert.Equal(t, LevelNone, Evaluate(nil, memberX))
}

func TestCanDelete(t *testing.T) {
	teamX := models.Group{ID: 1, Name: "team-x"}
	admin := user(1, models.RoleAdmin)
	leaderX := user(2, models.RoleLeader, teamX)
	memberX := user(3, models.RoleMember, teamX)

	strict := Default()
	assert.True(t, strict.DeleteRequiresApprover)
	assert.True(t, strict.CanDelete(admin, memberX))
	assert.True(t, strict.CanDelete(leaderX, memberX))
	// Owner can edit but not delete under the strict default.
	assert.False(t, strict.CanDelete(memberX, memberX))

	lax := Policy{DeleteRequiresApprover: false}
	assert.True(t, lax.CanDelete(memberX, memberX))
	assert.False(t, lax.CanDelete(memberX, leaderX))
}

func TestCanComment(t *testing.T) {
	teamX := models.Group{ID: 1, Name: "team-x"}
	teamY := models.Group{ID: 2, Name: "team-y"}
	leaderX := user(2, models.RoleLeader, teamX)
	memberX := user(3, models.RoleMember, teamX)
	memberY := user(4, models.RoleMember, teamY)

	p := Default()
	assert.True(t, p.CanComment(leaderX, memberX))
	assert.False(t, p.CanComment(leaderX, memberY))
	assert.False(t, p.CanComment(memberX, memberX))
}

func TestScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Group{}, &models.Report{}, &models.ReportDetail{}))

	teamX := models.Group{Name: "team-x"}
	teamY := models.Group{Name: "team-y"}
	require.NoError(t, db.Create(&teamX).Error)
	require.NoError(t, db.Create(&teamY).Error)

	leader := models.User{Username: "lead", Role: models.RoleLeader, Groups: []models.Group{teamX}}
	alice := models.User{Username: "alice", Role: models.RoleMember, Groups: []models.Group{teamX}}
	bob := models.User{Username: "bob", Role: models.RoleMember, Groups: []models.Group{teamY}}
	for _, u := range []*models.User{&leader, &alice, &bob} {
		require.NoError(t, db.Create(u).Error)
	}

	for _, u := range []models.User{leader, alice, bob} {
		require.NoError(t, db.Create(&models.Report{UserID: u.ID, Date: date(t, "2024-01-10")}).Error)
	}

	var got []models.Report
	require.NoError(t, Scope(db.Model(&models.Report{}), &leader).Find(&got).Error)
	assert.Len(t, got, 2) // own + alice's, not bob's

	got = nil
	require.NoError(t, Scope(db.Model(&models.Report{}), &alice).Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, alice.ID, got[0].UserID)

	admin := models.User{ID: 99, Role: models.RoleAdmin}
	got = nil
	require.NoError(t, Scope(db.Model(&models.Report{}), &admin).Find(&got).Error)
	assert.Len(t, got, 3)
}
