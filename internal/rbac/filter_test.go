package rbac

import (
	"testing"

	"rbadmin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.Article{},
	))
	return db
}

// 固件：
//   部门 技术部(下辖后端组)、市场部
//   用户 tech1(技术部)、backend1(后端组)、market1(市场部)
//   文章 技术部各有归属文章，另有一篇公开文章挂在市场部
type filterFixture struct {
	tech, backend, market models.Department
	tech1, backend1       models.User
	market1               models.User
}

func seedFilterFixture(t *testing.T, db *gorm.DB) filterFixture {
	t.Helper()
	var f filterFixture

	f.tech = models.Department{Name: "技术部", Code: "TECH", Level: 1, Status: true}
	require.NoError(t, db.Create(&f.tech).Error)
	f.backend = models.Department{Name: "后端组", Code: "BACKEND", ParentID: &f.tech.ID, Level: 2, Status: true}
	require.NoError(t, db.Create(&f.backend).Error)
	f.market = models.Department{Name: "市场部", Code: "MARKET", Level: 1, Status: true}
	require.NoError(t, db.Create(&f.market).Error)

	f.tech1 = models.User{Username: "tech1", Email: "t1@example.com", Name: "技术1", DepartmentID: &f.tech.ID, Status: models.UserStatusActive}
	require.NoError(t, db.Create(&f.tech1).Error)
	f.backend1 = models.User{Username: "backend1", Email: "b1@example.com", Name: "后端1", DepartmentID: &f.backend.ID, Status: models.UserStatusActive}
	require.NoError(t, db.Create(&f.backend1).Error)
	f.market1 = models.User{Username: "market1", Email: "m1@example.com", Name: "市场1", DepartmentID: &f.market.ID, Status: models.UserStatusActive}
	require.NoError(t, db.Create(&f.market1).Error)

	articles := []models.Article{
		{Title: "技术部文章", GovernedModel: models.GovernedModel{CreatedByID: &f.tech1.ID, OwnerDepartmentID: &f.tech.ID, DataLevel: models.DataLevelDepartment}},
		{Title: "后端组文章", GovernedModel: models.GovernedModel{CreatedByID: &f.backend1.ID, OwnerDepartmentID: &f.backend.ID, DataLevel: models.DataLevelDepartment}},
		{Title: "市场部公开文章", GovernedModel: models.GovernedModel{CreatedByID: &f.market1.ID, OwnerDepartmentID: &f.market.ID, IsPublic: true}},
		{Title: "市场部内部文章", GovernedModel: models.GovernedModel{CreatedByID: &f.market1.ID, OwnerDepartmentID: &f.market.ID}},
	}
	for i := range articles {
		require.NoError(t, db.Create(&articles[i]).Error)
	}
	return f
}

func articleTitles(t *testing.T, db *gorm.DB, scope func(*gorm.DB) *gorm.DB) []string {
	t.Helper()
	var titles []string
	require.NoError(t, db.Model(&models.Article{}).Scopes(scope).Order("id").Pluck("title", &titles).Error)
	return titles
}

// TestGovernedScope 受控实体的行级过滤
func TestGovernedScope(t *testing.T) {
	db := newTestDB(t)
	f := seedFilterFixture(t, db)

	t.Run("全部数据不过滤", func(t *testing.T) {
		res := Resolution{Scope: ScopeAll, All: true}
		titles := articleTitles(t, db, GovernedScope(res, f.tech1.ID))
		assert.Len(t, titles, 4)
	})

	t.Run("本部门及以下：技术部看到本部门、子部门与公开数据", func(t *testing.T) {
		res := Resolution{Scope: ScopeSubtree, DepartmentIDs: []uint{f.tech.ID, f.backend.ID}}
		titles := articleTitles(t, db, GovernedScope(res, f.tech1.ID))
		assert.ElementsMatch(t, []string{"技术部文章", "后端组文章", "市场部公开文章"}, titles)
	})

	t.Run("仅本部门：后端组看不到上级技术部的数据", func(t *testing.T) {
		res := Resolution{Scope: ScopeDepartment, DepartmentIDs: []uint{f.backend.ID}}
		titles := articleTitles(t, db, GovernedScope(res, f.backend1.ID))
		assert.ElementsMatch(t, []string{"后端组文章", "市场部公开文章"}, titles)
	})

	t.Run("本人数据：只看自己创建的与公开数据", func(t *testing.T) {
		res := Resolution{Scope: ScopeSelf}
		titles := articleTitles(t, db, GovernedScope(res, f.tech1.ID))
		assert.ElementsMatch(t, []string{"技术部文章", "市场部公开文章"}, titles)
	})

	t.Run("部门范围但部门集为空：只剩公开数据", func(t *testing.T) {
		res := Resolution{Scope: ScopeSubtree}
		titles := articleTitles(t, db, GovernedScope(res, f.tech1.ID))
		assert.Equal(t, []string{"市场部公开文章"}, titles)
	})

	t.Run("归属人命中：部门字段缺失但创建人在可见部门", func(t *testing.T) {
		orphan := models.Article{Title: "无部门归属文章", GovernedModel: models.GovernedModel{CreatedByID: &f.backend1.ID}}
		require.NoError(t, db.Create(&orphan).Error)
		defer db.Delete(&orphan)

		res := Resolution{Scope: ScopeSubtree, DepartmentIDs: []uint{f.tech.ID, f.backend.ID}}
		titles := articleTitles(t, db, GovernedScope(res, f.tech1.ID))
		assert.Contains(t, titles, "无部门归属文章")
	})
}

// TestDenyAll 匹配不到任何行
func TestDenyAll(t *testing.T) {
	db := newTestDB(t)
	seedFilterFixture(t, db)

	var count int64
	require.NoError(t, db.Model(&models.Article{}).Scopes(DenyAll()).Count(&count).Error)
	assert.Zero(t, count)
}

// TestUserScope 用户管理表的回退过滤
func TestUserScope(t *testing.T) {
	db := newTestDB(t)
	f := seedFilterFixture(t, db)

	countUsers := func(scope func(*gorm.DB) *gorm.DB) int64 {
		var count int64
		require.NoError(t, db.Model(&models.User{}).Scopes(scope).Count(&count).Error)
		return count
	}

	assert.EqualValues(t, 3, countUsers(UserScope(Resolution{Scope: ScopeAll, All: true}, f.tech1.ID)))
	assert.EqualValues(t, 1, countUsers(UserScope(Resolution{Scope: ScopeSelf}, f.tech1.ID)), "本人范围只看自己")
	assert.EqualValues(t, 2, countUsers(UserScope(Resolution{Scope: ScopeSubtree, DepartmentIDs: []uint{f.tech.ID, f.backend.ID}}, f.tech1.ID)))
	assert.EqualValues(t, 0, countUsers(UserScope(Resolution{Scope: ScopeSubtree}, f.tech1.ID)), "空部门集不匹配任何人")
}

// TestDepartmentScope 部门管理表的回退过滤
func TestDepartmentScope(t *testing.T) {
	db := newTestDB(t)
	f := seedFilterFixture(t, db)

	var names []string
	require.NoError(t, db.Model(&models.Department{}).
		Scopes(DepartmentScope(Resolution{Scope: ScopeSubtree, DepartmentIDs: []uint{f.tech.ID, f.backend.ID}})).
		Pluck("name", &names).Error)
	assert.ElementsMatch(t, []string{"技术部", "后端组"}, names)

	var count int64
	require.NoError(t, db.Model(&models.Department{}).
		Scopes(DepartmentScope(Resolution{Scope: ScopeDepartment})).
		Count(&count).Error)
	assert.Zero(t, count, "空部门集不匹配任何部门")
}
