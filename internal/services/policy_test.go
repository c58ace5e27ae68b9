package services

import (
	"errors"
	"testing"

	"rbadmin/internal/models"
	"rbadmin/internal/rbac"

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
		&models.Role{},
		&models.UserRole{},
		&models.PolicyRule{},
		&models.Menu{},
		&models.RoleMenu{},
		&models.Api{},
		&models.Article{},
		&models.Project{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     username,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createRole(t *testing.T, db *gorm.DB, roleID, name, code string, dataScope int) *models.Role {
	t.Helper()
	role := &models.Role{
		RoleID:    roleID,
		Name:      name,
		Code:      code,
		DataScope: dataScope,
		IsActive:  true,
	}
	require.NoError(t, db.Create(role).Error)
	return role
}

// TestPolicyService_CreateRuleDuplicate 重复策略报重复错误
func TestPolicyService_CreateRuleDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewPolicyService(db)

	created, err := svc.CreateRule("2", "/rbac/api/users/*", "get")
	require.NoError(t, err)
	assert.True(t, created)

	rules, err := svc.ListRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "GET", rules[0].Method, "方法统一为大写存储")

	created, err = svc.CreateRule("2", "/rbac/api/users/*", "GET")
	assert.False(t, created)
	assert.True(t, errors.Is(err, rbac.ErrDuplicateRule))
}

// TestPolicyService_DeleteRule 删除返回是否真正删除
func TestPolicyService_DeleteRule(t *testing.T) {
	db := newTestDB(t)
	svc := NewPolicyService(db)

	_, err := svc.CreateRule("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)

	deleted, err := svc.DeleteRule("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteRule("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)
	assert.False(t, deleted, "不存在的策略删除是空操作")
}

// TestPolicyService_Grouping 用户角色绑定
func TestPolicyService_Grouping(t *testing.T) {
	db := newTestDB(t)
	svc := NewPolicyService(db)

	createUser(t, db, "alice")
	createRole(t, db, "2", "部门经理", "dept_manager", models.DataScopeSubtree)

	created, err := svc.CreateGrouping("alice", "2")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.CreateGrouping("alice", "2")
	assert.False(t, created)
	assert.True(t, errors.Is(err, rbac.ErrDuplicateAssignment))

	_, err = svc.CreateGrouping("nobody", "2")
	assert.True(t, errors.Is(err, rbac.ErrNotFound), "用户不存在")

	_, err = svc.CreateGrouping("alice", "99")
	assert.True(t, errors.Is(err, rbac.ErrNotFound), "角色不存在")

	deleted, err := svc.DeleteGrouping("alice", "2")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteGrouping("alice", "2")
	require.NoError(t, err)
	assert.False(t, deleted)
}

// TestPolicyService_ListGroupingsActiveOnly 停用角色的绑定不参与授权
func TestPolicyService_ListGroupingsActiveOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewPolicyService(db)

	user := createUser(t, db, "bob")
	active := createRole(t, db, "2", "部门经理", "dept_manager", models.DataScopeSubtree)
	inactive := createRole(t, db, "3", "普通员工", "employee", models.DataScopeSelf)
	inactive.IsActive = false
	require.NoError(t, db.Save(inactive).Error)

	require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: active.ID}).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: inactive.ID}).Error)

	groupings, err := svc.ListGroupings()
	require.NoError(t, err)
	require.Len(t, groupings, 1)
	assert.Equal(t, rbac.Grouping{Username: "bob", RoleID: "2"}, groupings[0])
}

// TestEnforcerWithPolicyService 引擎与数据库存储的端到端授权
func TestEnforcerWithPolicyService(t *testing.T) {
	db := newTestDB(t)
	svc := NewPolicyService(db)
	enforcer := rbac.NewEnforcer(svc, "/rbac/api/")

	user := createUser(t, db, "carol")
	createRole(t, db, "2", "部门经理", "dept_manager", models.DataScopeSubtree)

	_, err := enforcer.AssignRole("carol", "2")
	require.NoError(t, err)
	_, err = enforcer.Grant("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)

	assert.True(t, enforcer.Check(user, "/rbac/api/users/5", "GET"))
	assert.False(t, enforcer.Check(user, "/rbac/api/roles", "GET"))

	// 双写落库：重建引擎后从存储恢复出相同的授权结果
	fresh := rbac.NewEnforcer(NewPolicyService(db), "/rbac/api/")
	assert.True(t, fresh.Check(user, "/rbac/api/users/5", "GET"))

	_, err = enforcer.Revoke("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)
	assert.False(t, enforcer.Check(user, "/rbac/api/users/5", "GET"))
}

// TestRoleService_AssignAPIPermissions 按API清单差量替换策略
func TestRoleService_AssignAPIPermissions(t *testing.T) {
	db := newTestDB(t)
	policySvc := NewPolicyService(db)
	enforcer := rbac.NewEnforcer(policySvc, "/rbac/api/")
	roleSvc := NewRoleService(db, enforcer)

	role := createRole(t, db, "2", "部门经理", "dept_manager", models.DataScopeSubtree)

	apis := []*models.Api{
		{Name: "用户列表", Path: "/rbac/api/users", Method: "GET", Group: "用户管理", Status: true},
		{Name: "用户详情", Path: "/rbac/api/users/*", Method: "GET", Group: "用户管理", Status: true},
		{Name: "角色列表", Path: "/rbac/api/roles", Method: "GET", Group: "角色管理", Status: true},
	}
	for _, api := range apis {
		require.NoError(t, db.Create(api).Error)
	}

	// 首次分配：API清单里不带斜杠的列表路径按标准化形式入库
	require.NoError(t, roleSvc.AssignAPIPermissions(role.ID, []uint{apis[0].ID, apis[1].ID}))
	rules, err := policySvc.GetRulesByRole("2")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.ElementsMatch(t, []string{"/rbac/api/users/", "/rbac/api/users/*"},
		[]string{rules[0].Path, rules[1].Path})

	// 分配出的列表权限真实可命中
	user := createUser(t, db, "frank")
	_, err = enforcer.AssignRole("frank", "2")
	require.NoError(t, err)
	assert.True(t, enforcer.Check(user, "/rbac/api/users", "GET"))

	// 重复分配同一清单是稳定空操作
	require.NoError(t, roleSvc.AssignAPIPermissions(role.ID, []uint{apis[0].ID, apis[1].ID}))
	rules, err = policySvc.GetRulesByRole("2")
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	// 替换：去掉一个、加上一个
	require.NoError(t, roleSvc.AssignAPIPermissions(role.ID, []uint{apis[1].ID, apis[2].ID}))
	rules, err = policySvc.GetRulesByRole("2")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	paths := []string{rules[0].Path, rules[1].Path}
	assert.ElementsMatch(t, []string{"/rbac/api/users/*", "/rbac/api/roles/"}, paths)
	assert.True(t, enforcer.Check(user, "/rbac/api/roles", "GET"), "换入的角色列表权限可命中")
	assert.False(t, enforcer.Check(user, "/rbac/api/roles/7", "GET"), "列表权限不放行详情路径")

	// 清空
	require.NoError(t, roleSvc.AssignAPIPermissions(role.ID, nil))
	rules, err = policySvc.GetRulesByRole("2")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

// TestUserService_AssignRoles 按角色清单差量替换用户绑定
func TestUserService_AssignRoles(t *testing.T) {
	db := newTestDB(t)
	enforcer := rbac.NewEnforcer(NewPolicyService(db), "/rbac/api/")
	userSvc := NewUserService(db, enforcer)

	user := createUser(t, db, "dave")
	manager := createRole(t, db, "2", "部门经理", "dept_manager", models.DataScopeSubtree)
	employee := createRole(t, db, "3", "普通员工", "employee", models.DataScopeSelf)

	require.NoError(t, userSvc.AssignRoles(user.ID, []uint{manager.ID}))
	assert.ElementsMatch(t, []string{"2"}, enforcer.RolesFor("dave"))

	require.NoError(t, userSvc.AssignRoles(user.ID, []uint{employee.ID}))
	assert.ElementsMatch(t, []string{"3"}, enforcer.RolesFor("dave"))

	roles, err := userSvc.GetRoles(user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "3", roles[0].RoleID)
}

// TestRoleService_DeleteCleansPolicies 角色删除级联清理策略并同步快照
func TestRoleService_DeleteCleansPolicies(t *testing.T) {
	db := newTestDB(t)
	policySvc := NewPolicyService(db)
	enforcer := rbac.NewEnforcer(policySvc, "/rbac/api/")
	roleSvc := NewRoleService(db, enforcer)
	userSvc := NewUserService(db, enforcer)

	user := createUser(t, db, "erin")
	role := createRole(t, db, "2", "部门经理", "dept_manager", models.DataScopeSubtree)

	require.NoError(t, userSvc.AssignRoles(user.ID, []uint{role.ID}))
	_, err := enforcer.Grant("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)
	require.True(t, enforcer.Check(user, "/rbac/api/users/1", "GET"))

	require.NoError(t, roleSvc.Delete(role.ID))

	assert.False(t, enforcer.Check(user, "/rbac/api/users/1", "GET"), "删除后不再残留放行")

	rules, err := policySvc.ListRules()
	require.NoError(t, err)
	assert.Empty(t, rules)

	var bindings int64
	db.Model(&models.UserRole{}).Count(&bindings)
	assert.Zero(t, bindings)
}
