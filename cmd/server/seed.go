package main

import (
	"rbadmin/internal/database"
	"rbadmin/internal/models"
	"rbadmin/pkg/logger"

	"gorm.io/gorm"
)

// seedData 初始化种子数据（幂等，已存在则跳过）
func seedData() error {
	db := database.GetDB()

	if err := seedDepartments(db); err != nil {
		return err
	}
	if err := seedRoles(db); err != nil {
		return err
	}
	if err := seedAdminUser(db); err != nil {
		return err
	}
	if err := seedMenus(db); err != nil {
		return err
	}
	if err := seedApis(db); err != nil {
		return err
	}
	if err := seedPolicies(db); err != nil {
		return err
	}

	logger.GetLogger().Info("种子数据初始化完成")
	return nil
}

func seedDepartments(db *gorm.DB) error {
	var count int64
	db.Model(&models.Department{}).Count(&count)
	if count > 0 {
		return nil
	}

	root := &models.Department{Name: "总公司", Code: "HQ", Level: 1, SortOrder: 1, Status: true}
	if err := db.Create(root).Error; err != nil {
		return err
	}

	children := []*models.Department{
		{Name: "技术部", Code: "TECH", ParentID: &root.ID, Level: 2, SortOrder: 1, Status: true},
		{Name: "市场部", Code: "MARKET", ParentID: &root.ID, Level: 2, SortOrder: 2, Status: true},
	}
	for _, dept := range children {
		if err := db.Create(dept).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedRoles 内置角色使用固定的对外role_id，与默认策略一一对应
func seedRoles(db *gorm.DB) error {
	roles := []*models.Role{
		{RoleID: "1", Name: "超级管理员", Code: "super_admin", Description: "拥有所有权限", DataScope: models.DataScopeAll, IsActive: true},
		{RoleID: "2", Name: "部门经理", Code: "dept_manager", Description: "管理本部门及子部门", DataScope: models.DataScopeSubtree, IsActive: true},
		{RoleID: "3", Name: "普通员工", Code: "employee", Description: "只能查看自己的数据", DataScope: models.DataScopeSelf, IsActive: true},
	}

	for _, role := range roles {
		var count int64
		db.Model(&models.Role{}).Where("role_id = ?", role.RoleID).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(role).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	var dept models.Department
	var deptID *uint
	if err := db.Where("code = ?", "HQ").First(&dept).Error; err == nil {
		deptID = &dept.ID
	}

	admin := &models.User{
		Username:     "admin",
		Email:        "admin@example.com",
		Name:         "系统管理员",
		IsSuperuser:  true,
		Status:       models.UserStatusActive,
		DepartmentID: deptID,
	}
	if err := admin.SetPassword("admin123"); err != nil {
		return err
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	var role models.Role
	if err := db.Where("role_id = ?", "1").First(&role).Error; err != nil {
		return err
	}
	return db.Create(&models.UserRole{UserID: admin.ID, RoleID: role.ID}).Error
}

func seedMenus(db *gorm.DB) error {
	var count int64
	db.Model(&models.Menu{}).Count(&count)
	if count > 0 {
		return nil
	}

	system := &models.Menu{Name: "system", Title: "系统管理", MenuType: models.MenuTypeDirectory, SortOrder: 1, Visible: true, Status: true}
	if err := db.Create(system).Error; err != nil {
		return err
	}

	menus := []*models.Menu{
		{Name: "user", Title: "用户管理", MenuType: models.MenuTypeMenu, ParentID: &system.ID, SortOrder: 1, Visible: true, Status: true},
		{Name: "role", Title: "角色管理", MenuType: models.MenuTypeMenu, ParentID: &system.ID, SortOrder: 2, Visible: true, Status: true},
		{Name: "department", Title: "部门管理", MenuType: models.MenuTypeMenu, ParentID: &system.ID, SortOrder: 3, Visible: true, Status: true},
		{Name: "menu", Title: "菜单管理", MenuType: models.MenuTypeMenu, ParentID: &system.ID, SortOrder: 4, Visible: true, Status: true},
		{Name: "api", Title: "接口管理", MenuType: models.MenuTypeMenu, ParentID: &system.ID, SortOrder: 5, Visible: true, Status: true},
	}
	for _, menu := range menus {
		if err := db.Create(menu).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedApis(db *gorm.DB) error {
	var count int64
	db.Model(&models.Api{}).Count(&count)
	if count > 0 {
		return nil
	}

	// 精确路径带结尾斜杠，与策略的标准化存储形式一致
	apis := []*models.Api{
		{Name: "用户列表", Path: "/rbac/api/users/", Method: "GET", Group: "用户管理"},
		{Name: "用户详情", Path: "/rbac/api/users/*", Method: "GET", Group: "用户管理"},
		{Name: "创建用户", Path: "/rbac/api/users/", Method: "POST", Group: "用户管理"},
		{Name: "更新用户", Path: "/rbac/api/users/*", Method: "PUT", Group: "用户管理"},
		{Name: "角色列表", Path: "/rbac/api/roles/", Method: "GET", Group: "角色管理"},
		{Name: "角色详情", Path: "/rbac/api/roles/*", Method: "GET", Group: "角色管理"},
		{Name: "创建角色", Path: "/rbac/api/roles/", Method: "POST", Group: "角色管理"},
		{Name: "部门树", Path: "/rbac/api/departments/tree/", Method: "GET", Group: "部门管理"},
		{Name: "文章列表", Path: "/rbac/api/articles/", Method: "GET", Group: "业务管理"},
		{Name: "文章详情", Path: "/rbac/api/articles/*", Method: "GET", Group: "业务管理"},
		{Name: "创建文章", Path: "/rbac/api/articles/", Method: "POST", Group: "业务管理"},
		{Name: "项目列表", Path: "/rbac/api/projects/", Method: "GET", Group: "业务管理"},
	}
	for _, api := range apis {
		api.Status = true
		if err := db.Create(api).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedPolicies 默认权限策略
// 路径写法与引擎的标准化约定一致：API前缀下的精确模式带结尾斜杠，通配模式保持原样
func seedPolicies(db *gorm.DB) error {
	defaults := [][3]string{
		// 超级管理员
		{"1", "/rbac/api/*", "GET"},
		{"1", "/rbac/api/*", "POST"},
		{"1", "/rbac/api/*", "PUT"},
		{"1", "/rbac/api/*", "DELETE"},
		{"1", "/rbac/auth/profile", "GET"},

		// 部门经理
		{"2", "/rbac/api/users/", "GET"},
		{"2", "/rbac/api/users/*", "GET"},
		{"2", "/rbac/api/users/*", "PUT"},
		{"2", "/rbac/api/roles/", "GET"},
		{"2", "/rbac/api/roles/*", "GET"},
		{"2", "/rbac/auth/profile", "GET"},

		// 普通员工
		{"3", "/rbac/api/users/", "GET"},
		{"3", "/rbac/api/users/*", "GET"},
		{"3", "/rbac/auth/profile", "GET"},
	}

	for _, p := range defaults {
		var count int64
		db.Model(&models.PolicyRule{}).
			Where("role_id = ? AND path = ? AND method = ?", p[0], p[1], p[2]).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&models.PolicyRule{RoleID: p[0], Path: p[1], Method: p[2]}).Error; err != nil {
			return err
		}
	}
	return nil
}
