package services

import (
	"fmt"
	"time"

	"rbadmin/internal/models"
	"rbadmin/internal/rbac"
	"rbadmin/pkg/logger"

	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	enforcer *rbac.Enforcer
}

func NewUserService(db *gorm.DB, enforcer *rbac.Enforcer) *UserService {
	return &UserService{db: db, enforcer: enforcer}
}

// ========== 基础CRUD方法 ==========

// Create 创建用户
func (s *UserService) Create(username, email, password, name string, departmentID *uint) (*models.User, error) {
	var count int64
	s.db.Model(&models.User{}).Where("username = ? OR email = ?", username, email).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("用户名或邮箱已存在")
	}

	if departmentID != nil {
		var dept models.Department
		if err := s.db.First(&dept, *departmentID).Error; err != nil {
			return nil, fmt.Errorf("部门不存在")
		}
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		Name:         name,
		DepartmentID: departmentID,
		Status:       models.UserStatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	err := s.db.Create(user).Error
	return user, err
}

// GetByID 根据ID获取用户（预载部门与角色）
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Department").Preload("Roles").First(&user, id).Error
	return &user, err
}

// GetByUsername 根据用户名获取用户
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Department").Preload("Roles").Where("username = ?", username).First(&user).Error
	return &user, err
}

// GetWithPage 分页获取用户，按调用者的可见范围过滤
func (s *UserService) GetWithPage(res rbac.Resolution, callerID uint, status string, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.Model(&models.User{}).Scopes(rbac.UserScope(res, callerID))
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Department").Offset(offset).Limit(pageSize).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Update 更新用户基础信息
func (s *UserService) Update(id uint, name string, phone *string, departmentID *uint, status string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	if departmentID != nil {
		var dept models.Department
		if err := s.db.First(&dept, *departmentID).Error; err != nil {
			return nil, fmt.Errorf("部门不存在")
		}
	}

	user.Name = name
	user.Phone = phone
	user.DepartmentID = departmentID
	user.Status = status

	err := s.db.Save(&user).Error
	return &user, err
}

// Disable 禁用用户（软禁用，不删除）
func (s *UserService) Disable(id uint) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).
		Update("status", models.UserStatusInactive).Error
}

// ResetPassword 重置密码
func (s *UserService) ResetPassword(id uint, password string) error {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	return s.db.Model(&user).Update("password_hash", user.PasswordHash).Error
}

// UpdateLoginInfo 记录登录时间与IP
func (s *UserService) UpdateLoginInfo(id uint, ip string) error {
	now := time.Now()
	return s.db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": &now,
			"last_login_ip": &ip,
		}).Error
}

// ========== 数据权限方法 ==========

// ResolveScope 计算调用者的可见范围
func (s *UserService) ResolveScope(user *models.User) (rbac.Resolution, error) {
	return ResolveScope(s.db, user)
}

// SetDataScope 设置用户的自定义数据权限覆盖，nil表示恢复跟随角色
func (s *UserService) SetDataScope(id uint, dataScope *int) (*models.User, error) {
	if dataScope != nil && !models.ValidDataScope(*dataScope) {
		return nil, fmt.Errorf("数据权限范围必须在1-4之间")
	}

	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&user).Update("data_scope", dataScope).Error; err != nil {
		return nil, err
	}
	user.DataScope = dataScope
	return &user, nil
}

// ========== 角色管理方法 ==========

// AssignRoles 按角色ID清单整体替换用户的角色（差量执行，经引擎双写）
func (s *UserService) AssignRoles(userID uint, roleIDs []uint) error {
	var user models.User
	if err := s.db.Preload("Roles").First(&user, userID).Error; err != nil {
		return err
	}

	var roles []models.Role
	if err := s.db.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
		return err
	}

	desired := make(map[string]bool, len(roles))
	for _, role := range roles {
		desired[role.RoleID] = true
	}

	var failed bool
	for _, role := range user.Roles {
		if desired[role.RoleID] {
			delete(desired, role.RoleID)
			continue
		}
		if _, err := s.enforcer.UnassignRole(user.Username, role.RoleID); err != nil {
			logger.GetLogger().Errorf("解除角色绑定失败 user=%s role=%s: %v", user.Username, role.RoleID, err)
			failed = true
		}
	}
	for roleID := range desired {
		if _, err := s.enforcer.AssignRole(user.Username, roleID); err != nil {
			logger.GetLogger().Errorf("绑定角色失败 user=%s role=%s: %v", user.Username, roleID, err)
			failed = true
		}
	}

	if failed {
		if err := s.enforcer.Reload(); err != nil {
			return fmt.Errorf("%w: %v", rbac.ErrSync, err)
		}
		return fmt.Errorf("%w: 部分角色变更失败，已强制重载", rbac.ErrSync)
	}
	return nil
}

// AddRole 为用户绑定单个角色
func (s *UserService) AddRole(userID uint, roleID uint) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return err
	}
	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		return err
	}
	_, err := s.enforcer.AssignRole(user.Username, role.RoleID)
	return err
}

// RemoveRole 解除用户的单个角色
func (s *UserService) RemoveRole(userID uint, roleID uint) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return err
	}
	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		return err
	}
	_, err := s.enforcer.UnassignRole(user.Username, role.RoleID)
	return err
}

// GetRoles 获取用户的角色
func (s *UserService) GetRoles(userID uint) ([]models.Role, error) {
	var user models.User
	err := s.db.Preload("Roles").First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}
