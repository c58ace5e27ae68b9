package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"rbadmin/internal/models"
	"rbadmin/internal/rbac"
	"rbadmin/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleService struct {
	db       *gorm.DB
	enforcer *rbac.Enforcer
}

func NewRoleService(db *gorm.DB, enforcer *rbac.Enforcer) *RoleService {
	return &RoleService{db: db, enforcer: enforcer}
}

// ========== 基础CRUD方法 ==========

// Create 创建角色，对外role_id由服务端生成
func (s *RoleService) Create(name, code, description string, dataScope int) (*models.Role, error) {
	if err := s.ValidateCreateParams(code, name, dataScope); err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&models.Role{}).Where("code = ? OR name = ?", code, name).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("角色名称或编码已存在")
	}

	role := &models.Role{
		RoleID:      uuid.NewString(),
		Name:        name,
		Code:        code,
		Description: description,
		DataScope:   dataScope,
		IsActive:    true,
	}

	err := s.db.Create(role).Error
	return role, err
}

// GetByID 根据ID获取角色
func (s *RoleService) GetByID(id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.Preload("Menus").First(&role, id).Error
	return &role, err
}

// GetWithPage 分页获取角色
func (s *RoleService) GetWithPage(isActive string, page, pageSize int) ([]*models.Role, int64, error) {
	var roles []*models.Role
	var total int64

	query := s.db.Model(&models.Role{})
	if isActive != "" {
		query = query.Where("is_active = ?", isActive == "true")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&roles).Error
	if err != nil {
		return nil, 0, err
	}

	return roles, total, nil
}

// Update 更新角色
// 数据权限范围或激活状态变化会影响授权结果，更新后强制重载权限快照
func (s *RoleService) Update(id uint, name, description string, dataScope int, isActive bool) (*models.Role, error) {
	if err := s.ValidateUpdateParams(name, dataScope); err != nil {
		return nil, err
	}

	var role models.Role
	if err := s.db.First(&role, id).Error; err != nil {
		return nil, err
	}

	needReload := role.IsActive != isActive

	role.Name = name
	role.Description = description
	role.DataScope = dataScope
	role.IsActive = isActive

	if err := s.db.Save(&role).Error; err != nil {
		return nil, err
	}

	if needReload {
		if err := s.enforcer.Reload(); err != nil {
			logger.GetLogger().Errorf("角色状态变更后重载权限快照失败: %v", err)
			return &role, fmt.Errorf("%w: %v", rbac.ErrSync, err)
		}
	}
	return &role, nil
}

// Delete 删除角色，级联清理角色绑定、菜单关联与权限策略，然后重载权限快照
func (s *RoleService) Delete(id uint) error {
	var role models.Role
	if err := s.db.First(&role, id).Error; err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RoleMenu{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.RoleID).Delete(&models.PolicyRule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})
	if err != nil {
		return err
	}

	if err := s.enforcer.Reload(); err != nil {
		logger.GetLogger().Errorf("角色删除后重载权限快照失败: %v", err)
		return fmt.Errorf("%w: %v", rbac.ErrSync, err)
	}
	return nil
}

// ========== 菜单权限方法 ==========

// AssignMenus 为角色分配菜单（整体替换），只影响前端可见性
func (s *RoleService) AssignMenus(roleID uint, menuIDs []uint) error {
	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		return err
	}

	var menus []models.Menu
	if err := s.db.Where("id IN ?", menuIDs).Find(&menus).Error; err != nil {
		return err
	}

	return s.db.Model(&role).Association("Menus").Replace(menus)
}

// GetMenus 获取角色的菜单
func (s *RoleService) GetMenus(roleID uint) ([]models.Menu, error) {
	var role models.Role
	err := s.db.Preload("Menus").First(&role, roleID).Error
	if err != nil {
		return nil, err
	}
	return role.Menus, nil
}

// ========== API权限方法 ==========

// GetPolicies 获取角色当前生效的权限策略
func (s *RoleService) GetPolicies(roleID uint) ([]models.PolicyRule, error) {
	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		return nil, err
	}
	return NewPolicyService(s.db).GetRulesByRole(role.RoleID)
}

// AssignAPIPermissions 按API清单整体替换角色的权限策略
// 差量执行：多余的撤销、缺失的授予，重复授予是良性空操作；
// 每一步都经过引擎双写，持久层与内存快照保持一致
func (s *RoleService) AssignAPIPermissions(roleID uint, apiIDs []uint) error {
	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		return err
	}

	var apis []models.Api
	if err := s.db.Where("id IN ? AND status = ?", apiIDs, true).Find(&apis).Error; err != nil {
		return err
	}

	// 目标集合按引擎的标准化约定建键，与库中已有策略的存储形式对齐
	type policyKey struct{ path, method string }
	desired := make(map[policyKey]bool, len(apis))
	for _, api := range apis {
		desired[policyKey{s.enforcer.NormalizePattern(api.Path), strings.ToUpper(api.Method)}] = true
	}

	existing, err := NewPolicyService(s.db).GetRulesByRole(role.RoleID)
	if err != nil {
		return err
	}

	var failed bool
	for _, rule := range existing {
		key := policyKey{rule.Path, rule.Method}
		if desired[key] {
			delete(desired, key)
			continue
		}
		if _, err := s.enforcer.Revoke(role.RoleID, rule.Path, rule.Method); err != nil {
			logger.GetLogger().Errorf("撤销策略失败 role=%s %s %s: %v", role.RoleID, rule.Method, rule.Path, err)
			failed = true
		}
	}
	for key := range desired {
		if _, err := s.enforcer.Grant(role.RoleID, key.path, key.method); err != nil {
			logger.GetLogger().Errorf("授予策略失败 role=%s %s %s: %v", role.RoleID, key.method, key.path, err)
			failed = true
		}
	}

	if failed {
		// 中途失败可能造成持久层与快照分歧，强制重载兜底
		if err := s.enforcer.Reload(); err != nil {
			return fmt.Errorf("%w: %v", rbac.ErrSync, err)
		}
		return fmt.Errorf("%w: 部分策略变更失败，已强制重载", rbac.ErrSync)
	}
	return nil
}

// ========== 验证方法 ==========

// ValidateCode 验证角色编码
func (s *RoleService) ValidateCode(code string) bool {
	if len(code) < 2 || len(code) > 50 {
		return false
	}
	// 只允许字母、数字和下划线
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return true
}

// ValidateName 验证角色名称
func (s *RoleService) ValidateName(name string) bool {
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 50
}

// ValidateCreateParams 验证创建角色的参数
func (s *RoleService) ValidateCreateParams(code, name string, dataScope int) error {
	if !s.ValidateCode(code) {
		return fmt.Errorf("角色编码长度必须在2-50个字符之间，且只能包含字母、数字和下划线")
	}
	if !s.ValidateName(name) {
		return fmt.Errorf("角色名称长度必须在2-50个字符之间")
	}
	if !models.ValidDataScope(dataScope) {
		return fmt.Errorf("数据权限范围必须在1-4之间")
	}
	return nil
}

// ValidateUpdateParams 验证更新角色的参数
func (s *RoleService) ValidateUpdateParams(name string, dataScope int) error {
	if !s.ValidateName(name) {
		return fmt.Errorf("角色名称长度必须在2-50个字符之间")
	}
	if !models.ValidDataScope(dataScope) {
		return fmt.Errorf("数据权限范围必须在1-4之间")
	}
	return nil
}
