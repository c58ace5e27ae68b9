package services

import (
	"errors"
	"fmt"
	"strings"

	"rbadmin/internal/models"
	"rbadmin/internal/rbac"

	"gorm.io/gorm"
)

// PolicyService 策略存储服务，实现rbac.PolicyStore
type PolicyService struct {
	db *gorm.DB
}

func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db}
}

// ========== rbac.PolicyStore 实现 ==========

// ListRules 全量读取权限策略
func (s *PolicyService) ListRules() ([]models.PolicyRule, error) {
	var rules []models.PolicyRule
	err := s.db.Find(&rules).Error
	return rules, err
}

// ListGroupings 全量读取用户角色绑定（仅激活角色）
func (s *PolicyService) ListGroupings() ([]rbac.Grouping, error) {
	var groupings []rbac.Grouping
	err := s.db.Table("rbac_user_roles AS ur").
		Select("u.username AS username, r.role_id AS role_id").
		Joins("JOIN rbac_users u ON u.id = ur.user_id").
		Joins("JOIN rbac_roles r ON r.id = ur.role_id").
		Where("r.is_active = ?", true).
		Scan(&groupings).Error
	return groupings, err
}

// CreateRule 新建权限策略，已存在时报rbac.ErrDuplicateRule
func (s *PolicyService) CreateRule(roleID, path, method string) (bool, error) {
	method = strings.ToUpper(method)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PolicyRule{}).
			Where("role_id = ? AND path = ? AND method = ?", roleID, path, method).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return rbac.ErrDuplicateRule
		}
		return tx.Create(&models.PolicyRule{RoleID: roleID, Path: path, Method: method}).Error
	})
	if err != nil {
		// 并发插入撞唯一索引也归入重复错误
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, rbac.ErrDuplicateRule
		}
		return false, err
	}
	return true, nil
}

// DeleteRule 删除权限策略，返回是否真正删除
func (s *PolicyService) DeleteRule(roleID, path, method string) (bool, error) {
	result := s.db.Where("role_id = ? AND path = ? AND method = ?", roleID, path, strings.ToUpper(method)).
		Delete(&models.PolicyRule{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateGrouping 新建用户角色绑定，已存在时报rbac.ErrDuplicateAssignment
func (s *PolicyService) CreateGrouping(username, roleID string) (bool, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 用户 %s", rbac.ErrNotFound, username)
			}
			return err
		}
		var role models.Role
		if err := tx.Where("role_id = ?", roleID).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: 角色 %s", rbac.ErrNotFound, roleID)
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.UserRole{}).
			Where("user_id = ? AND role_id = ?", user.ID, role.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return rbac.ErrDuplicateAssignment
		}
		return tx.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, rbac.ErrDuplicateAssignment
		}
		return false, err
	}
	return true, nil
}

// DeleteGrouping 删除用户角色绑定，返回是否真正删除
func (s *PolicyService) DeleteGrouping(username, roleID string) (bool, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	var role models.Role
	if err := s.db.Where("role_id = ?", roleID).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	result := s.db.Where("user_id = ? AND role_id = ?", user.ID, role.ID).Delete(&models.UserRole{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ========== 查询方法 ==========

// GetRulesByRole 获取角色的全部权限策略
func (s *PolicyService) GetRulesByRole(roleID string) ([]models.PolicyRule, error) {
	var rules []models.PolicyRule
	err := s.db.Where("role_id = ?", roleID).Order("path").Find(&rules).Error
	return rules, err
}

// GetWithPage 分页获取权限策略
func (s *PolicyService) GetWithPage(roleID string, page, pageSize int) ([]*models.PolicyRule, int64, error) {
	var rules []*models.PolicyRule
	var total int64

	query := s.db.Model(&models.PolicyRule{})
	if roleID != "" {
		query = query.Where("role_id = ?", roleID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("role_id, path").Offset(offset).Limit(pageSize).Find(&rules).Error
	if err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}
