package services

import (
	"fmt"
	"strings"

	"rbadmin/internal/models"

	"gorm.io/gorm"
)

type ApiService struct {
	db *gorm.DB
}

func NewApiService(db *gorm.DB) *ApiService {
	return &ApiService{db: db}
}

// ========== 基础CRUD方法 ==========

// Create 创建接口记录
func (s *ApiService) Create(name, path, method, group, description string) (*models.Api, error) {
	method = strings.ToUpper(method)

	var count int64
	s.db.Model(&models.Api{}).Where("path = ? AND method = ?", path, method).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("接口已存在")
	}

	api := &models.Api{
		Name:        name,
		Path:        path,
		Method:      method,
		Group:       group,
		Description: description,
		Status:      true,
	}

	err := s.db.Create(api).Error
	return api, err
}

// GetByID 根据ID获取接口
func (s *ApiService) GetByID(id uint) (*models.Api, error) {
	var api models.Api
	err := s.db.First(&api, id).Error
	return &api, err
}

// GetWithPage 分页获取接口，支持按分组筛选
func (s *ApiService) GetWithPage(group string, page, pageSize int) ([]*models.Api, int64, error) {
	var apis []*models.Api
	var total int64

	query := s.db.Model(&models.Api{})
	if group != "" {
		query = query.Where("\"group\" = ?", group)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("\"group\", path").Offset(offset).Limit(pageSize).Find(&apis).Error
	if err != nil {
		return nil, 0, err
	}

	return apis, total, nil
}

// Update 更新接口
func (s *ApiService) Update(id uint, name, path, method, group, description string, status bool) (*models.Api, error) {
	var api models.Api
	if err := s.db.First(&api, id).Error; err != nil {
		return nil, err
	}

	api.Name = name
	api.Path = path
	api.Method = strings.ToUpper(method)
	api.Group = group
	api.Description = description
	api.Status = status

	err := s.db.Save(&api).Error
	return &api, err
}

// Delete 删除接口记录（不回收已下发的策略，策略由角色授权界面管理）
func (s *ApiService) Delete(id uint) error {
	var api models.Api
	if err := s.db.First(&api, id).Error; err != nil {
		return err
	}
	return s.db.Delete(&api).Error
}
