package services

import (
	"fmt"
	"unicode/utf8"

	"rbadmin/internal/models"
	"rbadmin/internal/rbac"
	"rbadmin/pkg/logger"

	"gorm.io/gorm"
)

type DepartmentService struct {
	db *gorm.DB
}

func NewDepartmentService(db *gorm.DB) *DepartmentService {
	return &DepartmentService{db: db}
}

// ========== 基础CRUD方法 ==========

// Create 创建部门，层级 = 父部门层级 + 1，根部门层级为1
func (s *DepartmentService) Create(name, code string, parentID *uint, sortOrder int) (*models.Department, error) {
	if err := s.validateParams(name, code); err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&models.Department{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("部门编码已存在")
	}

	level := 1
	if parentID != nil {
		var parent models.Department
		if err := s.db.First(&parent, *parentID).Error; err != nil {
			return nil, fmt.Errorf("上级部门不存在")
		}
		level = parent.Level + 1
	}

	dept := &models.Department{
		Name:      name,
		Code:      code,
		ParentID:  parentID,
		Level:     level,
		SortOrder: sortOrder,
		Status:    true,
	}

	err := s.db.Create(dept).Error
	return dept, err
}

// GetByID 根据ID获取部门
func (s *DepartmentService) GetByID(id uint) (*models.Department, error) {
	var dept models.Department
	err := s.db.First(&dept, id).Error
	return &dept, err
}

// Update 更新部门
// 调整上级部门只重算本节点的层级，不级联重算子孙的层级
func (s *DepartmentService) Update(id uint, name string, parentID *uint, sortOrder int, status bool) (*models.Department, error) {
	var dept models.Department
	if err := s.db.First(&dept, id).Error; err != nil {
		return nil, err
	}

	if parentID != nil {
		if *parentID == id {
			return nil, fmt.Errorf("上级部门不能是自己")
		}
		var parent models.Department
		if err := s.db.First(&parent, *parentID).Error; err != nil {
			return nil, fmt.Errorf("上级部门不存在")
		}
		// 不允许挂到自己的子孙下面，否则成环
		tree, err := s.Tree()
		if err != nil {
			return nil, err
		}
		for _, did := range tree.DescendantIDs(id) {
			if did == *parentID {
				return nil, fmt.Errorf("不能将部门移动到其子部门下")
			}
		}
		if dept.ParentID == nil || *dept.ParentID != *parentID {
			logger.GetLogger().Warnf("部门 %d 调整上级，仅重算本节点层级，子孙层级保持不变", id)
		}
		dept.Level = parent.Level + 1
	} else {
		dept.Level = 1
	}

	dept.Name = name
	dept.ParentID = parentID
	dept.SortOrder = sortOrder
	dept.Status = status

	err := s.db.Save(&dept).Error
	return &dept, err
}

// Delete 删除部门，子部门级联删除由外键约束完成
// 本部门或任一子孙部门（含停用）下存在用户时拒绝删除
func (s *DepartmentService) Delete(id uint) error {
	var dept models.Department
	if err := s.db.First(&dept, id).Error; err != nil {
		return err
	}

	tree, err := s.Tree()
	if err != nil {
		return err
	}
	ids := append(tree.AllDescendantIDs(id), id)

	var userCount int64
	s.db.Model(&models.User{}).Where("department_id IN ?", ids).Count(&userCount)
	if userCount > 0 {
		return fmt.Errorf("部门或其子部门下存在用户，不允许删除")
	}

	return s.db.Delete(&dept).Error
}

// ========== 层级查询方法 ==========

// Tree 构建部门层级的内存视图
func (s *DepartmentService) Tree() (*rbac.DeptTree, error) {
	var depts []models.Department
	if err := s.db.Find(&depts).Error; err != nil {
		return nil, err
	}

	nodes := make([]rbac.DeptNode, 0, len(depts))
	for _, d := range depts {
		nodes = append(nodes, rbac.DeptNode{
			ID:       d.ID,
			ParentID: d.ParentID,
			Level:    d.Level,
			Status:   d.Status,
		})
	}
	return rbac.NewDeptTree(nodes), nil
}

// GetChildren 获取直接子部门（仅激活状态，按排序）
func (s *DepartmentService) GetChildren(id uint) ([]models.Department, error) {
	var children []models.Department
	err := s.db.Where("parent_id = ? AND status = ?", id, true).
		Order("sort_order, created_at").
		Find(&children).Error
	return children, err
}

// GetDescendantIDs 获取全部子孙部门ID（防环）
func (s *DepartmentService) GetDescendantIDs(id uint) ([]uint, error) {
	tree, err := s.Tree()
	if err != nil {
		return nil, err
	}
	return tree.DescendantIDs(id), nil
}

// GetPath 获取从根到该部门的名称路径，用于展示
func (s *DepartmentService) GetPath(id uint) ([]string, error) {
	tree, err := s.Tree()
	if err != nil {
		return nil, err
	}

	ids := tree.Path(id)
	if len(ids) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var depts []models.Department
	if err := s.db.Where("id IN ?", ids).Find(&depts).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
	}

	path := make([]string, 0, len(ids))
	for _, did := range ids {
		path = append(path, names[did])
	}
	return path, nil
}

// DeptTreeNode 部门树展示节点
type DeptTreeNode struct {
	models.Department
	ChildNodes []*DeptTreeNode `json:"children"`
}

// GetTree 构建嵌套的部门树（按可见部门过滤）
func (s *DepartmentService) GetTree(res rbac.Resolution) ([]*DeptTreeNode, error) {
	var depts []models.Department
	query := s.db.Scopes(rbac.DepartmentScope(res)).Order("sort_order, created_at")
	if err := query.Find(&depts).Error; err != nil {
		return nil, err
	}

	nodes := make(map[uint]*DeptTreeNode, len(depts))
	for i := range depts {
		nodes[depts[i].ID] = &DeptTreeNode{Department: depts[i]}
	}

	var roots []*DeptTreeNode
	for _, node := range nodes {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.ChildNodes = append(parent.ChildNodes, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// ========== 验证方法 ==========

func (s *DepartmentService) validateParams(name, code string) error {
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return fmt.Errorf("部门名称长度必须在2-50个字符之间")
	}
	if len(code) < 2 || len(code) > 50 {
		return fmt.Errorf("部门编码长度必须在2-50个字符之间")
	}
	return nil
}
