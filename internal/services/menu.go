package services

import (
	"encoding/json"
	"fmt"
	"time"

	"rbadmin/internal/models"
	"rbadmin/pkg/cache"
	"rbadmin/pkg/logger"

	"gorm.io/gorm"
)

const userMenuCacheTTL = 10 * time.Minute

type MenuService struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

func NewMenuService(db *gorm.DB, redisCache *cache.RedisCache) *MenuService {
	return &MenuService{db: db, cache: redisCache}
}

// ========== 基础CRUD方法 ==========

// Create 创建菜单
func (s *MenuService) Create(menu *models.Menu) (*models.Menu, error) {
	if menu.MenuType < models.MenuTypeDirectory || menu.MenuType > models.MenuTypeButton {
		return nil, fmt.Errorf("菜单类型必须在1-3之间")
	}
	if menu.ParentID != nil {
		var parent models.Menu
		if err := s.db.First(&parent, *menu.ParentID).Error; err != nil {
			return nil, fmt.Errorf("上级菜单不存在")
		}
	}

	if err := s.db.Create(menu).Error; err != nil {
		return nil, err
	}
	s.invalidateUserMenuCache()
	return menu, nil
}

// GetByID 根据ID获取菜单
func (s *MenuService) GetByID(id uint) (*models.Menu, error) {
	var menu models.Menu
	err := s.db.First(&menu, id).Error
	return &menu, err
}

// Update 更新菜单
func (s *MenuService) Update(menu *models.Menu) (*models.Menu, error) {
	var existing models.Menu
	if err := s.db.First(&existing, menu.ID).Error; err != nil {
		return nil, err
	}

	if err := s.db.Save(menu).Error; err != nil {
		return nil, err
	}
	s.invalidateUserMenuCache()
	return menu, nil
}

// Delete 删除菜单，子菜单级联删除由外键约束完成
func (s *MenuService) Delete(id uint) error {
	var menu models.Menu
	if err := s.db.First(&menu, id).Error; err != nil {
		return err
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_id = ?", id).Delete(&models.RoleMenu{}).Error; err != nil {
			return err
		}
		return tx.Delete(&menu).Error
	}); err != nil {
		return err
	}
	s.invalidateUserMenuCache()
	return nil
}

// ========== 菜单树方法 ==========

// MenuTreeNode 菜单树展示节点
type MenuTreeNode struct {
	models.Menu
	ChildNodes []*MenuTreeNode `json:"children"`
}

// GetTree 构建完整菜单树（管理端用）
func (s *MenuService) GetTree() ([]*MenuTreeNode, error) {
	var menus []models.Menu
	if err := s.db.Order("sort_order, created_at").Find(&menus).Error; err != nil {
		return nil, err
	}
	return buildMenuTree(menus), nil
}

// GetUserMenus 获取用户可见的菜单树
// 超级用户看到全部，其余按角色菜单关联计算；结果短暂缓存在Redis
func (s *MenuService) GetUserMenus(user *models.User) ([]*MenuTreeNode, error) {
	cacheKey := fmt.Sprintf("user-menus:%d", user.ID)
	if s.cache != nil {
		if cached, err := s.cache.Get(cacheKey); err == nil && cached != "" {
			var tree []*MenuTreeNode
			if err := json.Unmarshal([]byte(cached), &tree); err == nil {
				return tree, nil
			}
		}
	}

	var menus []models.Menu
	query := s.db.Where("status = ? AND visible = ?", true, true).Order("sort_order, created_at")

	if user.IsSuperuser {
		if err := query.Find(&menus).Error; err != nil {
			return nil, err
		}
	} else {
		var roleIDs []uint
		if err := s.db.Model(&models.UserRole{}).Where("user_id = ?", user.ID).
			Pluck("role_id", &roleIDs).Error; err != nil {
			return nil, err
		}
		if len(roleIDs) == 0 {
			return []*MenuTreeNode{}, nil
		}
		var menuIDs []uint
		if err := s.db.Model(&models.RoleMenu{}).Where("role_id IN ?", roleIDs).
			Distinct("menu_id").Pluck("menu_id", &menuIDs).Error; err != nil {
			return nil, err
		}
		if err := query.Where("id IN ?", menuIDs).Find(&menus).Error; err != nil {
			return nil, err
		}
	}

	tree := buildMenuTree(menus)

	if s.cache != nil {
		if data, err := json.Marshal(tree); err == nil {
			if err := s.cache.Set(cacheKey, string(data), userMenuCacheTTL); err != nil {
				logger.GetLogger().Warnf("写入用户菜单缓存失败: %v", err)
			}
		}
	}
	return tree, nil
}

func buildMenuTree(menus []models.Menu) []*MenuTreeNode {
	nodes := make(map[uint]*MenuTreeNode, len(menus))
	for i := range menus {
		nodes[menus[i].ID] = &MenuTreeNode{Menu: menus[i]}
	}

	var roots []*MenuTreeNode
	for _, menu := range menus {
		node := nodes[menu.ID]
		if menu.ParentID != nil {
			if parent, ok := nodes[*menu.ParentID]; ok {
				parent.ChildNodes = append(parent.ChildNodes, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// invalidateUserMenuCache 菜单或角色菜单变化后批量失效缓存
func (s *MenuService) invalidateUserMenuCache() {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern("user-menus:*"); err != nil {
		logger.GetLogger().Warnf("失效用户菜单缓存失败: %v", err)
	}
}

// InvalidateUserMenuCache 供角色菜单分配等外部变更调用
func (s *MenuService) InvalidateUserMenuCache() {
	s.invalidateUserMenuCache()
}
