package models

import "time"

// 菜单类型常量
const (
	MenuTypeDirectory = 1 // 目录
	MenuTypeMenu      = 2 // 菜单
	MenuTypeButton    = 3 // 按钮
)

// Menu 菜单模型 - 控制前端导航可见性，与API授权（PolicyRule）相互独立
type Menu struct {
	BaseModel
	Name           string  `json:"name" gorm:"size:50;not null"`      // 菜单名称
	Title          string  `json:"title" gorm:"size:50;not null"`     // 菜单标题
	Icon           *string `json:"icon" gorm:"size:100"`              // 菜单图标
	Path           *string `json:"path" gorm:"size:200"`              // 路由路径
	Component      *string `json:"component" gorm:"size:200"`         // 组件路径
	Redirect       *string `json:"redirect" gorm:"size:200"`          // 重定向路径
	MenuType       int     `json:"menu_type" gorm:"default:2"`        // 菜单类型
	PermissionCode *string `json:"permission_code" gorm:"size:100"`   // 权限标识
	ParentID       *uint   `json:"parent_id" gorm:"index"`            // 上级菜单
	SortOrder      int     `json:"sort_order" gorm:"default:0"`       // 排序
	IsHidden       bool    `json:"is_hidden" gorm:"default:false"`    // 是否隐藏
	Visible        bool    `json:"visible" gorm:"default:true"`       // 是否显示
	Status         bool    `json:"status" gorm:"default:true"`        // 状态

	Parent   *Menu  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Menu `json:"children,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

// RoleMenu 角色菜单关联表，唯一约束 (role_id, menu_id)
type RoleMenu struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RoleID    uint      `json:"role_id" gorm:"not null;uniqueIndex:idx_role_menu"`
	MenuID    uint      `json:"menu_id" gorm:"not null;uniqueIndex:idx_role_menu"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 表名
func (m *Menu) TableName() string {
	return "rbac_menus"
}

// TableName 表名
func (rm *RoleMenu) TableName() string {
	return "rbac_role_menus"
}
