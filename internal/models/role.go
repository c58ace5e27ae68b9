package models

// 数据权限范围常量（数值越小权限越大）
const (
	DataScopeAll        = 1 // 全部数据
	DataScopeSubtree    = 2 // 本部门及以下数据
	DataScopeDepartment = 3 // 本部门数据
	DataScopeSelf       = 4 // 本人数据
)

// Role 角色模型
type Role struct {
	BaseModel
	RoleID      string `json:"role_id" gorm:"uniqueIndex;size:50;not null"` // 对外角色ID，策略与分组均以此为准
	Name        string `json:"name" gorm:"uniqueIndex;size:50;not null"`    // 角色名称
	Code        string `json:"code" gorm:"uniqueIndex;size:50;not null"`    // 角色编码
	Description string `json:"description" gorm:"size:255"`                 // 角色描述
	DataScope   int    `json:"data_scope" gorm:"default:4"`                 // 数据权限范围
	IsActive    bool   `json:"is_active" gorm:"default:true"`               // 是否激活

	Menus []Menu `json:"menus,omitempty" gorm:"many2many:rbac_role_menus;"`
}

// TableName 表名
func (r *Role) TableName() string {
	return "rbac_roles"
}

// ValidDataScope 数据权限范围是否合法
func ValidDataScope(scope int) bool {
	return scope >= DataScopeAll && scope <= DataScopeSelf
}
