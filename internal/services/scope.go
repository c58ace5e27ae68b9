package services

import (
	"rbadmin/internal/models"
	"rbadmin/internal/rbac"

	"gorm.io/gorm"
)

// ResolveScope 解析用户的有效数据权限
// 加载部门层级视图并确保角色已预载后，交给纯函数rbac.Resolve计算
func ResolveScope(db *gorm.DB, user *models.User) (rbac.Resolution, error) {
	if user == nil {
		return rbac.Resolve(nil, nil), nil
	}
	if user.IsSuperuser {
		return rbac.Resolve(user, nil), nil
	}

	if user.Roles == nil {
		var loaded models.User
		if err := db.Preload("Roles").First(&loaded, user.ID).Error; err != nil {
			return rbac.Resolution{Scope: rbac.ScopeSelf}, err
		}
		user.Roles = loaded.Roles
	}

	tree, err := NewDepartmentService(db).Tree()
	if err != nil {
		return rbac.Resolution{Scope: rbac.ScopeSelf}, err
	}
	return rbac.Resolve(user, tree), nil
}
