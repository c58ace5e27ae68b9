package rbac

import (
	"rbadmin/internal/models"

	"gorm.io/gorm"
)

// 查询过滤构建器：把数据权限解析结果翻译成可组合的gorm查询条件。
// 受控实体（嵌入models.GovernedModel）使用GovernedScope；
// Department/User等管理表使用各自的回退规则；其余类型一律不匹配任何行。

// DenyAll 不匹配任何行
func DenyAll() func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("1 = 0")
	}
}

// GovernedScope 受控实体的行级过滤，归属字段为created_by_id
func GovernedScope(res Resolution, userID uint) func(*gorm.DB) *gorm.DB {
	return GovernedScopeField(res, userID, "created_by_id")
}

// GovernedScopeField 受控实体的行级过滤，归属字段可指定
// 公开数据是独立的放行分支：无部门的用户看不到任何部门数据，但仍能看到公开数据
func GovernedScopeField(res Resolution, userID uint, ownerColumn string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		switch {
		case res.All:
			return tx
		case res.Scope == ScopeSubtree || res.Scope == ScopeDepartment:
			if len(res.DepartmentIDs) == 0 {
				// 用户没有部门：部门分支必然不命中，仅保留公开数据
				return tx.Where("is_public = ?", true)
			}
			owners := tx.Session(&gorm.Session{NewDB: true}).
				Model(&models.User{}).
				Select("id").
				Where("department_id IN ?", res.DepartmentIDs)
			return tx.Where(
				"is_public = ? OR owner_department_id IN ? OR "+ownerColumn+" IN (?)",
				true, res.DepartmentIDs, owners,
			)
		default:
			return tx.Where("is_public = ? OR "+ownerColumn+" = ?", true, userID)
		}
	}
}

// DepartmentScope 部门管理表的回退过滤：按可见部门ID集合过滤
func DepartmentScope(res Resolution) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if res.All {
			return tx
		}
		if len(res.DepartmentIDs) == 0 {
			return tx.Where("1 = 0")
		}
		return tx.Where("id IN ?", res.DepartmentIDs)
	}
}

// UserScope 用户管理表的回退过滤：按可见部门过滤，本人范围退化为只看自己
func UserScope(res Resolution, userID uint) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if res.All {
			return tx
		}
		if res.Scope == ScopeSelf {
			return tx.Where("id = ?", userID)
		}
		if len(res.DepartmentIDs) == 0 {
			return tx.Where("1 = 0")
		}
		return tx.Where("department_id IN ?", res.DepartmentIDs)
	}
}
