package rbac

import "rbadmin/internal/models"

// Scope 数据权限范围，数值越小可见范围越大
type Scope int

const (
	ScopeAll        Scope = models.DataScopeAll        // 全部数据
	ScopeSubtree    Scope = models.DataScopeSubtree    // 本部门及以下数据
	ScopeDepartment Scope = models.DataScopeDepartment // 本部门数据
	ScopeSelf       Scope = models.DataScopeSelf       // 本人数据
)

// Resolution 数据权限解析结果
// All为真表示不限制部门；DepartmentIDs为空集时表示"不匹配任何部门数据"，
// 而不是不限制——这个极性不能弄反
type Resolution struct {
	Scope         Scope
	All           bool
	DepartmentIDs []uint
}

// Resolve 解析用户的有效数据权限范围
// 优先级：超级用户 > 用户自定义覆盖 > 激活角色中最宽的范围 > 默认本人数据。
// 纯函数：只读取user（需预载Roles）与部门树视图，便于用字面固件做单元测试
func Resolve(user *models.User, tree *DeptTree) Resolution {
	if user == nil {
		return Resolution{Scope: ScopeSelf}
	}
	if user.IsSuperuser {
		return Resolution{Scope: ScopeAll, All: true}
	}

	scope := effectiveScope(user)

	switch scope {
	case ScopeAll:
		return Resolution{Scope: ScopeAll, All: true}
	case ScopeSubtree:
		if user.DepartmentID == nil || tree == nil || !tree.Exists(*user.DepartmentID) {
			return Resolution{Scope: ScopeSubtree}
		}
		ids := append([]uint{*user.DepartmentID}, tree.DescendantIDs(*user.DepartmentID)...)
		return Resolution{Scope: ScopeSubtree, DepartmentIDs: ids}
	case ScopeDepartment:
		if user.DepartmentID == nil {
			return Resolution{Scope: ScopeDepartment}
		}
		return Resolution{Scope: ScopeDepartment, DepartmentIDs: []uint{*user.DepartmentID}}
	default:
		// 本人数据：不做部门限制，行归属限制由过滤器施加
		return Resolution{Scope: ScopeSelf}
	}
}

// effectiveScope 计算生效的范围值：自定义覆盖优先，否则取激活角色中的最小值
func effectiveScope(user *models.User) Scope {
	if user.DataScope != nil && models.ValidDataScope(*user.DataScope) {
		return Scope(*user.DataScope)
	}

	best := 0
	for _, role := range user.Roles {
		if !role.IsActive || !models.ValidDataScope(role.DataScope) {
			continue
		}
		if best == 0 || role.DataScope < best {
			best = role.DataScope
		}
	}
	if best == 0 {
		return ScopeSelf
	}
	return Scope(best)
}
