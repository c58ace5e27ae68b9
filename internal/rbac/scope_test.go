package rbac

import (
	"testing"

	"rbadmin/internal/models"

	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }
func intPtr(v int) *int    { return &v }

// 测试用部门树:
//   1(总公司)
//   ├── 2(技术部)
//   │   └── 4(后端组)
//   └── 3(市场部, 停用)
func fixtureTree() *DeptTree {
	return NewDeptTree([]DeptNode{
		{ID: 1, Level: 1, Status: true},
		{ID: 2, ParentID: uintPtr(1), Level: 2, Status: true},
		{ID: 3, ParentID: uintPtr(1), Level: 2, Status: false},
		{ID: 4, ParentID: uintPtr(2), Level: 3, Status: true},
	})
}

// TestResolve 数据权限解析
func TestResolve(t *testing.T) {
	tree := fixtureTree()

	tests := []struct {
		name     string
		user     *models.User
		wantAll  bool
		wantIDs  []uint
		wantMode Scope
	}{
		{
			name:     "未认证用户退化为本人范围",
			user:     nil,
			wantMode: ScopeSelf,
		},
		{
			name:     "超级用户不限制",
			user:     &models.User{IsSuperuser: true},
			wantAll:  true,
			wantMode: ScopeAll,
		},
		{
			name: "角色为全部数据",
			user: &models.User{
				DepartmentID: uintPtr(2),
				Roles:        []models.Role{{DataScope: models.DataScopeAll, IsActive: true}},
			},
			wantAll:  true,
			wantMode: ScopeAll,
		},
		{
			name: "本部门及以下",
			user: &models.User{
				DepartmentID: uintPtr(2),
				Roles:        []models.Role{{DataScope: models.DataScopeSubtree, IsActive: true}},
			},
			wantIDs:  []uint{2, 4},
			wantMode: ScopeSubtree,
		},
		{
			name: "仅本部门",
			user: &models.User{
				DepartmentID: uintPtr(2),
				Roles:        []models.Role{{DataScope: models.DataScopeDepartment, IsActive: true}},
			},
			wantIDs:  []uint{2},
			wantMode: ScopeDepartment,
		},
		{
			name: "多角色取最宽范围",
			user: &models.User{
				DepartmentID: uintPtr(2),
				Roles: []models.Role{
					{DataScope: models.DataScopeSelf, IsActive: true},
					{DataScope: models.DataScopeSubtree, IsActive: true},
				},
			},
			wantIDs:  []uint{2, 4},
			wantMode: ScopeSubtree,
		},
		{
			name: "停用角色不参与",
			user: &models.User{
				DepartmentID: uintPtr(2),
				Roles: []models.Role{
					{DataScope: models.DataScopeAll, IsActive: false},
					{DataScope: models.DataScopeSelf, IsActive: true},
				},
			},
			wantMode: ScopeSelf,
		},
		{
			name: "自定义覆盖优先于角色",
			user: &models.User{
				DepartmentID: uintPtr(2),
				DataScope:    intPtr(models.DataScopeDepartment),
				Roles:        []models.Role{{DataScope: models.DataScopeAll, IsActive: true}},
			},
			wantIDs:  []uint{2},
			wantMode: ScopeDepartment,
		},
		{
			name: "无角色默认本人",
			user: &models.User{
				DepartmentID: uintPtr(2),
			},
			wantMode: ScopeSelf,
		},
		{
			name: "部门范围但用户无部门：空集不放大",
			user: &models.User{
				Roles: []models.Role{{DataScope: models.DataScopeSubtree, IsActive: true}},
			},
			wantIDs:  nil,
			wantMode: ScopeSubtree,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.user, tree)
			assert.Equal(t, tt.wantMode, res.Scope)
			assert.Equal(t, tt.wantAll, res.All)
			assert.ElementsMatch(t, tt.wantIDs, res.DepartmentIDs)
		})
	}
}

// TestResolve_InvalidOverrideFallsThrough 非法覆盖值被忽略，回到角色范围
func TestResolve_InvalidOverrideFallsThrough(t *testing.T) {
	user := &models.User{
		DepartmentID: uintPtr(2),
		DataScope:    intPtr(99),
		Roles:        []models.Role{{DataScope: models.DataScopeDepartment, IsActive: true}},
	}
	res := Resolve(user, fixtureTree())
	assert.Equal(t, ScopeDepartment, res.Scope)
	assert.Equal(t, []uint{2}, res.DepartmentIDs)
}

// TestDeptTree_DescendantIDs 子孙枚举（含停用节点剪枝与防环）
func TestDeptTree_DescendantIDs(t *testing.T) {
	tree := fixtureTree()

	assert.ElementsMatch(t, []uint{2, 4}, tree.DescendantIDs(1), "停用的部门3被剪掉")
	assert.ElementsMatch(t, []uint{4}, tree.DescendantIDs(2))
	assert.Empty(t, tree.DescendantIDs(4))
	assert.Empty(t, tree.DescendantIDs(999), "不存在的部门返回空集")
}

// TestDeptTree_AllDescendantIDs 含停用节点的子孙枚举
func TestDeptTree_AllDescendantIDs(t *testing.T) {
	tree := fixtureTree()

	assert.ElementsMatch(t, []uint{2, 3, 4}, tree.AllDescendantIDs(1), "停用的部门3也在内")
	assert.ElementsMatch(t, []uint{4}, tree.AllDescendantIDs(2))
	assert.Empty(t, tree.AllDescendantIDs(999))
}

// TestDeptTree_CycleSafe 数据损坏成环时仍然终止
func TestDeptTree_CycleSafe(t *testing.T) {
	// 10 -> 11 -> 12 -> 10
	tree := NewDeptTree([]DeptNode{
		{ID: 10, ParentID: uintPtr(12), Status: true},
		{ID: 11, ParentID: uintPtr(10), Status: true},
		{ID: 12, ParentID: uintPtr(11), Status: true},
	})

	ids := tree.DescendantIDs(10)
	assert.ElementsMatch(t, []uint{11, 12}, ids, "每个节点只出现一次")

	path := tree.Path(11)
	assert.NotEmpty(t, path)
	assert.LessOrEqual(t, len(path), 3, "环上的路径有限截断")
}

// TestDeptTree_Path 根到节点的路径
func TestDeptTree_Path(t *testing.T) {
	tree := fixtureTree()

	assert.Equal(t, []uint{1, 2, 4}, tree.Path(4))
	assert.Equal(t, []uint{1}, tree.Path(1))
	assert.Empty(t, tree.Path(999))
}
