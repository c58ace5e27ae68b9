package rbac

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"rbadmin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore 内存版策略存储，测试专用
type memStore struct {
	mu        sync.Mutex
	rules     map[string]struct{}
	groupings map[string]struct{}
	failList  bool // 模拟存储读取故障
}

func newMemStore() *memStore {
	return &memStore{
		rules:     make(map[string]struct{}),
		groupings: make(map[string]struct{}),
	}
}

func ruleStr(roleID, path, method string) string {
	return roleID + "|" + path + "|" + method
}

func (s *memStore) ListRules() ([]models.PolicyRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, fmt.Errorf("connection refused")
	}
	var out []models.PolicyRule
	for key := range s.rules {
		parts := splitRule(key)
		out = append(out, models.PolicyRule{RoleID: parts[0], Path: parts[1], Method: parts[2]})
	}
	return out, nil
}

func splitRule(key string) [3]string {
	var parts [3]string
	idx := 0
	start := 0
	for i := 0; i < len(key) && idx < 2; i++ {
		if key[i] == '|' {
			parts[idx] = key[start:i]
			start = i + 1
			idx++
		}
	}
	parts[2] = key[start:]
	return parts
}

func (s *memStore) ListGroupings() ([]Grouping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, fmt.Errorf("connection refused")
	}
	var out []Grouping
	for key := range s.groupings {
		parts := splitRule(key)
		out = append(out, Grouping{Username: parts[0], RoleID: parts[1]})
	}
	return out, nil
}

func (s *memStore) CreateRule(roleID, path, method string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ruleStr(roleID, path, method)
	if _, ok := s.rules[key]; ok {
		return false, ErrDuplicateRule
	}
	s.rules[key] = struct{}{}
	return true, nil
}

func (s *memStore) DeleteRule(roleID, path, method string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ruleStr(roleID, path, method)
	if _, ok := s.rules[key]; !ok {
		return false, nil
	}
	delete(s.rules, key)
	return true, nil
}

func (s *memStore) CreateGrouping(username, roleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := username + "|" + roleID + "|"
	if _, ok := s.groupings[key]; ok {
		return false, ErrDuplicateAssignment
	}
	s.groupings[key] = struct{}{}
	return true, nil
}

func (s *memStore) DeleteGrouping(username, roleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := username + "|" + roleID + "|"
	if _, ok := s.groupings[key]; !ok {
		return false, nil
	}
	delete(s.groupings, key)
	return true, nil
}

func (s *memStore) setFail(fail bool) {
	s.mu.Lock()
	s.failList = fail
	s.mu.Unlock()
}

const apiPrefix = "/rbac/api/"

func normalUser(username string) *models.User {
	return &models.User{Username: username}
}

// TestEnforcer_SuperuserBypass 超级用户不经策略直接放行
func TestEnforcer_SuperuserBypass(t *testing.T) {
	e := NewEnforcer(newMemStore(), apiPrefix)

	admin := &models.User{Username: "admin", IsSuperuser: true}
	assert.True(t, e.Check(admin, "/rbac/api/anything", "DELETE"))
	assert.True(t, e.Check(admin, "/no/policy/at/all", "POST"))
}

// TestEnforcer_DenyByDefault 无命中策略一律拒绝
func TestEnforcer_DenyByDefault(t *testing.T) {
	store := newMemStore()
	e := NewEnforcer(store, apiPrefix)

	assert.False(t, e.Check(nil, "/rbac/api/users", "GET"), "未认证用户拒绝")
	assert.False(t, e.Check(normalUser("alice"), "/rbac/api/users", "GET"), "无角色用户拒绝")

	_, err := e.AssignRole("alice", "3")
	require.NoError(t, err)
	assert.False(t, e.Check(normalUser("alice"), "/rbac/api/users", "GET"), "有角色无策略仍拒绝")
}

// TestEnforcer_ExactAndWildcard 精确匹配与结尾通配匹配
func TestEnforcer_ExactAndWildcard(t *testing.T) {
	store := newMemStore()
	e := NewEnforcer(store, apiPrefix)

	_, err := e.AssignRole("alice", "2")
	require.NoError(t, err)
	_, err = e.Grant("2", "/rbac/auth/profile", "GET")
	require.NoError(t, err)
	_, err = e.Grant("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)

	alice := normalUser("alice")

	tests := []struct {
		name   string
		path   string
		method string
		want   bool
	}{
		{"精确命中", "/rbac/auth/profile", "GET", true},
		{"通配命中子路径", "/rbac/api/users/42", "GET", true},
		{"通配命中前缀本身", "/rbac/api/users/", "GET", true},
		{"通配命中列表路径（标准化补斜杠）", "/rbac/api/users", "GET", true},
		{"方法不匹配", "/rbac/api/users/42", "DELETE", false},
		{"通配不跨前缀", "/rbac/api/roles/1", "GET", false},
		{"小写方法视同大写", "/rbac/api/users/42", "get", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Check(alice, tt.path, tt.method))
		})
	}
}

// TestEnforcer_NormalizePath 路径标准化约定
func TestEnforcer_NormalizePath(t *testing.T) {
	e := NewEnforcer(newMemStore(), apiPrefix)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"API前缀下补结尾斜杠", "/rbac/api/users", "/rbac/api/users/"},
		{"已有结尾斜杠不重复补", "/rbac/api/users/", "/rbac/api/users/"},
		{"去掉查询串", "/rbac/api/users?page=1", "/rbac/api/users/"},
		{"前缀外不补斜杠", "/rbac/auth/profile", "/rbac/auth/profile"},
		{"补前导斜杠", "rbac/api/users", "/rbac/api/users/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.NormalizePath(tt.in))
		})
	}
}

// TestEnforcer_GrantIdempotent 重复授予是良性空操作
func TestEnforcer_GrantIdempotent(t *testing.T) {
	e := NewEnforcer(newMemStore(), apiPrefix)

	added, err := e.Grant("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = e.Grant("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)
	assert.False(t, added, "重复授予返回false且无错误")

	added, err = e.AssignRole("bob", "2")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = e.AssignRole("bob", "2")
	require.NoError(t, err)
	assert.False(t, added, "重复绑定返回false且无错误")
}

// TestEnforcer_GrantExactPathEnforceable 精确模式授予后按标准化约定可命中
func TestEnforcer_GrantExactPathEnforceable(t *testing.T) {
	store := newMemStore()
	e := NewEnforcer(store, apiPrefix)

	_, err := e.AssignRole("ivan", "9")
	require.NoError(t, err)
	added, err := e.Grant("9", "/rbac/api/widgets", "GET")
	require.NoError(t, err)
	assert.True(t, added)

	ivan := normalUser("ivan")
	assert.True(t, e.Check(ivan, "/rbac/api/widgets", "GET"), "不带斜杠的请求命中")
	assert.True(t, e.Check(ivan, "/rbac/api/widgets/", "GET"), "带斜杠的请求命中")
	assert.False(t, e.Check(ivan, "/rbac/api/widgets/7", "GET"), "精确模式不放行子路径")

	// 入库形式统一，斜杠写法不同视为同一条策略
	added, err = e.Grant("9", "/rbac/api/widgets/", "GET")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := e.Revoke("9", "/rbac/api/widgets", "GET")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, e.Check(ivan, "/rbac/api/widgets", "GET"))
}

// TestEnforcer_NormalizePattern 策略模式标准化约定
func TestEnforcer_NormalizePattern(t *testing.T) {
	e := NewEnforcer(newMemStore(), apiPrefix)

	assert.Equal(t, "/rbac/api/users/", e.NormalizePattern("/rbac/api/users"))
	assert.Equal(t, "/rbac/api/users/*", e.NormalizePattern("/rbac/api/users/*"), "通配模式保持原样")
	assert.Equal(t, "/rbac/auth/profile", e.NormalizePattern("/rbac/auth/profile"), "前缀外不补斜杠")
}

// TestEnforcer_RevokeTakesEffectImmediately 撤销后不再残留放行
func TestEnforcer_RevokeTakesEffectImmediately(t *testing.T) {
	e := NewEnforcer(newMemStore(), apiPrefix)

	_, err := e.AssignRole("carol", "2")
	require.NoError(t, err)
	_, err = e.Grant("2", "/rbac/api/articles/*", "DELETE")
	require.NoError(t, err)

	carol := normalUser("carol")
	require.True(t, e.Check(carol, "/rbac/api/articles/7", "DELETE"))

	removed, err := e.Revoke("2", "/rbac/api/articles/*", "DELETE")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, e.Check(carol, "/rbac/api/articles/7", "DELETE"))

	removed, err = e.Revoke("2", "/rbac/api/articles/*", "DELETE")
	require.NoError(t, err)
	assert.False(t, removed, "再次撤销是空操作")
}

// TestEnforcer_UnassignRole 解绑后该角色的策略立即失效
func TestEnforcer_UnassignRole(t *testing.T) {
	e := NewEnforcer(newMemStore(), apiPrefix)

	_, err := e.AssignRole("dave", "2")
	require.NoError(t, err)
	_, err = e.Grant("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)

	dave := normalUser("dave")
	require.True(t, e.Check(dave, "/rbac/api/users/1", "GET"))

	removed, err := e.UnassignRole("dave", "2")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, e.Check(dave, "/rbac/api/users/1", "GET"))
	assert.Empty(t, e.RolesFor("dave"))
}

// TestEnforcer_MultiRoleAnyMatch 多角色任一命中即放行
func TestEnforcer_MultiRoleAnyMatch(t *testing.T) {
	e := NewEnforcer(newMemStore(), apiPrefix)

	_, err := e.AssignRole("erin", "2")
	require.NoError(t, err)
	_, err = e.AssignRole("erin", "3")
	require.NoError(t, err)
	_, err = e.Grant("3", "/rbac/api/projects/*", "GET")
	require.NoError(t, err)

	assert.True(t, e.Check(normalUser("erin"), "/rbac/api/projects/9", "GET"))
	assert.ElementsMatch(t, []string{"2", "3"}, e.RolesFor("erin"))
}

// TestEnforcer_StoreFailureKeepsLastGood 存储故障保留上一份有效快照
func TestEnforcer_StoreFailureKeepsLastGood(t *testing.T) {
	store := newMemStore()
	e := NewEnforcer(store, apiPrefix)

	_, err := e.AssignRole("frank", "2")
	require.NoError(t, err)
	_, err = e.Grant("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)
	require.NoError(t, e.Reload())

	store.setFail(true)
	err = e.Reload()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))

	// 旧快照继续服务
	assert.True(t, e.Check(normalUser("frank"), "/rbac/api/users/5", "GET"))
}

// TestEnforcer_FirstCheckLoadsSnapshot 首次Check同步加载快照，不依赖启动预热
func TestEnforcer_FirstCheckLoadsSnapshot(t *testing.T) {
	store := newMemStore()
	store.rules[ruleStr("2", "/rbac/api/users/*", "GET")] = struct{}{}
	store.groupings["grace|2|"] = struct{}{}

	e := NewEnforcer(store, apiPrefix)
	assert.False(t, e.Ready())
	assert.True(t, e.Check(normalUser("grace"), "/rbac/api/users/3", "GET"))
	assert.True(t, e.Ready())
}

// TestEnforcer_ConcurrentCheckAndReload 并发读写不崩溃、不读到半成品快照
func TestEnforcer_ConcurrentCheckAndReload(t *testing.T) {
	store := newMemStore()
	e := NewEnforcer(store, apiPrefix)

	_, err := e.AssignRole("heidi", "2")
	require.NoError(t, err)
	_, err = e.Grant("2", "/rbac/api/users/*", "GET")
	require.NoError(t, err)
	require.NoError(t, e.Reload())

	heidi := normalUser("heidi")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.True(t, e.Check(heidi, "/rbac/api/users/1", "GET"))
			}
		}()
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = e.Reload()
			}
		}()
	}
	wg.Wait()
}
