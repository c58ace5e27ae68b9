package rbac

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"rbadmin/internal/models"
	"rbadmin/pkg/logger"
)

// Grouping 用户角色绑定，角色以对外role_id标识
type Grouping struct {
	Username string
	RoleID   string
}

// PolicyStore 策略存储接口 - 授权事实的持久化来源
// Create/Delete返回的bool表示是否真正发生了变更
type PolicyStore interface {
	ListRules() ([]models.PolicyRule, error)
	ListGroupings() ([]Grouping, error)
	CreateRule(roleID, path, method string) (bool, error)
	DeleteRule(roleID, path, method string) (bool, error)
	CreateGrouping(username, roleID string) (bool, error)
	DeleteGrouping(username, roleID string) (bool, error)
}

type ruleKey struct {
	roleID string
	path   string
	method string
}

// snapshot 一次性完整构建的内存策略快照
type snapshot struct {
	rules     map[ruleKey]struct{}
	groupings map[string][]string // username -> role_id列表
}

// Enforcer 授权决策引擎
// 内存快照整体替换，读方持读锁期间看到的状态始终完整一致；
// 快照为空时首次Check会同步加载，不依赖启动时序
type Enforcer struct {
	store     PolicyStore
	apiPrefix string

	mu   sync.RWMutex
	snap *snapshot // nil表示尚未加载

	reloadMu sync.Mutex
}

// NewEnforcer 创建授权决策引擎，apiPrefix下的路径在匹配前统一补结尾斜杠
func NewEnforcer(store PolicyStore, apiPrefix string) *Enforcer {
	return &Enforcer{
		store:     store,
		apiPrefix: apiPrefix,
	}
}

// Ready 内存快照是否已加载
func (e *Enforcer) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap != nil
}

// Reload 全量重载：完整构建新快照后原子替换
// 存储不可用时保留上一份有效快照并返回错误
func (e *Enforcer) Reload() error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	rules, err := e.store.ListRules()
	if err != nil {
		return fmt.Errorf("%w: 加载策略失败: %v", ErrStoreUnavailable, err)
	}
	groupings, err := e.store.ListGroupings()
	if err != nil {
		return fmt.Errorf("%w: 加载用户角色失败: %v", ErrStoreUnavailable, err)
	}

	snap := &snapshot{
		rules:     make(map[ruleKey]struct{}, len(rules)),
		groupings: make(map[string][]string),
	}
	for _, r := range rules {
		snap.rules[ruleKey{r.RoleID, r.Path, strings.ToUpper(r.Method)}] = struct{}{}
	}
	for _, g := range groupings {
		snap.groupings[g.Username] = append(snap.groupings[g.Username], g.RoleID)
	}

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()

	logger.GetLogger().Infof("权限快照已加载: %d条策略, %d条用户角色绑定", len(rules), len(groupings))
	return nil
}

// ensureLoaded 快照未加载时同步加载一次
func (e *Enforcer) ensureLoaded() error {
	if e.Ready() {
		return nil
	}
	e.reloadMu.Lock()
	ready := e.Ready()
	e.reloadMu.Unlock()
	if ready {
		return nil
	}
	return e.Reload()
}

// Check 授权决策：用户能否以method访问path
// 未认证直接拒绝；超级用户直接放行；多角色之间是任一命中即放行
func (e *Enforcer) Check(user *models.User, path, method string) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser {
		return true
	}

	if err := e.ensureLoaded(); err != nil {
		logger.GetLogger().Errorf("权限快照加载失败，本次请求拒绝: %v", err)
		return false
	}

	normalized := e.NormalizePath(path)
	method = strings.ToUpper(method)

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, roleID := range e.snap.groupings[user.Username] {
		if _, ok := e.snap.rules[ruleKey{roleID, normalized, method}]; ok {
			return true
		}
		for key := range e.snap.rules {
			if key.roleID == roleID && key.method == method && matchPattern(key.path, normalized) {
				return true
			}
		}
	}
	return false
}

// NormalizePath 路径标准化：去掉查询串、补前导斜杠；
// API前缀下的路径补结尾斜杠，与策略存储时的斜杠约定保持一致。
// 该不对称规则是沿用的既有行为，策略写入方必须使用同一约定。
func (e *Enforcer) NormalizePath(path string) string {
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if e.apiPrefix != "" && strings.HasPrefix(path, e.apiPrefix) && !strings.HasSuffix(path, "/") {
		path = path + "/"
	}
	return path
}

// NormalizePattern 策略模式标准化：非通配模式按NormalizePath的约定入库，
// 保证精确模式与请求路径落在同一斜杠约定上；通配模式保持原样，结尾的 /* 自带斜杠语义
func (e *Enforcer) NormalizePattern(pattern string) string {
	if strings.HasSuffix(pattern, "/*") {
		return pattern
	}
	return e.NormalizePath(pattern)
}

// matchPattern 模式匹配：仅支持一个结尾通配段，/prefix/* 按固定前缀匹配
func matchPattern(pattern, path string) bool {
	if pattern == path {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := pattern[:len(pattern)-1] // 保留结尾斜杠，/rbac/api/* -> /rbac/api/
		return strings.HasPrefix(path, prefix)
	}
	return false
}

// RolesFor 获取用户在当前快照中的角色集合
func (e *Enforcer) RolesFor(username string) []string {
	if err := e.ensureLoaded(); err != nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	roles := e.snap.groupings[username]
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// ========== 双写操作：先持久化，成功后同步内存快照 ==========

// Grant 为角色添加权限策略，返回是否新建
// 模式先经标准化再入库，否则精确模式永远匹配不到标准化后的请求路径；
// 存储层对重复插入报ErrDuplicateRule，这里降级为幂等空操作
func (e *Enforcer) Grant(roleID, path, method string) (bool, error) {
	method = strings.ToUpper(method)
	path = e.NormalizePattern(path)
	created, err := e.store.CreateRule(roleID, path, method)
	if errors.Is(err, ErrDuplicateRule) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	e.mu.Lock()
	if e.snap != nil {
		e.snap.rules[ruleKey{roleID, path, method}] = struct{}{}
	}
	e.mu.Unlock()
	return true, nil
}

// Revoke 删除角色权限策略，返回是否真正删除
func (e *Enforcer) Revoke(roleID, path, method string) (bool, error) {
	method = strings.ToUpper(method)
	path = e.NormalizePattern(path)
	deleted, err := e.store.DeleteRule(roleID, path, method)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	e.mu.Lock()
	if e.snap != nil {
		delete(e.snap.rules, ruleKey{roleID, path, method})
	}
	e.mu.Unlock()
	return true, nil
}

// AssignRole 为用户绑定角色，重复绑定降级为幂等空操作
func (e *Enforcer) AssignRole(username, roleID string) (bool, error) {
	created, err := e.store.CreateGrouping(username, roleID)
	if errors.Is(err, ErrDuplicateAssignment) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	e.mu.Lock()
	if e.snap != nil {
		e.snap.groupings[username] = append(e.snap.groupings[username], roleID)
	}
	e.mu.Unlock()
	return true, nil
}

// UnassignRole 解除用户角色绑定
func (e *Enforcer) UnassignRole(username, roleID string) (bool, error) {
	deleted, err := e.store.DeleteGrouping(username, roleID)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	e.mu.Lock()
	if e.snap != nil {
		roles := e.snap.groupings[username]
		next := roles[:0]
		for _, r := range roles {
			if r != roleID {
				next = append(next, r)
			}
		}
		if len(next) == 0 {
			delete(e.snap.groupings, username)
		} else {
			e.snap.groupings[username] = next
		}
	}
	e.mu.Unlock()
	return true, nil
}
