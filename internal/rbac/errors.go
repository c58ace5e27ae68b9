package rbac

import "errors"

// 权限系统错误定义，调用方通过errors.Is区分"不允许"与"无法判定"
var (
	// ErrDuplicateRule 权限策略已存在（存储层唯一约束）
	ErrDuplicateRule = errors.New("权限策略已存在")
	// ErrDuplicateAssignment 用户角色绑定已存在
	ErrDuplicateAssignment = errors.New("用户角色绑定已存在")
	// ErrSync 持久化与内存缓存出现分歧，需要强制重载
	ErrSync = errors.New("权限缓存同步失败")
	// ErrStoreUnavailable 权限存储暂时不可用，继续使用最近一次的有效快照
	ErrStoreUnavailable = errors.New("权限存储不可用")
	// ErrNotFound 用户或角色不存在
	ErrNotFound = errors.New("用户或角色不存在")
)
