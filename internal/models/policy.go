package models

import "time"

// PolicyRule 权限策略规则 - 授权决策的持久化事实来源
// 唯一约束 (role_id, path, method)，method统一存大写
type PolicyRule struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RoleID    string    `json:"role_id" gorm:"size:50;not null;uniqueIndex:idx_policy_rule"` // 对外角色ID
	Path      string    `json:"path" gorm:"size:200;not null;uniqueIndex:idx_policy_rule"`   // URL模式，支持一个结尾通配段 /prefix/*
	Method    string    `json:"method" gorm:"size:10;not null;uniqueIndex:idx_policy_rule"`  // 请求方法
	CreatedAt time.Time `json:"created_at"`
}

// TableName 表名
func (p *PolicyRule) TableName() string {
	return "rbac_policy_rules"
}
