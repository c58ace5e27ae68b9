package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型
type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         string     `json:"name" gorm:"size:100"`
	Phone        *string    `json:"phone" gorm:"size:20"`
	Avatar       *string    `json:"avatar" gorm:"size:255"`
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	IsSuperuser  bool       `json:"is_superuser" gorm:"default:false"`
	DepartmentID *uint      `json:"department_id" gorm:"index"` // 所属部门
	DataScope    *int       `json:"data_scope"`                 // 自定义数据权限覆盖，空表示跟随角色
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLoginIP  *string    `json:"last_login_ip" gorm:"size:50"`

	Department *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	Roles      []Role      `json:"roles,omitempty" gorm:"many2many:rbac_user_roles;"`
}

// UserRole 用户角色关联表，唯一约束 (user_id, role_id)
type UserRole struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_role"`
	RoleID    uint      `json:"role_id" gorm:"not null;uniqueIndex:idx_user_role"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy uint      `json:"created_by"` // 谁分配的角色
}

// TableName 表名
func (u *User) TableName() string {
	return "rbac_users"
}

// TableName 表名
func (ur *UserRole) TableName() string {
	return "rbac_user_roles"
}

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// SetPassword 设置密码
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive 用户是否处于激活状态
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
