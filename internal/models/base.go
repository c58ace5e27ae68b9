package models

import (
	"time"
)

// BaseModel 基础模型
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 数据级别常量
const (
	DataLevelPublic     = 1 // 公开数据
	DataLevelDepartment = 2 // 部门数据
	DataLevelPrivate    = 3 // 私有数据
	DataLevelSecret     = 4 // 机密数据
)

// GovernedModel 数据权限基础模型 - 所有需要行级数据权限控制的业务表都应该嵌入此模型
type GovernedModel struct {
	CreatedByID       *uint `json:"created_by_id" gorm:"index"`       // 创建人
	UpdatedByID       *uint `json:"updated_by_id"`                    // 更新人
	OwnerDepartmentID *uint `json:"owner_department_id" gorm:"index"` // 所属部门
	IsPublic          bool  `json:"is_public" gorm:"default:false"`   // 是否公开数据
	DataLevel         int   `json:"data_level" gorm:"default:2"`      // 数据级别

	CreatedBy       *User       `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	OwnerDepartment *Department `json:"owner_department,omitempty" gorm:"foreignKey:OwnerDepartmentID"`
}

// GovernedFields 数据权限能力标记 - 嵌入GovernedModel的类型自动实现GovernedEntity
func (g *GovernedModel) GovernedFields() *GovernedModel {
	return g
}

// GovernedEntity 受行级数据权限管控的实体
type GovernedEntity interface {
	GovernedFields() *GovernedModel
}

// FillOnCreate 创建时补全数据权限字段：未指定所属部门时默认为创建人的部门
func (g *GovernedModel) FillOnCreate(creator *User) {
	if creator == nil {
		return
	}
	g.CreatedByID = &creator.ID
	g.UpdatedByID = &creator.ID
	if g.OwnerDepartmentID == nil && creator.DepartmentID != nil {
		g.OwnerDepartmentID = creator.DepartmentID
	}
}
