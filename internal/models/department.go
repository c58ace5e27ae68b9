package models

// Department 部门模型 - 组织树节点
type Department struct {
	BaseModel
	Name      string  `json:"name" gorm:"size:100;not null"`               // 部门名称
	Code      string  `json:"code" gorm:"uniqueIndex;size:50;not null"`    // 部门编码
	ParentID  *uint   `json:"parent_id" gorm:"index"`                      // 上级部门
	Level     int     `json:"level" gorm:"default:1"`                      // 层级，根节点为1
	SortOrder int     `json:"sort_order" gorm:"default:0"`                 // 排序
	Leader    *string `json:"leader" gorm:"size:50"`                       // 部门负责人
	Phone     *string `json:"phone" gorm:"size:20"`                        // 联系电话
	Email     *string `json:"email" gorm:"size:100"`                       // 邮箱
	Status    bool    `json:"status" gorm:"default:true"`                  // 状态

	Parent   *Department  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Department `json:"children,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (d *Department) TableName() string {
	return "rbac_departments"
}
