package models

// Api 接口资源模型 - 可授权API端点的登记表
// 角色API授权以此为选择清单，实际生效的授权落在PolicyRule
type Api struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null"`  // 接口名称
	Path        string `json:"path" gorm:"size:200;not null"`  // 接口路径，支持结尾通配段
	Method      string `json:"method" gorm:"size:10;not null"` // 请求方法
	Group       string `json:"group" gorm:"size:50"`           // 所属分组
	Description string `json:"description" gorm:"size:255"`    // 接口描述
	Status      bool   `json:"status" gorm:"default:true"`     // 状态
}

// TableName 表名
func (a *Api) TableName() string {
	return "rbac_apis"
}
