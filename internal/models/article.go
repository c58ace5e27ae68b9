package models

import "time"

// 文章状态常量
const (
	ArticleStatusDraft     = "draft"
	ArticleStatusReview    = "review"
	ArticleStatusPublished = "published"
	ArticleStatusArchived  = "archived"
)

// Article 文章表 - 业务示例，展示内容管理场景下的行级数据权限
type Article struct {
	BaseModel
	GovernedModel
	Title     string `json:"title" gorm:"size:200;not null"`
	Content   string `json:"content" gorm:"type:text"`
	Category  string `json:"category" gorm:"size:50"`
	Status    string `json:"status" gorm:"default:'draft';size:20"`
	ViewCount int    `json:"view_count" gorm:"default:0"`
	Tags      string `json:"tags" gorm:"size:200"`
}

// 项目状态常量
const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusTesting    = "testing"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Project 项目表 - 业务示例，展示项目管理场景下的行级数据权限
type Project struct {
	BaseModel
	GovernedModel
	Name        string     `json:"name" gorm:"size:100;not null"`
	Description string     `json:"description" gorm:"type:text"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Budget      float64    `json:"budget" gorm:"type:decimal(12,2)"`
	Status      string     `json:"status" gorm:"default:'planning';size:20"`
	Priority    int        `json:"priority" gorm:"default:0"`
}

// TableName 表名
func (a *Article) TableName() string {
	return "demo_articles"
}

// TableName 表名
func (p *Project) TableName() string {
	return "demo_projects"
}
