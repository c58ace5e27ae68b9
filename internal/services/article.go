package services

import (
	"errors"

	"rbadmin/internal/models"
	"rbadmin/internal/rbac"

	"gorm.io/gorm"
)

// ArticleService 文章服务 - 业务示例，所有读取都经过行级数据权限过滤
type ArticleService struct {
	db *gorm.DB
}

func NewArticleService(db *gorm.DB) *ArticleService {
	return &ArticleService{db: db}
}

// Create 创建文章，数据权限字段自动补全
func (s *ArticleService) Create(article *models.Article, creator *models.User) (*models.Article, error) {
	article.FillOnCreate(creator)
	err := s.db.Create(article).Error
	return article, err
}

// GetWithPage 分页获取用户可见的文章
func (s *ArticleService) GetWithPage(user *models.User, category string, page, pageSize int) ([]*models.Article, int64, error) {
	res, err := ResolveScope(s.db, user)
	if err != nil {
		return nil, 0, err
	}

	var articles []*models.Article
	var total int64

	query := s.db.Model(&models.Article{}).Scopes(rbac.GovernedScope(res, user.ID))
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err = query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}

	return articles, total, nil
}

// GetByID 获取单篇文章，不可见视同不存在
func (s *ArticleService) GetByID(user *models.User, id uint) (*models.Article, error) {
	res, err := ResolveScope(s.db, user)
	if err != nil {
		return nil, err
	}

	var article models.Article
	err = s.db.Scopes(rbac.GovernedScope(res, user.ID)).First(&article, id).Error
	return &article, err
}

// Update 更新文章，先按可见性取行再写
func (s *ArticleService) Update(user *models.User, id uint, title, content, category, status string) (*models.Article, error) {
	article, err := s.GetByID(user, id)
	if err != nil {
		return nil, err
	}

	article.Title = title
	article.Content = content
	article.Category = category
	article.Status = status
	article.UpdatedByID = &user.ID

	err = s.db.Save(article).Error
	return article, err
}

// Delete 删除文章
func (s *ArticleService) Delete(user *models.User, id uint) error {
	article, err := s.GetByID(user, id)
	if err != nil {
		return err
	}
	return s.db.Delete(article).Error
}

// ProjectService 项目服务 - 第二个受控实体示例
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// Create 创建项目
func (s *ProjectService) Create(project *models.Project, creator *models.User) (*models.Project, error) {
	project.FillOnCreate(creator)
	err := s.db.Create(project).Error
	return project, err
}

// GetWithPage 分页获取用户可见的项目
func (s *ProjectService) GetWithPage(user *models.User, status string, page, pageSize int) ([]*models.Project, int64, error) {
	res, err := ResolveScope(s.db, user)
	if err != nil {
		return nil, 0, err
	}

	var projects []*models.Project
	var total int64

	query := s.db.Model(&models.Project{}).Scopes(rbac.GovernedScope(res, user.ID))
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err = query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// GetByID 获取单个项目，不可见视同不存在
func (s *ProjectService) GetByID(user *models.User, id uint) (*models.Project, error) {
	res, err := ResolveScope(s.db, user)
	if err != nil {
		return nil, err
	}

	var project models.Project
	err = s.db.Scopes(rbac.GovernedScope(res, user.ID)).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &project, err
}

// Delete 删除项目
func (s *ProjectService) Delete(user *models.User, id uint) error {
	project, err := s.GetByID(user, id)
	if err != nil {
		return err
	}
	return s.db.Delete(project).Error
}
