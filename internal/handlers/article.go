package handlers

import (
	"errors"
	"strconv"
	"time"

	"rbadmin/internal/middleware"
	"rbadmin/internal/models"
	"rbadmin/internal/services"
	"rbadmin/pkg/pagination"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ArticleRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Tags     string `json:"tags"`
}

type ArticleHandler struct {
	articleService *services.ArticleService
}

func NewArticleHandler(articleService *services.ArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService}
}

// Create 创建文章
func (h *ArticleHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = models.ArticleStatusDraft
	}
	article := &models.Article{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Status:   status,
		Tags:     req.Tags,
	}

	created, err := h.articleService.Create(article, user)
	if err != nil {
		response.ServerError(c, "创建失败")
		return
	}
	response.Success(c, created)
}

// List 分页获取可见的文章
func (h *ArticleHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	params := pagination.ParsePageParams(c)
	category := c.Query("category")

	articles, total, err := h.articleService.GetWithPage(user, category, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.SuccessWithPage(c, articles, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Get 获取单篇文章，不可见视同不存在
func (h *ArticleHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的文章ID")
		return
	}

	article, err := h.articleService.GetByID(user, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "文章不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, article)
}

// Update 更新文章
func (h *ArticleHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的文章ID")
		return
	}

	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	article, err := h.articleService.Update(user, uint(id), req.Title, req.Content, req.Category, req.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "文章不存在")
			return
		}
		response.ServerError(c, "更新失败")
		return
	}
	response.Success(c, article)
}

// Delete 删除文章
func (h *ArticleHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的文章ID")
		return
	}

	if err := h.articleService.Delete(user, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "文章不存在")
			return
		}
		response.ServerError(c, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

type ProjectRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Budget      float64    `json:"budget"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
}

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Create 创建项目
func (h *ProjectHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}
	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		Status:      status,
		Priority:    req.Priority,
	}

	created, err := h.projectService.Create(project, user)
	if err != nil {
		response.ServerError(c, "创建失败")
		return
	}
	response.Success(c, created)
}

// List 分页获取可见的项目
func (h *ProjectHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	params := pagination.ParsePageParams(c)
	status := c.Query("status")

	projects, total, err := h.projectService.GetWithPage(user, status, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.SuccessWithPage(c, projects, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Get 获取单个项目，不可见视同不存在
func (h *ProjectHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的项目ID")
		return
	}

	project, err := h.projectService.GetByID(user, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "项目不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, project)
}

// Delete 删除项目
func (h *ProjectHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的项目ID")
		return
	}

	if err := h.projectService.Delete(user, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "项目不存在")
			return
		}
		response.ServerError(c, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}
