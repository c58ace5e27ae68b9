package handlers

import (
	"errors"
	"strconv"

	"rbadmin/internal/services"
	"rbadmin/pkg/pagination"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ApiRequest struct {
	Name        string `json:"name" binding:"required"`
	Path        string `json:"path" binding:"required"`
	Method      string `json:"method" binding:"required,oneof=GET POST PUT PATCH DELETE get post put patch delete"`
	Group       string `json:"group"`
	Description string `json:"description"`
	Status      *bool  `json:"status"`
}

type ApiHandler struct {
	apiService *services.ApiService
}

func NewApiHandler(apiService *services.ApiService) *ApiHandler {
	return &ApiHandler{apiService: apiService}
}

// Create 创建接口记录
func (h *ApiHandler) Create(c *gin.Context) {
	var req ApiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	api, err := h.apiService.Create(req.Name, req.Path, req.Method, req.Group, req.Description)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, api)
}

// Get 获取单个接口
func (h *ApiHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的接口ID")
		return
	}

	api, err := h.apiService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "接口不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, api)
}

// List 分页获取接口
func (h *ApiHandler) List(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	group := c.Query("group")

	apis, total, err := h.apiService.GetWithPage(group, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.SuccessWithPage(c, apis, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新接口
func (h *ApiHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的接口ID")
		return
	}

	var req ApiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	status := true
	if req.Status != nil {
		status = *req.Status
	}

	api, err := h.apiService.Update(uint(id), req.Name, req.Path, req.Method, req.Group, req.Description, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "接口不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, api)
}

// Delete 删除接口记录
func (h *ApiHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的接口ID")
		return
	}

	if err := h.apiService.Delete(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "接口不存在")
			return
		}
		response.ServerError(c, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}
