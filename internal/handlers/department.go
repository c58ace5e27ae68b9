package handlers

import (
	"errors"
	"strconv"

	"rbadmin/internal/middleware"
	"rbadmin/internal/services"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateDepartmentRequest struct {
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code" binding:"required"`
	ParentID  *uint  `json:"parent_id"`
	SortOrder int    `json:"sort_order"`
}

type UpdateDepartmentRequest struct {
	Name      string `json:"name" binding:"required"`
	ParentID  *uint  `json:"parent_id"`
	SortOrder int    `json:"sort_order"`
	Status    *bool  `json:"status" binding:"required"`
}

type DepartmentHandler struct {
	deptService *services.DepartmentService
	userService *services.UserService
}

func NewDepartmentHandler(deptService *services.DepartmentService, userService *services.UserService) *DepartmentHandler {
	return &DepartmentHandler{deptService: deptService, userService: userService}
}

// Create 创建部门
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	dept, err := h.deptService.Create(req.Name, req.Code, req.ParentID, req.SortOrder)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, dept)
}

// Get 获取单个部门
func (h *DepartmentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的部门ID")
		return
	}

	dept, err := h.deptService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "部门不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, dept)
}

// Tree 获取部门树，结果按调用者的数据权限过滤
func (h *DepartmentHandler) Tree(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if caller == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	res, err := h.userService.ResolveScope(caller)
	if err != nil {
		response.ServerError(c, "解析数据权限失败")
		return
	}

	tree, err := h.deptService.GetTree(res)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, tree)
}

// Children 获取直接子部门
func (h *DepartmentHandler) Children(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的部门ID")
		return
	}

	children, err := h.deptService.GetChildren(uint(id))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, children)
}

// Path 获取从根到该部门的名称路径
func (h *DepartmentHandler) Path(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的部门ID")
		return
	}

	path, err := h.deptService.GetPath(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "部门不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, path)
}

// Update 更新部门
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的部门ID")
		return
	}

	var req UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	dept, err := h.deptService.Update(uint(id), req.Name, req.ParentID, req.SortOrder, *req.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "部门不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, dept)
}

// Delete 删除部门
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的部门ID")
		return
	}

	if err := h.deptService.Delete(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "部门不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}
