package handlers

import (
	"errors"
	"strconv"

	"rbadmin/internal/middleware"
	"rbadmin/internal/rbac"
	"rbadmin/internal/services"
	"rbadmin/pkg/pagination"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Username     string `json:"username" binding:"required,min=2,max=50"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6,max=72"`
	Name         string `json:"name" binding:"required"`
	DepartmentID *uint  `json:"department_id"`
}

type UpdateUserRequest struct {
	Name         string  `json:"name" binding:"required"`
	Phone        *string `json:"phone"`
	DepartmentID *uint   `json:"department_id"`
	Status       string  `json:"status" binding:"required,oneof=active inactive"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type SetDataScopeRequest struct {
	DataScope *int `json:"data_scope"`
}

type AssignRolesRequest struct {
	RoleIDs []uint `json:"role_ids" binding:"required"`
}

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Create(req.Username, req.Email, req.Password, req.Name, req.DepartmentID)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, user)
}

// Get 获取单个用户
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	user, err := h.userService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "用户不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, user)
}

// List 分页获取用户，结果按调用者的数据权限过滤
func (h *UserHandler) List(c *gin.Context) {
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

	params := pagination.ParsePageParams(c)
	status := c.Query("status")

	users, total, err := h.userService.GetWithPage(res, caller.ID, status, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.SuccessWithPage(c, users, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新用户
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Update(uint(id), req.Name, req.Phone, req.DepartmentID, req.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "用户不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, user)
}

// Disable 禁用用户
func (h *UserHandler) Disable(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	if err := h.userService.Disable(uint(id)); err != nil {
		response.ServerError(c, "禁用失败")
		return
	}
	response.SuccessWithMessage(c, "已禁用", nil)
}

// ResetPassword 重置密码
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.userService.ResetPassword(uint(id), req.Password); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "用户不存在")
			return
		}
		response.ServerError(c, "重置密码失败")
		return
	}
	response.SuccessWithMessage(c, "密码已重置", nil)
}

// SetDataScope 设置用户的自定义数据权限覆盖
func (h *UserHandler) SetDataScope(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	var req SetDataScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.SetDataScope(uint(id), req.DataScope)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "用户不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, user)
}

// AssignRoles 整体替换用户的角色
func (h *UserHandler) AssignRoles(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	var req AssignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.userService.AssignRoles(uint(id), req.RoleIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "用户不存在")
			return
		}
		if errors.Is(err, rbac.ErrSync) {
			response.PolicySyncError(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.SuccessWithMessage(c, "角色已更新", nil)
}

// GetRoles 获取用户的角色
func (h *UserHandler) GetRoles(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	roles, err := h.userService.GetRoles(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "用户不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, roles)
}
