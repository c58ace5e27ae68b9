package handlers

import (
	"errors"
	"strconv"

	"rbadmin/internal/rbac"
	"rbadmin/internal/services"
	"rbadmin/pkg/pagination"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
	DataScope   int    `json:"data_scope" binding:"required,min=1,max=4"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	DataScope   int    `json:"data_scope" binding:"required,min=1,max=4"`
	IsActive    *bool  `json:"is_active" binding:"required"`
}

type AssignMenusRequest struct {
	MenuIDs []uint `json:"menu_ids" binding:"required"`
}

type AssignAPIsRequest struct {
	ApiIDs []uint `json:"api_ids" binding:"required"`
}

type RoleHandler struct {
	roleService *services.RoleService
	menuService *services.MenuService
}

func NewRoleHandler(roleService *services.RoleService, menuService *services.MenuService) *RoleHandler {
	return &RoleHandler{roleService: roleService, menuService: menuService}
}

// Create 创建角色
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	role, err := h.roleService.Create(req.Name, req.Code, req.Description, req.DataScope)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, role)
}

// Get 获取单个角色
func (h *RoleHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的角色ID")
		return
	}

	role, err := h.roleService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, role)
}

// List 分页获取角色
func (h *RoleHandler) List(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	isActive := c.Query("is_active")

	roles, total, err := h.roleService.GetWithPage(isActive, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.SuccessWithPage(c, roles, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新角色
func (h *RoleHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的角色ID")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	role, err := h.roleService.Update(uint(id), req.Name, req.Description, req.DataScope, *req.IsActive)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		if errors.Is(err, rbac.ErrSync) {
			response.PolicySyncError(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, role)
}

// Delete 删除角色
func (h *RoleHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的角色ID")
		return
	}

	if err := h.roleService.Delete(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		if errors.Is(err, rbac.ErrSync) {
			response.PolicySyncError(c, err.Error())
			return
		}
		response.ServerError(c, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// AssignMenus 为角色分配菜单
func (h *RoleHandler) AssignMenus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的角色ID")
		return
	}

	var req AssignMenusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.roleService.AssignMenus(uint(id), req.MenuIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		response.ServerError(c, "分配菜单失败")
		return
	}
	h.menuService.InvalidateUserMenuCache()
	response.SuccessWithMessage(c, "菜单已更新", nil)
}

// GetMenus 获取角色的菜单
func (h *RoleHandler) GetMenus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的角色ID")
		return
	}

	menus, err := h.roleService.GetMenus(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, menus)
}

// AssignAPIPermissions 按接口清单整体替换角色的权限策略
func (h *RoleHandler) AssignAPIPermissions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的角色ID")
		return
	}

	var req AssignAPIsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.roleService.AssignAPIPermissions(uint(id), req.ApiIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		if errors.Is(err, rbac.ErrSync) {
			response.PolicySyncError(c, err.Error())
			return
		}
		response.ServerError(c, "更新权限失败")
		return
	}
	response.SuccessWithMessage(c, "权限已更新", nil)
}

// GetPolicies 获取角色当前生效的权限策略
func (h *RoleHandler) GetPolicies(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的角色ID")
		return
	}

	policies, err := h.roleService.GetPolicies(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, policies)
}
