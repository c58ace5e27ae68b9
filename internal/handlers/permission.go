package handlers

import (
	"errors"

	"rbadmin/internal/rbac"
	"rbadmin/internal/services"
	"rbadmin/pkg/pagination"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type PolicyRuleRequest struct {
	RoleID string `json:"role_id" binding:"required"`
	Path   string `json:"path" binding:"required"`
	Method string `json:"method" binding:"required,oneof=GET POST PUT PATCH DELETE get post put patch delete"`
}

// PermissionHandler 权限策略的直接管理入口
// 常规授权走角色的API分配，这里提供细粒度的单条操作与运维入口
type PermissionHandler struct {
	policyService *services.PolicyService
	enforcer      *rbac.Enforcer
}

func NewPermissionHandler(policyService *services.PolicyService, enforcer *rbac.Enforcer) *PermissionHandler {
	return &PermissionHandler{policyService: policyService, enforcer: enforcer}
}

// List 分页获取权限策略，支持按角色筛选
func (h *PermissionHandler) List(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	roleID := c.Query("role_id")

	rules, total, err := h.policyService.GetWithPage(roleID, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.SuccessWithPage(c, rules, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Grant 授予单条权限策略，重复授予是良性空操作
func (h *PermissionHandler) Grant(c *gin.Context) {
	var req PolicyRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	added, err := h.enforcer.Grant(req.RoleID, req.Path, req.Method)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"added": added})
}

// Revoke 撤销单条权限策略
func (h *PermissionHandler) Revoke(c *gin.Context) {
	var req PolicyRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	removed, err := h.enforcer.Revoke(req.RoleID, req.Path, req.Method)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"removed": removed})
}

// Reload 手动全量重载权限快照
func (h *PermissionHandler) Reload(c *gin.Context) {
	if err := h.enforcer.Reload(); err != nil {
		if errors.Is(err, rbac.ErrStoreUnavailable) {
			response.StoreUnavailable(c, "策略存储不可用，沿用当前快照")
			return
		}
		response.ServerError(c, "重载失败")
		return
	}
	response.SuccessWithMessage(c, "权限快照已重载", nil)
}

// UserRoles 查询用户名当前绑定的角色标识
func (h *PermissionHandler) UserRoles(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		response.BadRequest(c, "缺少username参数")
		return
	}
	response.Success(c, gin.H{"username": username, "role_ids": h.enforcer.RolesFor(username)})
}
