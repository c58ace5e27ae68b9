package handlers

import (
	"errors"
	"strconv"

	"rbadmin/internal/models"
	"rbadmin/internal/services"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MenuRequest struct {
	Name           string  `json:"name" binding:"required"`
	Title          string  `json:"title" binding:"required"`
	ParentID       *uint   `json:"parent_id"`
	MenuType       int     `json:"menu_type" binding:"required,min=1,max=3"`
	Path           *string `json:"path"`
	Component      *string `json:"component"`
	Redirect       *string `json:"redirect"`
	Icon           *string `json:"icon"`
	PermissionCode *string `json:"permission_code"`
	SortOrder      int     `json:"sort_order"`
	IsHidden       bool    `json:"is_hidden"`
	Visible        *bool   `json:"visible"`
	Status         *bool   `json:"status"`
}

type MenuHandler struct {
	menuService *services.MenuService
}

func NewMenuHandler(menuService *services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

func (r *MenuRequest) toModel() *models.Menu {
	menu := &models.Menu{
		Name:           r.Name,
		Title:          r.Title,
		ParentID:       r.ParentID,
		MenuType:       r.MenuType,
		Path:           r.Path,
		Component:      r.Component,
		Redirect:       r.Redirect,
		Icon:           r.Icon,
		PermissionCode: r.PermissionCode,
		SortOrder:      r.SortOrder,
		IsHidden:       r.IsHidden,
		Visible:        true,
		Status:         true,
	}
	if r.Visible != nil {
		menu.Visible = *r.Visible
	}
	if r.Status != nil {
		menu.Status = *r.Status
	}
	return menu
}

// Create 创建菜单
func (h *MenuHandler) Create(c *gin.Context) {
	var req MenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	menu, err := h.menuService.Create(req.toModel())
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, menu)
}

// Get 获取单个菜单
func (h *MenuHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的菜单ID")
		return
	}

	menu, err := h.menuService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "菜单不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, menu)
}

// Tree 获取完整菜单树
func (h *MenuHandler) Tree(c *gin.Context) {
	tree, err := h.menuService.GetTree()
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, tree)
}

// Update 更新菜单
func (h *MenuHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的菜单ID")
		return
	}

	var req MenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	menu := req.toModel()
	menu.ID = uint(id)

	updated, err := h.menuService.Update(menu)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "菜单不存在")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, updated)
}

// Delete 删除菜单
func (h *MenuHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的菜单ID")
		return
	}

	if err := h.menuService.Delete(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "菜单不存在")
			return
		}
		response.ServerError(c, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}
