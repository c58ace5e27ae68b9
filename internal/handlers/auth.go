package handlers

import (
	"time"

	"rbadmin/internal/middleware"
	"rbadmin/internal/services"
	"rbadmin/pkg/cache"
	"rbadmin/pkg/jwt"
	"rbadmin/pkg/logger"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Token string `json:"token" binding:"required"`
}

type AuthHandler struct {
	userService *services.UserService
	menuService *services.MenuService
	cache       *cache.RedisCache
	jwtManager  *jwt.JWTManager
}

func NewAuthHandler(userService *services.UserService, menuService *services.MenuService, redisCache *cache.RedisCache) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		menuService: menuService,
		cache:       redisCache,
		jwtManager:  jwt.GetJWTManager(),
	}
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.userService.GetByUsername(req.Username)
	if err != nil || !user.CheckPassword(req.Password) {
		// 不区分用户不存在与密码错误
		response.Unauthorized(c, "用户名或密码错误")
		return
	}

	if !user.IsActive() {
		response.Unauthorized(c, "用户已被禁用")
		return
	}

	var deptID uint
	if user.DepartmentID != nil {
		deptID = *user.DepartmentID
	}
	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.IsSuperuser, deptID)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	// 登录信息记录失败不影响登录
	if err := h.userService.UpdateLoginInfo(user.ID, c.ClientIP()); err != nil {
		logger.GetLogger().Warnf("记录登录信息失败 user=%s: %v", user.Username, err)
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int(h.jwtManager.GetTokenDuration().Seconds()),
		"user":       user,
	})
}

// Logout 用户登出，令牌加入黑名单至过期
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenValue, exists := c.Get("token")
	if !exists {
		response.Success(c, nil)
		return
	}
	tokenString := tokenValue.(string)

	if claims, err := h.jwtManager.VerifyToken(tokenString); err == nil && h.cache != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := h.cache.BlacklistToken(tokenString, ttl); err != nil {
			response.ServerError(c, "登出失败")
			return
		}
	}

	response.SuccessWithMessage(c, "登出成功", nil)
}

// RefreshToken 刷新Token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	newToken, err := h.jwtManager.RefreshToken(req.Token)
	if err != nil {
		response.Unauthorized(c, "Token无效或已过期")
		return
	}

	response.Success(c, gin.H{
		"token":      newToken,
		"expires_in": int(h.jwtManager.GetTokenDuration().Seconds()),
	})
}

// Profile 当前用户信息
func (h *AuthHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}
	response.Success(c, user)
}

// UserMenus 当前用户可见的菜单树
func (h *AuthHandler) UserMenus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	menus, err := h.menuService.GetUserMenus(user)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, menus)
}
