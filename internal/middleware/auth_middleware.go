package middleware

import (
	"strings"

	"rbadmin/internal/models"
	"rbadmin/internal/rbac"
	"rbadmin/pkg/cache"
	"rbadmin/pkg/config"
	"rbadmin/pkg/jwt"
	"rbadmin/pkg/logger"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware 认证与授权中间件
type AuthMiddleware struct {
	db         *gorm.DB
	enforcer   *rbac.Enforcer
	cache      *cache.RedisCache
	jwtManager *jwt.JWTManager
	exemptURLs []string
}

func NewAuthMiddleware(db *gorm.DB, enforcer *rbac.Enforcer, redisCache *cache.RedisCache) *AuthMiddleware {
	return &AuthMiddleware{
		db:         db,
		enforcer:   enforcer,
		cache:      redisCache,
		jwtManager: jwt.GetJWTManager(),
		exemptURLs: config.GetConfig().RBAC.ExemptURLs,
	}
}

// RequireLogin 认证：验证JWT并把用户加载到上下文
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从Authorization头获取JWT token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		// 检查Bearer格式
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		// 提取token
		tokenString := authHeader[7:] // 去掉 "Bearer "

		// 登出后的token在黑名单中
		if m.cache != nil {
			if blacklisted, err := m.cache.IsTokenBlacklisted(tokenString); err == nil && blacklisted {
				response.Unauthorized(c, "Token已失效")
				c.Abort()
				return
			}
		}

		// 验证token
		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		// 获取用户信息（预载部门与角色，数据权限解析需要）
		var user models.User
		if err := m.db.Preload("Department").Preload("Roles").First(&user, claims.UserID).Error; err != nil {
			response.Unauthorized(c, "用户不存在")
			c.Abort()
			return
		}

		// 检查用户状态
		if !user.IsActive() {
			response.Unauthorized(c, "用户已被禁用")
			c.Abort()
			return
		}

		// 将用户信息保存到上下文
		c.Set("user", &user)
		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Set("is_superuser", user.IsSuperuser)
		c.Set("token", tokenString)
		c.Set("claims", claims)

		c.Next()
	}
}

// RequirePermission 授权：按 (用户, 路径, 方法) 询问决策引擎
// 豁免URL直接放行；拒绝时只返回统一的禁止访问，不泄露缺失的规则
func (m *AuthMiddleware) RequirePermission() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, exempt := range m.exemptURLs {
			if strings.HasPrefix(path, exempt) {
				c.Next()
				return
			}
		}

		userValue, exists := c.Get("user")
		if !exists {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		user := userValue.(*models.User)

		if !m.enforcer.Check(user, path, c.Request.Method) {
			logger.GetLogger().Infof("拒绝访问: user=%s %s %s", user.Username, c.Request.Method, path)
			response.Forbidden(c, "权限不足，禁止访问")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireSuperuser 要求超级用户
func (m *AuthMiddleware) RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userValue, exists := c.Get("user")
		if !exists {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !userValue.(*models.User).IsSuperuser {
			response.Forbidden(c, "需要超级管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser 从上下文取当前用户
func CurrentUser(c *gin.Context) *models.User {
	if userValue, exists := c.Get("user"); exists {
		if user, ok := userValue.(*models.User); ok {
			return user
		}
	}
	return nil
}
