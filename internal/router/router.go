package router

import (
	"time"

	"rbadmin/internal/handlers"
	"rbadmin/internal/middleware"
	"rbadmin/internal/rbac"
	"rbadmin/internal/services"
	"rbadmin/pkg/cache"
	"rbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(db *gorm.DB, enforcer *rbac.Enforcer, redisCache *cache.RedisCache) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	registerRoutes(router, db, enforcer, redisCache)
	return router
}

// 注册所有路由
// /rbac/auth 下只做认证；/rbac/api 下整组过授权引擎，
// 路由路径与策略路径使用同一套约定
func registerRoutes(router *gin.Engine, db *gorm.DB, enforcer *rbac.Enforcer, redisCache *cache.RedisCache) {

	auth := middleware.NewAuthMiddleware(db, enforcer, redisCache)

	policyService := services.NewPolicyService(db)
	userService := services.NewUserService(db, enforcer)
	roleService := services.NewRoleService(db, enforcer)
	deptService := services.NewDepartmentService(db)
	menuService := services.NewMenuService(db, redisCache)
	apiService := services.NewApiService(db)
	articleService := services.NewArticleService(db)
	projectService := services.NewProjectService(db)

	router.GET("/health", healthCheck)
	router.GET("/ping", ping)

	// 认证路由组（登录登出不过授权引擎）
	authHandler := handlers.NewAuthHandler(userService, menuService, redisCache)
	authGroup := router.Group("/rbac/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", auth.RequireLogin(), authHandler.Logout)
		authGroup.GET("/profile", auth.RequireLogin(), authHandler.Profile)
		authGroup.GET("/user-menus", auth.RequireLogin(), authHandler.UserMenus)
	}

	// API路由组：整组先认证再授权
	api := router.Group("/rbac/api")
	api.Use(auth.RequireLogin(), auth.RequirePermission())
	{
		userHandler := handlers.NewUserHandler(userService)
		users := api.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.POST("/:id/disable", userHandler.Disable)
			users.POST("/:id/reset-password", userHandler.ResetPassword)
			users.PUT("/:id/data-scope", userHandler.SetDataScope)
			users.PUT("/:id/roles", userHandler.AssignRoles)
			users.GET("/:id/roles", userHandler.GetRoles)
		}

		roleHandler := handlers.NewRoleHandler(roleService, menuService)
		roles := api.Group("/roles")
		{
			roles.POST("", roleHandler.Create)
			roles.GET("", roleHandler.List)
			roles.GET("/:id", roleHandler.Get)
			roles.PUT("/:id", roleHandler.Update)
			roles.DELETE("/:id", roleHandler.Delete)
			roles.PUT("/:id/menus", roleHandler.AssignMenus)
			roles.GET("/:id/menus", roleHandler.GetMenus)
			roles.PUT("/:id/apis", roleHandler.AssignAPIPermissions)
			roles.GET("/:id/policies", roleHandler.GetPolicies)
		}

		deptHandler := handlers.NewDepartmentHandler(deptService, userService)
		depts := api.Group("/departments")
		{
			depts.POST("", deptHandler.Create)
			depts.GET("/tree", deptHandler.Tree)
			depts.GET("/:id", deptHandler.Get)
			depts.GET("/:id/children", deptHandler.Children)
			depts.GET("/:id/path", deptHandler.Path)
			depts.PUT("/:id", deptHandler.Update)
			depts.DELETE("/:id", deptHandler.Delete)
		}

		menuHandler := handlers.NewMenuHandler(menuService)
		menus := api.Group("/menus")
		{
			menus.POST("", menuHandler.Create)
			menus.GET("/tree", menuHandler.Tree)
			menus.GET("/:id", menuHandler.Get)
			menus.PUT("/:id", menuHandler.Update)
			menus.DELETE("/:id", menuHandler.Delete)
		}

		apiHandler := handlers.NewApiHandler(apiService)
		apis := api.Group("/apis")
		{
			apis.POST("", apiHandler.Create)
			apis.GET("", apiHandler.List)
			apis.GET("/:id", apiHandler.Get)
			apis.PUT("/:id", apiHandler.Update)
			apis.DELETE("/:id", apiHandler.Delete)
		}

		// 权限策略的直接管理只开放给超级管理员
		permissionHandler := handlers.NewPermissionHandler(policyService, enforcer)
		permissions := api.Group("/permissions")
		permissions.Use(auth.RequireSuperuser())
		{
			permissions.GET("", permissionHandler.List)
			permissions.POST("/grant", permissionHandler.Grant)
			permissions.POST("/revoke", permissionHandler.Revoke)
			permissions.POST("/reload", permissionHandler.Reload)
			permissions.GET("/user-roles", permissionHandler.UserRoles)
		}

		articleHandler := handlers.NewArticleHandler(articleService)
		articles := api.Group("/articles")
		{
			articles.POST("", articleHandler.Create)
			articles.GET("", articleHandler.List)
			articles.GET("/:id", articleHandler.Get)
			articles.PUT("/:id", articleHandler.Update)
			articles.DELETE("/:id", articleHandler.Delete)
		}

		projectHandler := handlers.NewProjectHandler(projectService)
		projects := api.Group("/projects")
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:id", projectHandler.Get)
			projects.DELETE("/:id", projectHandler.Delete)
		}
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "rbadmin",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
