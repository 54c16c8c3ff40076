package api

import (
	"github.com/SlpAus/study-tracker-backend/internal/entry"
	"github.com/SlpAus/study-tracker-backend/internal/leaderboard"
	"github.com/SlpAus/study-tracker-backend/internal/profile"
	"github.com/SlpAus/study-tracker-backend/internal/subject"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	// 所有路由都先尝试加载会话，鉴权由后续中间件决定
	api := router.Group("/api", profile.LoadSessionMiddleware())
	{
		// 认证相关的路由组 /api/auth
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", profile.Signup)
			authRoutes.POST("/login", profile.Login)
			authRoutes.POST("/logout", profile.Logout)
			authRoutes.GET("/me", profile.RequireUserMiddleware(), profile.Me)
		}

		// 档案相关的路由
		api.PATCH("/profile/note", profile.RequireUserMiddleware(), profile.UpdateNoteHandler)

		// 科目定义，登录后即可读取
		api.GET("/subjects", profile.RequireUserMiddleware(), subject.GetSubjects)

		// 日记录相关的路由
		api.POST("/entries", profile.RequireUserMiddleware(), entry.SaveEntryHandler)
		api.GET("/entries", profile.RequireUserMiddleware(), entry.GetEntriesHandler)

		// 管理端相关的路由
		api.GET("/leaderboard", profile.RequireAdminMiddleware(), leaderboard.GetLeaderboardHandler)
		api.GET("/activity", profile.RequireAdminMiddleware(), leaderboard.GetActivityHandler)
	}
}
