package router

import (
	"Lee_Events/internal/handler"
	"Lee_Events/internal/middleware"
	"Lee_Events/internal/pkg"
	"Lee_Events/internal/service"

	"github.com/gin-gonic/gin"
)

func InitRouter(emailCfg pkg.SMTPConfig) *gin.Engine {
	r := gin.Default()

	emailSvc := service.NewEmailService(emailCfg)
	email := handler.NewEmailHandler(emailSvc)
	user := handler.NewUserHandler(service.NewUserService(emailSvc))
	event := handler.NewEventHandler(service.NewEventService())
	registration := handler.NewRegistrationHandler(service.NewRegistrationService())
	question := handler.NewQuestionHandler(service.NewQuestionService())

	// 邮件相关接口
	emailGroup := r.Group("/api/email")
	{
		emailGroup.POST("/:scope/code", email.SendCode)
	}

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
		userGroup.POST("/reset", user.ResetPassword)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", user.TokenRefresh)
	}

	// 登录态接口
	userAuthGroup := r.Group("/api/user")
	userAuthGroup.Use(middleware.AuthMiddleware())
	{
		userAuthGroup.POST("/logout", user.Logout)
	}
	authGroup := r.Group("/api/auth")
	authGroup.Use(middleware.AuthMiddleware())
	{
		authGroup.POST("/change-password", user.ChangePassword)
	}

	// 事件相关接口
	eventGroup := r.Group("/api/event")
	eventGroup.Use(middleware.AuthMiddleware())
	{
		eventGroup.POST("", event.Create)
		eventGroup.GET("/:id", event.Get)
		eventGroup.PATCH("/:id", event.Update)
		eventGroup.DELETE("/:id", event.Archive) // 归档，软删除

		eventGroup.POST("/:id/register", registration.Register)
		eventGroup.GET("/:id/attendees", registration.Attendees)
		eventGroup.GET("/:id/attending", registration.Attending)
		eventGroup.GET("/:id/count", registration.Count)

		eventGroup.POST("/:id/question", question.Ask)
	}

	// 搜索：匿名可查 OPEN/ARCHIVE，带token才能查 MY_EVENTS/ATTENDING
	searchGroup := r.Group("/api/search")
	searchGroup.Use(middleware.OptionalAuthMiddleware())
	{
		searchGroup.GET("", event.Search)
	}

	// 提问相关接口
	questionGroup := r.Group("/api/question")
	questionGroup.Use(middleware.AuthMiddleware())
	{
		questionGroup.DELETE("/:id", question.Delete)
		questionGroup.POST("/:id/vote", question.Vote)
		questionGroup.DELETE("/:id/vote", question.Unvote)
		questionGroup.GET("/:id/votes", question.Votes)
	}

	return r
}
