package main

import (
	"net/http"

	commonmw "prepboard/internal/common/http/middleware"
	progresscontroller "prepboard/internal/progress/controller"
	usercontroller "prepboard/internal/user/controller"
	"prepboard/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

const (
	routeSignin   = "auth:signin"
	routeProgress = "progress:write"
)

type routerDeps struct {
	Auth       commonmw.Authenticator
	Limiter    commonmw.Limiter
	RateLimit  RateLimitConfig
	Users      usercontroller.Authenticator
	Progress   progresscontroller.ProgressAPI
	RequestLog bool
}

func buildRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	if deps.RequestLog {
		router.Use(commonmw.RequestLogger())
	}

	router.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	authController := usercontroller.NewAuthController(deps.Users)
	auth := api.Group("/auth")
	auth.POST("/signup", authController.Register)
	auth.POST("/signin",
		commonmw.RateLimitMiddleware(deps.Limiter, routeSignin, commonmw.RateLimitPolicy{
			Window: deps.RateLimit.Window,
			IPMax:  deps.RateLimit.SigninIPMax,
		}),
		authController.Login,
	)
	auth.GET("/me", commonmw.AuthMiddleware(deps.Auth), authController.Me)

	progressController := progresscontroller.NewProgressController(deps.Progress)
	authed := api.Group("", commonmw.AuthMiddleware(deps.Auth))
	authed.GET("/companies", progressController.ListCompanies)
	authed.GET("/companies/:slug/problems", progressController.GetCompanyProblems)

	writeLimit := commonmw.RateLimitMiddleware(deps.Limiter, routeProgress, commonmw.RateLimitPolicy{
		Window:  deps.RateLimit.Window,
		UserMax: deps.RateLimit.UserMax,
	})
	authed.POST("/progress", writeLimit, progressController.SetStatus)
	authed.POST("/progress/toggle", writeLimit, progressController.ToggleStatus)
	authed.GET("/progress/:problemId", progressController.GetStatus)

	return router
}

func buildHTTPServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
