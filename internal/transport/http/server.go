package http

import (
	"github.com/gin-gonic/gin"

	appsvc "taskbox/internal/app"
	"taskbox/internal/bootstrap"
	"taskbox/internal/csrf"
	"taskbox/internal/repository"
	"taskbox/internal/session"
	"taskbox/internal/transport/http/handler"
	"taskbox/internal/transport/http/middleware"
	"taskbox/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(response.MethodNotAllowed)
	router.Use(middleware.RequestLogger(app.Logger), gin.Recovery(), middleware.CORS())

	healthHandler := handler.NewHealthHandler(app)
	router.Static("/static", app.Config.App.StaticDir)
	router.GET("/healthz", healthHandler.Check)

	itemRepo := repository.NewItemRepository(app.DB)
	guard := csrf.NewGuard()

	var publisher appsvc.EventPublisher
	if app.EventQueue != nil {
		publisher = app.EventQueue
	}
	dispatcher := appsvc.NewDispatcher(itemRepo, guard, publisher, app.Logger)

	pageHandler := handler.NewPageHandler(guard, app.Logger)
	apiHandler := handler.NewAPIHandler(dispatcher)

	sessions := middleware.Session(
		app.Sessions,
		session.NewCookieCodec(app.Config.Session.Secret, app.Config.SessionTTL()),
		middleware.CookieOptions{
			Name:     app.Config.Session.CookieName,
			Secure:   app.Config.Session.SecureCookie,
			SameSite: middleware.ParseSameSite(app.Config.Session.SameSite),
		},
	)
	router.GET("/", sessions, pageHandler.Show)
	router.POST("/", sessions, apiHandler.Handle)
	// CORS answers pre-flight before this handler runs.
	router.OPTIONS("/", func(c *gin.Context) {})

	return router
}
