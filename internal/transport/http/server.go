package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"slidedeck/internal/bootstrap"
	"slidedeck/internal/transport/http/handler"
	"slidedeck/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)

	healthHandler := handler.NewHealthHandler(
		app.Config.App.Name,
		app.Config.App.Env,
		app.StartedAt,
		app.DependencyChecks()...,
	)
	documentHandler := handler.NewDocumentHandler(
		app.Documents,
		app.Files,
		app.Config.Storage.MaxUploadBytes,
		app.Log,
	)
	return newRouter(app.Log, healthHandler, documentHandler)
}

func newRouter(log *logrus.Logger, health *handler.HealthHandler, documents *handler.DocumentHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(log), gin.Recovery())

	router.GET("/healthz", health.Check)

	v1 := router.Group("/api/v1")
	v1.GET("/health/", health.Live)
	v1.POST("/upload/", documents.Upload)
	v1.GET("/uploads/:filename", documents.ServeFile)

	docs := v1.Group("/documents")
	docs.GET("", documents.List)
	docs.GET("/:id", documents.Get)
	docs.DELETE("/:id", documents.Delete)

	return router
}
