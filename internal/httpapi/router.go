// Package httpapi exposes the service as a REST API in server mode.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/a3tai/sensitive-scan/internal/middleware"
	"github.com/a3tai/sensitive-scan/internal/service"
)

// Handler serves the REST API
type Handler struct {
	svc     *service.Service
	name    string
	version string
}

// NewHandler creates the API handlers
func NewHandler(svc *service.Service, name, version string) *Handler {
	return &Handler{svc: svc, name: name, version: version}
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.GET("/info", h.Info)
		api.GET("/files", h.ListFiles)

		api.POST("/scans", h.StartScan)
		api.POST("/scans/object", h.StartObjectScan)
		api.GET("/scans", h.ListScans)
		api.GET("/scans/:id", h.GetScan)
		api.DELETE("/scans/:id", h.CancelScan)

		api.POST("/documents", h.UploadDocument)
		api.GET("/documents", h.ListDocuments)

		api.GET("/words", h.ListWords)
		api.POST("/words", h.AddWord)
		api.PUT("/words/:id", h.UpdateWord)
		api.DELETE("/words/:id", h.RemoveWord)

		api.GET("/orders", h.ListOrders)
		api.POST("/orders", h.CreateOrder)
		api.GET("/orders/:id", h.GetOrder)
		api.PUT("/orders/:id", h.UpdateOrder)
		api.DELETE("/orders/:id", h.DeleteOrder)

		api.GET("/reminders/due", h.DueReminder)
		api.POST("/reminders/dismiss", h.DismissReminder)
	}

	return router
}
