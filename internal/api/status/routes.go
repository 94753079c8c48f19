package status

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/", h.Index)
	router.GET("/healthz", h.Health)
}
