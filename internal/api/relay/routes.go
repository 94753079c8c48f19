package relay

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	promptsGroup := router.Group("/prompts")
	{
		promptsGroup.POST("", h.CreatePrompt)
		promptsGroup.GET("", h.ListPrompts)
		promptsGroup.GET("/:id", h.GetPrompt)
	}

	router.POST("/prompt", h.AskHosted)
	router.POST("/openrouter", h.AskOpenRouter)
}
