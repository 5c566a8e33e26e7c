package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Register mounts the command API under /api/v1
func Register(router gin.IRouter, sessions *SessionHandler, commands *CommandHandler) {
	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/intents", sessions.Intents)

		apiV1.POST("/sessions", sessions.Create)
		apiV1.DELETE("/sessions/:sid", sessions.Close)
		apiV1.GET("/sessions/:sid/audit", sessions.Audit)

		apiV1.POST("/sessions/:sid/commands", commands.Resolve)
		apiV1.GET("/sessions/:sid/commands/:cid", commands.Get)
		apiV1.PATCH("/sessions/:sid/commands/:cid", commands.UpdateField)
		apiV1.DELETE("/sessions/:sid/commands/:cid", commands.Cancel)
		apiV1.GET("/sessions/:sid/commands/:cid/preview", commands.Preview)
		apiV1.POST("/sessions/:sid/commands/:cid/confirm", commands.Confirm)
		apiV1.POST("/sessions/:sid/commands/:cid/confirm/stream", commands.ConfirmStream)
	}
}

// RequestLogger logs one line per request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
