package config

import (
	"time"

	"clinicpro-backend/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func PerformanceLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		}

		if latency > 200*time.Millisecond {
			zlog.Warn("slow request", fields...)
			return
		}
		zlog.Debug("request", fields...)
	}
}
