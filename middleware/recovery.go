package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kapsul/logger"
	"kapsul/utils"
)

func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.L.Error("panic recovered",
					logger.String("path", c.Request.URL.Path),
					logger.String("request_id", c.GetString("request_id")),
				)
				utils.TrackError("http", "panic")
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
