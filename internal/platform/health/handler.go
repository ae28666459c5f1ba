package health

import (
	"net/http"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// StatusHandler 返回当前的健康状态
func StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":          GetState().String(),
		"redisAvailable": database.IsRedisHealthy(),
	})
}
