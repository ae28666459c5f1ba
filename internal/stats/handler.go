package stats

import (
	"net/http"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/gin-gonic/gin"
)

// GetGlobalStats 返回全局以及每个系列的统计视图
func GetGlobalStats(c *gin.Context) {
	views, err := FindGlobalStats()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// SetStatsHandler 手动写入统计，仅管理员可用
func SetStatsHandler(c *gin.Context) {
	var s DeckStatistics
	if err := c.ShouldBindJSON(&s); err != nil {
		apperr.Respond(c, apperr.BadRequest("统计数据格式错误"))
		return
	}
	if err := SetStats(s); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
