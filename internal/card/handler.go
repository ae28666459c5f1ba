package card

import (
	"net/http"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/gin-gonic/gin"
)

// FilterCardsHandler 按条件搜索卡牌
func FilterCardsHandler(c *gin.Context) {
	var filters Filters
	if err := c.ShouldBindJSON(&filters); err != nil {
		apperr.Respond(c, apperr.BadRequest("搜索条件格式错误"))
		return
	}

	cards, err := FilterCards(filters)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// GetExtraInfo 返回某张卡牌的附加评分信息
func GetExtraInfo(c *gin.Context) {
	info, ok := ExtraInfoFor(c.Query("title"))
	if !ok {
		apperr.Respond(c, apperr.NotFound("找不到该卡牌的附加信息"))
		return
	}
	c.JSON(http.StatusOK, info)
}
