package deck

import (
	"net/http"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// FilterDecksHandler 按条件返回一页牌组
func FilterDecksHandler(c *gin.Context) {
	var filters Filters
	if err := c.ShouldBindJSON(&filters); err != nil {
		apperr.Respond(c, apperr.BadRequest("搜索条件格式错误"))
		return
	}
	page, err := FilterDecks(filters, user.CurrentUser(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CountDecksHandler 返回满足条件的牌组数量
func CountDecksHandler(c *gin.Context) {
	var filters Filters
	if err := c.ShouldBindJSON(&filters); err != nil {
		apperr.Respond(c, apperr.BadRequest("搜索条件格式错误"))
		return
	}
	count, err := CountFilters(filters, user.CurrentUser(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

// GetDeckWithSynergies 返回牌组详情。找不到时返回空内容。
func GetDeckWithSynergies(c *gin.Context) {
	d, err := FindDeckWithSynergies(c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if d == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetDeckSimple 返回不带卡牌的牌组
func GetDeckSimple(c *gin.Context) {
	d, err := FindDeckSimple(c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if d == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetSaleInfo 返回牌组的出售信息
func GetSaleInfo(c *gin.Context) {
	info, err := SaleInfoForDeck(c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
