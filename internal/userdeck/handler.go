package userdeck

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/user"
	"github.com/gin-gonic/gin"
)

func deckIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("deckId"), 10, 64)
	if err != nil {
		apperr.Respond(c, apperr.BadRequest("牌组ID格式错误"))
		return 0, false
	}
	return uint(id), true
}

// flagHandler 生成切换某个布尔标记的处理器，例如加入/移出心愿单
func flagHandler(apply func(*user.KeyUser, uint, bool) error, value bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		deckID, ok := deckIDParam(c)
		if !ok {
			return
		}
		if err := apply(user.CurrentUser(c), deckID, value); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

var (
	WishlistHandler   = flagHandler(AddToWishlist, true)
	UnwishlistHandler = flagHandler(AddToWishlist, false)
	FunnyHandler      = flagHandler(MarkAsFunny, true)
	UnfunnyHandler    = flagHandler(MarkAsFunny, false)
	OwnedHandler      = flagHandler(MarkAsOwned, true)
	UnownedHandler    = flagHandler(MarkAsOwned, false)
)

// UpdateNotesHandler 修改牌组备注
func UpdateNotesHandler(c *gin.Context) {
	deckID, ok := deckIDParam(c)
	if !ok {
		return
	}
	var body struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.BadRequest("备注格式错误"))
		return
	}
	if err := UpdateNotes(user.CurrentUser(c), deckID, body.Notes); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemovePreviouslyOwnedHandler 删除曾经拥有的记录
func RemovePreviouslyOwnedHandler(c *gin.Context) {
	deckID, ok := deckIDParam(c)
	if !ok {
		return
	}
	if err := RemovePreviouslyOwned(user.CurrentUser(c), deckID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListHandler 挂牌出售或交换
func ListHandler(c *gin.Context) {
	var req ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("挂牌信息格式错误"))
		return
	}
	if err := ListDeck(user.CurrentUser(c), req, time.Now()); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnlistHandler 撤下挂牌
func UnlistHandler(c *gin.Context) {
	deckID, ok := deckIDParam(c)
	if !ok {
		return
	}
	if err := UnlistDeck(user.CurrentUser(c), deckID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ForUserHandler 返回当前用户的所有用户牌组
func ForUserHandler(c *gin.Context) {
	decks, err := FindAllForUser(user.CurrentUser(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, decks)
}
