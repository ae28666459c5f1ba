package api

import (
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/health"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/logger"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/ratelimit"
	"github.com/SlpAus/keyforge-decks-backend/internal/stats"
	"github.com/SlpAus/keyforge-decks-backend/internal/user"
	"github.com/SlpAus/keyforge-decks-backend/internal/userdeck"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	registerLimit = ratelimit.Rule{Name: "register", Limit: 5, Window: time.Hour}
	loginLimit    = ratelimit.Rule{Name: "login", Limit: 20, Window: 10 * time.Minute}
	resetLimit    = ratelimit.Rule{Name: "reset-password", Limit: 5, Window: time.Hour}
)

// NewRouter 创建带有恢复、日志和CORS中间件的 gin 引擎并注册所有路由
func NewRouter(cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", user.AuthHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	SetupRoutes(r)
	return r
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api", user.LoadUserMiddleware())
	requireUser := user.RequireUserMiddleware()

	api.GET("/health", health.StatusHandler)

	// 牌组
	decks := api.Group("/decks")
	{
		decks.POST("/filter", deck.FilterDecksHandler)
		decks.POST("/filter-count", deck.CountDecksHandler)
		decks.GET("/search-result-with-cards/:id", deck.GetDeckWithSynergies)
		decks.GET("/simple/:id", deck.GetDeckSimple)
		decks.GET("/sale-info/:id", deck.GetSaleInfo)

		// 用户与牌组的关系
		mine := decks.Group("", requireUser)
		{
			mine.POST("/:deckId/wishlist", userdeck.WishlistHandler)
			mine.POST("/:deckId/unwishlist", userdeck.UnwishlistHandler)
			mine.POST("/:deckId/funny", userdeck.FunnyHandler)
			mine.POST("/:deckId/unfunny", userdeck.UnfunnyHandler)
			mine.POST("/:deckId/owned", userdeck.OwnedHandler)
			mine.POST("/:deckId/unowned", userdeck.UnownedHandler)
			mine.POST("/:deckId/notes", userdeck.UpdateNotesHandler)
			mine.POST("/:deckId/remove-previously-owned", userdeck.RemovePreviouslyOwnedHandler)
			mine.POST("/:deckId/unlist", userdeck.UnlistHandler)
			mine.POST("/list", userdeck.ListHandler)
			mine.GET("/mine", userdeck.ForUserHandler)
		}
	}

	// 卡牌
	cards := api.Group("/cards")
	{
		cards.POST("/filter", card.FilterCardsHandler)
		cards.GET("/extra-info", card.GetExtraInfo)
	}

	// 统计
	statsRoutes := api.Group("/stats")
	{
		statsRoutes.GET("", stats.GetGlobalStats)
		statsRoutes.POST("/set", user.RequireAdminMiddleware(), stats.SetStatsHandler)
	}

	// 用户
	users := api.Group("/users")
	{
		users.GET("/your-user", requireUser, user.GetYourUser)
		users.POST("/your-user/profile", requireUser, user.UpdateProfileHandler)
		users.POST("/your-user/verify-email", requireUser, user.RequestEmailVerification)
		users.POST("/your-user/message-seller", requireUser, user.MessageSellerHandler)

		users.POST("/public/register", ratelimit.Middleware(registerLimit), user.RegisterHandler)
		users.POST("/public/login", ratelimit.Middleware(loginLimit), user.LoginHandler)
		users.GET("/public/:username", user.GetUserProfile)
		users.POST("/public/reset-password", ratelimit.Middleware(resetLimit), user.RequestPasswordReset)
		users.POST("/public/change-password", user.ChangePasswordHandler)
		users.POST("/public/verify-email/:code", user.VerifyEmailHandler)
	}
}
