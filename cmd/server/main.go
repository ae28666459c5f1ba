package main

import (
	"errors"
	"net/http"

	"github.com/SlpAus/keyforge-decks-backend/api"
	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/email"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/health"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/logger"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/scheduler"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/shutdown"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/startup"
	"github.com/SlpAus/keyforge-decks-backend/internal/stats"
	"github.com/SlpAus/keyforge-decks-backend/internal/userdeck"
	"github.com/SlpAus/keyforge-decks-backend/pkg/lifecycle"
	"github.com/SlpAus/keyforge-decks-backend/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. 加载配置和日志
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("无法加载配置")
	}
	logger.Init(cfg.Env)
	gin.SetMode(cfg.Server.Mode)

	token.SetSecret(cfg.Auth.JWTSecret)
	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 2. 阻塞式获取初始Run ID
	checker := health.NewChecker(startup.RebuildCache)
	if err := checker.InitializeRunID(); err != nil {
		log.Fatal().Err(err).Msg("无法初始化Redis健康检查")
	}

	// 3. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(cfg); err != nil {
		log.Fatal().Err(err).Msg("应用初始化失败，无法启动")
	}

	// 4. 阻塞式执行一次启动后健康检查
	log.Info().Msg("正在执行启动后健康检查...")
	checker.PerformCheck()

	// 5. 邮件队列和发送worker
	mail := email.NewService(cfg)
	if err := mail.Start(); err != nil {
		log.Fatal().Err(err).Msg("无法启动邮件worker")
	}

	// 6. 后台服务
	gracefulMgr := lifecycle.NewManager("graceful")
	forcefulMgr := lifecycle.NewManager("forceful")
	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.OnFinish("email", mail.Stop)

	if err := gracefulMgr.Go("redis-health", checker.Run); err != nil {
		log.Fatal().Err(err).Msg("无法启动健康检查器")
	}
	if cfg.Jobs.Enabled {
		if err := startScheduler(cfg, gracefulMgr, forcefulMgr); err != nil {
			log.Fatal().Err(err).Msg("无法启动定时任务")
		}
	} else {
		log.Warn().Msg("定时任务已禁用")
	}

	// 7. HTTP服务器
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: api.NewRouter(cfg.Server),
	}
	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("服务器已准备就绪，开始监听")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("服务器启动失败")
		}
	}()

	coordinator.ListenForSignalsAndShutdown(server)
}

func startScheduler(cfg *config.Config, gracefulMgr, forcefulMgr *lifecycle.Manager) error {
	s := scheduler.New()
	if err := userdeck.RegisterJobs(s, cfg.Jobs); err != nil {
		return err
	}
	if err := stats.RegisterJobs(s, cfg.Env, cfg.Jobs); err != nil {
		return err
	}
	if err := deck.RegisterJobs(s, cfg.Jobs); err != nil {
		return err
	}

	gracefulHandle, err := gracefulMgr.NewServiceHandle("scheduler")
	if err != nil {
		return err
	}
	forcefulHandle, err := forcefulMgr.NewServiceHandle("scheduler")
	if err != nil {
		gracefulHandle.Close()
		return err
	}
	go s.RunTwoPhase(gracefulHandle, forcefulHandle)
	return nil
}
