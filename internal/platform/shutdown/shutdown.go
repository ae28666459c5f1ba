package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/pkg/lifecycle"
	"github.com/rs/zerolog/log"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
	forcefulTimeout = 1 * time.Second
)

// Coordinator 负责编排应用程序的优雅停机流程。
// 它接收外部创建的生命周期管理器，并使用它们来协调停机。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager

	// finalizers 在后台服务全部退出后按注册顺序执行
	finalizers []finalizer
}

type finalizer struct {
	name string
	fn   func()
}

// NewCoordinator 创建一个新的停机协调器。
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
	}
}

// OnFinish 注册一个在停机最后阶段执行的清理步骤，例如关闭邮件队列。
func (c *Coordinator) OnFinish(name string, fn func()) {
	c.finalizers = append(c.finalizers, finalizer{name: name, fn: fn})
}

// ListenForSignalsAndShutdown 启动信号监听并阻塞，直到停机流程完成。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 阻塞直到接收到停机信号
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("收到关闭信号，开始优雅停机...")

	c.Shutdown(server)
}

// Shutdown 依次关闭HTTP服务器、后台服务和清理步骤。
func (c *Coordinator) Shutdown(server *http.Server) {
	// 关闭HTTP服务器，允许正在进行的请求完成
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Gin服务器关闭错误")
		} else {
			log.Info().Msg("Gin服务器已关闭。")
		}
	}

	// --- 阶段一: 优雅停机 ---
	log.Info().Dur("timeout", gracefulTimeout).Msg("第一阶段停机：等待任务完成...")
	c.GracefulManager.Shutdown()

	remainingServices := c.GracefulManager.WaitWithTimeout(gracefulTimeout)
	if len(remainingServices) == 0 {
		log.Info().Msg("所有服务已在第一阶段优雅关闭。")
	} else {
		// --- 阶段二: 强制停机 ---
		log.Warn().Strs("services", remainingServices).Dur("timeout", forcefulTimeout).
			Msg("第一阶段超时。发送第二停机信号，强制退出")
		c.ForcefulManager.Shutdown()
		// 强制信号意味着立即停止，这里只做最短的等待
		if left := c.ForcefulManager.WaitWithTimeout(forcefulTimeout); len(left) > 0 {
			log.Error().Strs("services", left).Msg("仍有服务未退出")
		}
	}

	// --- 最终步骤 ---
	for _, f := range c.finalizers {
		log.Info().Str("step", f.name).Msg("执行停机清理")
		f.fn()
	}

	log.Info().Msg("优雅停机完成。")
}
