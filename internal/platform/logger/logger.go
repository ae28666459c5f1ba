package logger

import (
	"io"
	"os"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init 根据运行环境配置全局 zerolog 日志器
// dev 环境使用彩色控制台输出，其它环境输出 JSON
func Init(env config.Env) {
	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if env == config.EnvDev {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Job 返回带有任务名字段的子日志器
func Job(name string) zerolog.Logger {
	return log.With().Str("job", name).Logger()
}

// GinMiddleware 使用 zerolog 记录每个请求
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var e *zerolog.Event
		switch {
		case status >= 500:
			e = log.Error()
		case status >= 400:
			e = log.Warn()
		default:
			e = log.Info()
		}
		e.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}
