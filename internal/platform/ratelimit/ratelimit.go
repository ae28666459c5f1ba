// Package ratelimit 用Redis有序集合实现按客户端IP的滑动窗口限流，
// 用于注册、登录和重置密码这类容易被滥用的公开接口。
package ratelimit

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// keyPrefix 后接 "<规则名>:<ip>"
const keyPrefix = "ratelimit:"

// ErrTooManyRequests 表示窗口内的请求数已超过上限
var ErrTooManyRequests = apperr.TooManyRequests("Too many requests, please try again later.")

// Rule 描述一条限流规则
type Rule struct {
	// Name 区分不同接口的计数
	Name   string
	Limit  int64
	Window time.Duration
}

func (r Rule) key(ip string) string {
	return keyPrefix + r.Name + ":" + ip
}

// uniqueMember 根据给定的时间生成一个16字节的、抗冲突的成员ID。
// 结构: [ 8字节纳秒时间戳 (Big Endian) | 8字节随机数 ]
func uniqueMember(t time.Time) (string, error) {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(t.UnixNano()))
	if _, err := rand.Read(b[8:16]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hit 记录一次来自 ip 的请求，并返回窗口内（包含本次）的请求数。
func Hit(rule Rule, ip string, now time.Time) (int64, error) {
	if net.ParseIP(ip) == nil {
		return 0, errors.New("无效的客户端IP")
	}
	member, err := uniqueMember(now)
	if err != nil {
		return 0, fmt.Errorf("生成 member 失败: %w", err)
	}

	key := rule.key(ip)
	minScore := now.Add(-rule.Window).UnixMicro()

	// 使用Redis事务(TxPipeline)保证清理、写入和计数的原子性
	pipe := database.RDB.TxPipeline()
	pipe.ZRemRangeByScore(database.Ctx, key, "-inf", "("+strconv.FormatInt(minScore, 10))
	pipe.ZAdd(database.Ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	pipe.Expire(database.Ctx, key, rule.Window+time.Minute)
	countCmd := pipe.ZCard(database.Ctx, key)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return 0, fmt.Errorf("执行限流计数事务失败: %w", err)
	}
	return countCmd.Val(), nil
}

// Middleware 按客户端IP限流。Redis不可用或计数失败时放行。
func Middleware(rule Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !database.IsRedisHealthy() {
			c.Next()
			return
		}

		ip := c.ClientIP()
		count, err := Hit(rule, ip, time.Now())
		if err != nil {
			log.Warn().Err(err).Str("rule", rule.Name).Str("ip", ip).Msg("限流计数失败，放行请求")
			c.Next()
			return
		}
		if count > rule.Limit {
			log.Info().Str("rule", rule.Name).Str("ip", ip).Int64("count", count).Msg("请求被限流")
			apperr.Respond(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
