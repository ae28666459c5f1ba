// Package schedlock 提供基于Redis的定时任务锁，保证同一时刻只有一个实例执行同名任务。
//
// 锁在获取时设置 lockAtMostFor 的过期时间，防止持有者崩溃后永久占用；
// 释放时如果距离获取不足 lockAtLeastFor，则只把剩余时间设为过期时间而不删除，
// 从而让其它实例在这段时间内跳过该任务。
package schedlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "schedlock:"

// 只有持有者令牌匹配时才删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// 只有持有者令牌匹配时才缩短过期时间
var retainScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Options 描述一个任务锁的持有时长
type Options struct {
	LockAtMostFor  time.Duration
	LockAtLeastFor time.Duration
}

// Lock 是一次成功获取的锁
type Lock struct {
	key        string
	token      string
	acquiredAt time.Time
	opts       Options
}

// Acquire 尝试获取名为 name 的锁。锁已被占用时返回 (nil, nil)。
func Acquire(ctx context.Context, name string, opts Options) (*Lock, error) {
	if opts.LockAtMostFor <= 0 {
		return nil, errors.New("schedlock: LockAtMostFor 必须大于0")
	}
	if opts.LockAtLeastFor > opts.LockAtMostFor {
		opts.LockAtLeastFor = opts.LockAtMostFor
	}

	l := &Lock{
		key:        keyPrefix + name,
		token:      uuid.NewString(),
		acquiredAt: time.Now(),
		opts:       opts,
	}
	ok, err := database.RDB.SetNX(ctx, l.key, l.token, opts.LockAtMostFor).Result()
	if err != nil {
		return nil, fmt.Errorf("schedlock: 获取锁 %s 失败: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	return l, nil
}

// Release 释放锁，遵守 LockAtLeastFor。
func (l *Lock) Release(ctx context.Context) error {
	remaining := l.opts.LockAtLeastFor - time.Since(l.acquiredAt)
	var err error
	if remaining > 0 {
		err = retainScript.Run(ctx, database.RDB, []string{l.key}, l.token, remaining.Milliseconds()).Err()
	} else {
		err = releaseScript.Run(ctx, database.RDB, []string{l.key}, l.token).Err()
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("schedlock: 释放锁 %s 失败: %w", l.key, err)
	}
	return nil
}

// Run 在持有锁的情况下执行 fn。未获取到锁时返回 (false, nil) 且不执行 fn。
func Run(ctx context.Context, name string, opts Options, fn func(ctx context.Context) error) (bool, error) {
	l, err := Acquire(ctx, name, opts)
	if err != nil || l == nil {
		return false, err
	}
	runErr := fn(ctx)
	// 即使上下文已取消也要尝试释放
	if err := l.Release(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		runErr = err
	}
	return true, runErr
}
