package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/logger"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/schedlock"
	"github.com/SlpAus/keyforge-decks-backend/pkg/lifecycle"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Job 描述一个定时任务
type Job struct {
	// Name 同时用作锁名
	Name string
	// Spec 是 cron 表达式，例如 "@every 20s"
	Spec string
	Lock schedlock.Options
	Run  func(ctx context.Context) error
}

// Scheduler 在一个生命周期句柄内运行所有定时任务
type Scheduler struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]Job
	ctx  context.Context

	// stopping 关闭后不再开始新的任务
	stopping <-chan struct{}
}

// New 创建调度器。同一任务的上一次执行未结束时，本次触发会被跳过。
func New() *Scheduler {
	cl := cronLogger{log.With().Str("component", "scheduler").Logger()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs: make(map[string]Job),
		ctx:  context.Background(),
	}
}

// Register 添加一个任务。Spec 为空的任务只能通过 RunNow 触发。
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("定时任务 %s 已注册", job.Name)
	}
	if job.Spec != "" {
		if _, err := s.cron.AddFunc(job.Spec, func() { _, _ = s.execute(job) }); err != nil {
			return fmt.Errorf("定时任务 %s 的表达式无效: %w", job.Name, err)
		}
	}
	s.jobs[job.Name] = job
	return nil
}

// RunNow 立即在当前goroutine中执行一次任务，仍然受任务锁保护。
// 锁被占用、Redis不可用或调度器正在停止时不执行任务并返回 false。
func (s *Scheduler) RunNow(name string) (bool, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("未知的定时任务: %s", name)
	}
	return s.execute(job)
}

// Run 启动调度器并阻塞，直到句柄收到停机信号，然后等待正在执行的任务结束。
func (s *Scheduler) Run(h *lifecycle.Handle) {
	s.run(h, h)
}

// RunTwoPhase 与 Run 相同，但正在执行的任务只在强制停机时才被取消。
// 两个句柄都会在返回前关闭。
func (s *Scheduler) RunTwoPhase(gracefulHandle, forcefulHandle *lifecycle.Handle) {
	defer gracefulHandle.Close()
	defer forcefulHandle.Close()
	s.run(gracefulHandle, forcefulHandle)
}

func (s *Scheduler) run(gracefulHandle, forcefulHandle *lifecycle.Handle) {
	s.mu.Lock()
	s.ctx = forcefulHandle.Ctx()
	s.stopping = gracefulHandle.Done()
	s.mu.Unlock()

	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("定时任务调度器已启动")

	<-gracefulHandle.Done()
	<-s.cron.Stop().Done()
	log.Info().Msg("定时任务调度器已停止")
}

func (s *Scheduler) execute(job Job) (bool, error) {
	s.mu.Lock()
	ctx, stopping := s.ctx, s.stopping
	s.mu.Unlock()

	jl := logger.Job(job.Name)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	select {
	case <-stopping:
		jl.Debug().Msg("调度器正在停止，跳过本次任务")
		return false, nil
	default:
	}
	if !database.IsRedisHealthy() {
		jl.Warn().Msg("Redis不可用，跳过本次任务")
		return false, nil
	}

	start := time.Now()
	ran, err := schedlock.Run(ctx, job.Name, job.Lock, job.Run)
	switch {
	case err != nil:
		jl.Error().Err(err).Dur("took", time.Since(start)).Msg("定时任务执行失败")
	case !ran:
		jl.Debug().Msg("任务锁被占用，跳过")
	default:
		jl.Debug().Dur("took", time.Since(start)).Msg("定时任务执行完成")
	}
	return ran, err
}

// cronLogger 将 cron 的日志接口适配到 zerolog
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
