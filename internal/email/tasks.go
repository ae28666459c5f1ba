package email

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	// TaskSend 是发送邮件任务的类型
	TaskSend = "email:send"

	sendQueue    = "default"
	sendRetries  = 3
	sendDeadline = 30 * time.Second
)

// Enqueuer 是排队邮件时用到的 *asynq.Client 方法
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

var (
	queueMu sync.RWMutex
	queue   Enqueuer
)

// SetQueue 设置 Enqueue 使用的队列。队列为 nil 时 Enqueue 只记录日志。
func SetQueue(q Enqueuer) {
	queueMu.Lock()
	defer queueMu.Unlock()
	queue = q
}

// NewSendTask 把邮件序列化为 asynq 任务
func NewSendTask(msg Message) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskSend,
		payload,
		asynq.MaxRetry(sendRetries),
		asynq.Queue(sendQueue),
		asynq.Timeout(sendDeadline),
	), nil
}

// Enqueue 把邮件放入队列，由后台worker投递
func Enqueue(msg Message) error {
	queueMu.RLock()
	q := queue
	queueMu.RUnlock()

	if q == nil {
		log.Warn().Str("to", msg.To).Str("subject", msg.Subject).Msg("未配置邮件队列，丢弃邮件")
		return nil
	}

	task, err := NewSendTask(msg)
	if err != nil {
		return fmt.Errorf("无法创建邮件任务: %w", err)
	}
	info, err := q.Enqueue(task)
	if err != nil {
		return fmt.Errorf("无法将邮件加入队列: %w", err)
	}
	log.Debug().Str("task", info.ID).Str("to", msg.To).Msg("邮件已入队")
	return nil
}

// SendHandler 使用给定的发送器处理 TaskSend 任务
func SendHandler(sender Sender) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			// 损坏的载荷重试也不会成功
			return fmt.Errorf("无法解析邮件载荷: %v: %w", err, asynq.SkipRetry)
		}

		log.Info().Str("type", TaskSend).Str("to", msg.To).Msg("正在处理邮件任务")
		if err := sender.Send(msg); err != nil {
			log.Error().Err(err).Str("type", TaskSend).Str("to", msg.To).Msg("邮件发送失败")
			return err
		}
		log.Info().Str("type", TaskSend).Str("to", msg.To).Msg("邮件发送成功")
		return nil
	}
}
