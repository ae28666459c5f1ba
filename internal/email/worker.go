package email

import (
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Service 持有排队邮件的 asynq 客户端和发送邮件的 worker 服务
type Service struct {
	Client *asynq.Client
	server *asynq.Server
	sender Sender
}

// NewService 根据配置创建队列客户端和 worker 服务
func NewService(cfg *config.Config) *Service {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Database.Redis.Address,
		Password: cfg.Database.Redis.Password,
		DB:       cfg.Database.Redis.DB,
	}
	concurrency := cfg.Email.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Service{
		Client: asynq.NewClient(redisOpt),
		server: asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{sendQueue: 1},
		}),
		sender: NewSender(cfg.Env, cfg.Email),
	}
}

// Start 注册发送处理器并启动 worker，然后把客户端设为包级队列。不会阻塞。
func (s *Service) Start() error {
	mux := asynq.NewServeMux()
	mux.Handle(TaskSend, SendHandler(s.sender))

	log.Info().Msg("正在启动邮件worker")
	if err := s.server.Start(mux); err != nil {
		return err
	}
	SetQueue(s.Client)
	return nil
}

// Stop 等待正在发送的邮件完成并关闭客户端
func (s *Service) Stop() {
	log.Info().Msg("正在停止邮件worker")
	SetQueue(nil)
	s.server.Shutdown()
	if err := s.Client.Close(); err != nil {
		log.Warn().Err(err).Msg("无法关闭邮件队列客户端")
	}
}
