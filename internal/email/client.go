// Package email 渲染事务邮件，通过 asynq 排队，并使用 Resend 发送。
package email

import (
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// DevSubjectPrefix 是 dev 环境重定向邮件时加在标题前的前缀
const DevSubjectPrefix = "Dok Dev Email: "

// Message 是渲染完成、可以投递的邮件
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	ReplyTo string `json:"replyTo,omitempty"`
	Cc      string `json:"cc,omitempty"`
}

// Sender 同步投递一封邮件
type Sender interface {
	Send(msg Message) error
}

// ResendSender 通过 Resend API 发送邮件
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender 根据邮件配置创建发送器
func NewResendSender(cfg config.EmailConfig) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.FromAddress,
	}
}

func (s *ResendSender) Send(msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}
	if msg.Cc != "" {
		params.Cc = []string{msg.Cc}
	}
	if _, err := s.client.Emails.Send(params); err != nil {
		return errors.Wrapf(err, "无法发送邮件到 %s", msg.To)
	}
	return nil
}

// devRedirectSender 在 dev 环境把所有邮件发往同一个收件箱
type devRedirectSender struct {
	next      Sender
	recipient string
}

// WithDevRedirect 包装发送器，dev 环境下所有邮件都发给 recipient
func WithDevRedirect(next Sender, env config.Env, recipient string) Sender {
	if env != config.EnvDev {
		return next
	}
	return &devRedirectSender{next: next, recipient: recipient}
}

func (s *devRedirectSender) Send(msg Message) error {
	log.Debug().Str("to", msg.To).Str("redirect", s.recipient).Msg("dev环境邮件已重定向")
	msg.To = s.recipient
	msg.Cc = ""
	msg.Subject = DevSubjectPrefix + msg.Subject
	return s.next.Send(msg)
}

// logSender 只记录日志，未配置投递时使用
type logSender struct{}

func (logSender) Send(msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("未配置邮件投递，丢弃邮件")
	return nil
}

// NewSender 根据配置选择发送器
func NewSender(env config.Env, cfg config.EmailConfig) Sender {
	if !cfg.Enabled || cfg.ResendAPIKey == "" {
		return logSender{}
	}
	return WithDevRedirect(NewResendSender(cfg), env, cfg.DevRecipient)
}
