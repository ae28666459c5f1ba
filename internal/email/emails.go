package email

import (
	"fmt"
	"strings"
)

// Links 为邮件正文生成站点的绝对链接
type Links struct {
	BaseURL string
}

func (l Links) base() string {
	return strings.TrimRight(l.BaseURL, "/")
}

func (l Links) ResetPassword(code string) string {
	return l.base() + "/reset-password/" + code
}

func (l Links) VerifyEmail(code string) string {
	return l.base() + "/verify-email/" + code
}

func (l Links) Deck(keyforgeID string) string {
	return l.base() + "/decks/" + keyforgeID
}

func (l Links) Home() string {
	return l.base()
}

// DeckSummary 是牌组相关邮件中的牌组摘要
type DeckSummary struct {
	Name      string
	Expansion string
	Houses    []string
	Sas       int
	Aerc      float64
}

// SellerMessage 是买家就挂牌牌组发给卖家的消息
type SellerMessage struct {
	SellerEmail    string
	SenderUsername string
	SenderEmail    string
	DeckKeyforgeID string
	DeckName       string
	Message        string
	// CcSender 为 true 时抄送发送者，而不是单独再发一份副本
	CcSender bool
	Deck     *DeckSummary
}

// ResetPasswordMessage 渲染重置密码邮件
func ResetPasswordMessage(to string, links Links, code string) (Message, error) {
	html, err := Render(TemplateResetPassword, map[string]string{"Link": links.ResetPassword(code)})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Reset your decksofkeyforge.com password", HTML: html}, nil
}

// VerifyEmailMessage 渲染邮箱验证邮件
func VerifyEmailMessage(to string, links Links, code string) (Message, error) {
	html, err := Render(TemplateVerifyEmail, map[string]string{"Link": links.VerifyEmail(code)})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Verify your decksofkeyforge.com email", HTML: html}, nil
}

// SellerMessages 渲染发给卖家的邮件；不抄送发送者时另附一份发给发送者的副本
func SellerMessages(m SellerMessage, links Links) ([]Message, error) {
	html, err := Render(TemplateSellerMessage, map[string]any{
		"SenderUsername": m.SenderUsername,
		"SenderEmail":    m.SenderEmail,
		"DeckLink":       links.Deck(m.DeckKeyforgeID),
		"DeckName":       m.DeckName,
		"HomeLink":       links.Home(),
		"CcSender":       m.CcSender,
		"Message":        m.Message,
		"Deck":           m.Deck,
	})
	if err != nil {
		return nil, err
	}

	toSeller := Message{
		To:      m.SellerEmail,
		Subject: fmt.Sprintf("%s has a message on Decks of KeyForge", m.DeckName),
		HTML:    html,
		ReplyTo: m.SenderEmail,
	}
	if m.CcSender {
		toSeller.Cc = m.SenderEmail
		return []Message{toSeller}, nil
	}
	copyToSender := Message{
		To:      m.SenderEmail,
		Subject: fmt.Sprintf("We sent this email to the seller of %s", m.DeckName),
		HTML:    html,
	}
	return []Message{toSeller, copyToSender}, nil
}
