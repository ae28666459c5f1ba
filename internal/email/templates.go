package email

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/pkg/errors"
)

// Template 是邮件模板名
type Template string

const (
	// 对应 templates/reset_password.html
	TemplateResetPassword Template = "reset_password"
	// 对应 templates/verify_email.html
	TemplateVerifyEmail Template = "verify_email"
	// 对应 templates/seller_message.html
	TemplateSellerMessage Template = "seller_message"
)

//go:embed templates/*.html
var templateFS embed.FS

// templates 包含 deck_summary 片段，其他模板可以引用它
var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Render 用给定数据渲染模板
func Render(name Template, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(name)+".html", data); err != nil {
		return "", errors.Wrapf(err, "无法渲染邮件模板 %s", name)
	}
	return body.String(), nil
}
