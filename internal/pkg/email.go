package pkg

import (
	"crypto/tls"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host          string
	Port          int
	Username      string // 发件人邮箱
	Password      string // 授权码/密码
	From          string // 显示的发件人，可与 Username 相同
	SubjectPrefix string
	SSL           bool
}

// 邮件模板
const (
	TemplateConfirm       = "auth/email/confirm"
	TemplateResetPassword = "auth/email/reset_password"
	TemplateChangeEmail   = "auth/email/change_email"
)

// MailData 模板参数
type MailData struct {
	Username string
	Token    string
	BaseURL  string
}

// Notifier 异步通知，调用方不关心结果
type Notifier interface {
	Notify(to, subject, template string, data MailData)
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return d.DialAndSend(m)
}

// RenderMail 按模板生成正文
func RenderMail(template string, data MailData) (string, error) {
	switch template {
	case TemplateConfirm:
		return fmt.Sprintf(`<p>%s 您好，</p><p>欢迎加入自习室！请点击 <a href="%s/auth/confirm/%s">此链接</a> 完成账户确认。</p>`,
			data.Username, data.BaseURL, data.Token), nil
	case TemplateResetPassword:
		return fmt.Sprintf(`<p>%s 您好，</p><p>请点击 <a href="%s/auth/reset/%s">此链接</a> 重设密码，若非本人操作请忽略。</p>`,
			data.Username, data.BaseURL, data.Token), nil
	case TemplateChangeEmail:
		return fmt.Sprintf(`<p>%s 您好，</p><p>请点击 <a href="%s/auth/change_email/%s">此链接</a> 确认新的电子邮件地址。</p>`,
			data.Username, data.BaseURL, data.Token), nil
	}
	return "", fmt.Errorf("unknown mail template %q", template)
}

type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// Notify 后台发送，失败只记录日志
func (n *SMTPNotifier) Notify(to, subject, template string, data MailData) {
	body, err := RenderMail(template, data)
	if err != nil {
		log.Printf("mail render err: %v", err)
		return
	}
	go func() {
		if err := SendEmail(n.cfg, to, n.cfg.SubjectPrefix+subject, body); err != nil {
			log.Printf("mail send to %s err: %v", to, err)
		}
	}()
}

// LogNotifier 未配置 SMTP 时使用
type LogNotifier struct{}

func (LogNotifier) Notify(to, subject, template string, data MailData) {
	log.Printf("MAIL to=%s subject=%s template=%s token=%s", to, subject, template, data.Token)
}
