// mailer.go
package mail

import (
	"errors"
	"fmt"
	"net/smtp"
)

// Envío de correo por SMTP plano (suficiente para los códigos de login).
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
}

func NewSMTPMailer(host, port, user, pass string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.host == "" || m.user == "" {
		return errors.New("credenciales de correo no configuradas (SMTP_HOST / EMAIL_USER / EMAIL_PASS)")
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		m.user, to, subject, body,
	))

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.user, []string{to}, msg)
}
