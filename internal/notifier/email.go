package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// EmailNotifier sends HTML mail over SMTP with STARTTLS when offered.
type EmailNotifier struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Receiver string
	Subject  string

	// sendMail is smtp.SendMail outside tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates an SMTP notifier.
func NewEmailNotifier(host string, port int, sender, password, receiver string) *EmailNotifier {
	return &EmailNotifier{
		Host:     host,
		Port:     port,
		Sender:   sender,
		Password: password,
		Receiver: receiver,
		Subject:  "TradeScout alert",
		sendMail: smtp.SendMail,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

// Send mails text as an HTML body.
func (e *EmailNotifier) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	auth := smtp.PlainAuth("", e.Sender, e.Password, e.Host)
	if err := e.sendMail(addr, auth, e.Sender, []string{e.Receiver}, e.message(text)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (e *EmailNotifier) message(text string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.Sender)
	fmt.Fprintf(&b, "To: %s\r\n", e.Receiver)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString("<html><body><pre>")
	b.WriteString(text)
	b.WriteString("</pre></body></html>\r\n")
	return []byte(b.String())
}
