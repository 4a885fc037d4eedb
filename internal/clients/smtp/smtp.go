// Package smtp delivers mail through an SMTP relay using STARTTLS and PLAIN
// auth.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/SundayYogurt/image_service/internal/dto"
)

type Client struct {
	host     string
	port     int
	user     string
	password string
	now      func() time.Time
}

func New(host string, port int, user, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		now:      time.Now,
	}
}

// Send delivers msg. Only ctx bounds the exchange; no timeout of its own is
// applied.
func (c *Client) Send(ctx context.Context, msg dto.MailMessage) error {
	if msg.To == "" || msg.From == "" {
		return errors.New("mail sender and recipient are required")
	}
	raw := BuildMessage(msg, c.now())

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Quit() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: c.host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if c.user != "" {
		auth := smtp.PlainAuth("", c.user, c.password, c.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}

// BuildMessage renders msg as an RFC 5322 HTML message.
func BuildMessage(msg dto.MailMessage, date time.Time) []byte {
	from := (&mail.Address{Name: msg.FromName, Address: msg.From}).String()

	var buf bytes.Buffer
	headers := []string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: " + date.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
	}
	buf.WriteString(strings.Join(headers, "\r\n"))
	buf.WriteString("\r\n\r\n")
	buf.WriteString(msg.HTML)
	return buf.Bytes()
}
