package alerts

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/resend/resend-go/v2"
)

// SMTPConfig holds outgoing mail server settings
type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	SkipVerify bool
	From       string
	To         string
}

// SMTPNotifier sends plain-text alert mail over SMTP, using implicit TLS on
// port 465 and STARTTLS elsewhere when offered.
type SMTPNotifier struct {
	Config SMTPConfig
}

func (s *SMTPNotifier) Notify(ctx context.Context, n Notification) error {
	cfg := s.Config
	if cfg.Host == "" || cfg.To == "" {
		return errors.New("SMTP configuration incomplete")
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	msg := buildMessage(from, cfg.To, n)
	host := strings.TrimSpace(cfg.Host)
	addr := net.JoinHostPort(host, fmt.Sprint(cfg.Port))

	c, err := dialSMTP(ctx, addr, host, cfg.Port, cfg.SkipVerify)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("AUTH"); ok && cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Password, host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := c.Rcpt(cfg.To); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return c.Quit()
}

func buildMessage(from, to string, n Notification) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", n.Subject()),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"X-Alert-ID: " + n.ID,
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + strings.ReplaceAll(n.Body(), "\n", "\r\n")
}

func dialSMTP(ctx context.Context, addr, host string, port int, skipVerify bool) (*smtp.Client, error) {
	tlsConfig := &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: skipVerify,
	}

	// Implicit TLS for SMTPS (commonly port 465)
	if port == 465 {
		d := tls.Dialer{Config: tlsConfig}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, host)
	}

	// Plain TCP + STARTTLS if supported
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(tlsConfig); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

// ResendNotifier sends alert mail through the Resend API
type ResendNotifier struct {
	client *resend.Client
	From   string
	To     []string
}

func NewResendNotifier(apiKey, from string, to []string) *ResendNotifier {
	return &ResendNotifier{client: resend.NewClient(apiKey), From: from, To: to}
}

func (r *ResendNotifier) Notify(ctx context.Context, n Notification) error {
	if r.client == nil {
		return errors.New("resend client not initialized")
	}
	if r.From == "" || len(r.To) == 0 {
		return errors.New("resend sender and recipient are required")
	}
	params := &resend.SendEmailRequest{
		From:    r.From,
		To:      r.To,
		Subject: n.Subject(),
		Text:    n.Body(),
		Headers: map[string]string{"X-Alert-ID": n.ID},
		Tags: []resend.Tag{
			{Name: "alert_status", Value: string(n.Status)},
		},
	}
	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
