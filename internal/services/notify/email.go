package notify

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ternarybob/valuescreen/internal/interfaces"
)

// SMTPConfig holds the settings for the email sink
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseTLS   bool
	Subject  string
}

// sendFunc delivers a fully built RFC 5322 message
type sendFunc func(ctx context.Context, cfg SMTPConfig, to []string, msg []byte) error

// Email sends the markdown message as a multipart text + HTML email
type Email struct {
	config SMTPConfig
	send   sendFunc
	md     goldmark.Markdown
	logger arbor.ILogger
}

var _ interfaces.MessageSink = (*Email)(nil)

// NewEmail creates an SMTP email sink
func NewEmail(config SMTPConfig, logger arbor.ILogger) *Email {
	if config.Port == 0 {
		config.Port = 587
	}
	if config.Subject == "" {
		config.Subject = "Weekly Value Screener Results"
	}

	return &Email{
		config: config,
		send:   deliver,
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		logger: logger,
	}
}

// Name returns the sink name
func (e *Email) Name() string {
	return "email"
}

// Send mails text to destination, a comma-separated list of addresses.
// Every failure wraps interfaces.ErrMessagingFailure.
func (e *Email) Send(ctx context.Context, destination, text string) error {
	to := splitAddresses(destination)
	if len(to) == 0 {
		return fmt.Errorf("%w: email: no recipients", interfaces.ErrMessagingFailure)
	}
	if e.config.Host == "" || e.config.From == "" {
		return fmt.Errorf("%w: email: SMTP host and from address are required", interfaces.ErrMessagingFailure)
	}

	htmlBody, err := e.renderHTML(text)
	if err != nil {
		return fmt.Errorf("%w: email: %w", interfaces.ErrMessagingFailure, err)
	}

	msg := buildMessage(e.config, to, text, htmlBody)
	if err := e.send(ctx, e.config, to, []byte(msg)); err != nil {
		return fmt.Errorf("%w: email: %w", interfaces.ErrMessagingFailure, err)
	}

	if e.logger != nil {
		e.logger.Info().
			Strs("to", to).
			Str("subject", e.config.Subject).
			Msg("Email sent")
	}

	return nil
}

// renderHTML converts the markdown payload into a minimal HTML document
func (e *Email) renderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"UTF-8\" /></head>\n")
	doc.WriteString("<body style=\"font-family: -apple-system, Segoe UI, Helvetica, Arial, sans-serif;\">\n")
	doc.Write(buf.Bytes())
	doc.WriteString("</body></html>\n")
	return doc.String(), nil
}

func splitAddresses(destination string) []string {
	var out []string
	for _, addr := range strings.Split(destination, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// buildMessage assembles a multipart/alternative message with base64 parts
func buildMessage(cfg SMTPConfig, to []string, textBody, htmlBody string) string {
	boundary := generateBoundary()

	var msg strings.Builder
	if cfg.FromName != "" {
		msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", cfg.FromName, cfg.From))
	} else {
		msg.WriteString(fmt.Sprintf("From: %s\r\n", cfg.From))
	}
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", cfg.Subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	msg.WriteString("\r\n")

	writePart(&msg, boundary, "text/plain", textBody)
	writePart(&msg, boundary, "text/html", htmlBody)

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return msg.String()
}

func writePart(msg *strings.Builder, boundary, contentType, body string) {
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks(body))
	msg.WriteString("\r\n")
}

// generateBoundary creates a unique MIME boundary string
func generateBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "valuescreen_boundary_fallback"
	}
	return fmt.Sprintf("valuescreen_%x", b)
}

// encodeBase64WithLineBreaks encodes content as base64 with 76-char lines (RFC 2045)
func encodeBase64WithLineBreaks(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	var result strings.Builder
	const lineLen = 76

	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		result.WriteString(encoded[i:end])
		if end < len(encoded) {
			result.WriteString("\r\n")
		}
	}

	return result.String()
}

// deliver connects with implicit TLS when configured, falling back to STARTTLS,
// or plain SMTP otherwise
func deliver(ctx context.Context, cfg SMTPConfig, to []string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second}

	if cfg.UseTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: cfg.Host}}
		conn, err := tlsDialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return transmit(ctx, conn, cfg, auth, to, msg, false)
		}
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	return transmit(ctx, conn, cfg, auth, to, msg, cfg.UseTLS)
}

func transmit(ctx context.Context, conn net.Conn, cfg SMTPConfig, auth smtp.Auth, to []string, msg []byte, startTLS bool) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if startTLS {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set mail recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
