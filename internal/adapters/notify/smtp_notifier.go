package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/core"
)

// SMTPNotifier mails staff a digest of new contacts through a relay
type SMTPNotifier struct {
	address       string
	from          string
	to            []string
	subjectPrefix string
	timeout       time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(host string, port int, from string, to []string, subjectPrefix string, timeout time.Duration, logger *zap.Logger) (*SMTPNotifier, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("smtp notifier needs at least one recipient")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPNotifier{
		address:       net.JoinHostPort(host, fmt.Sprint(port)),
		from:          from,
		to:            to,
		subjectPrefix: subjectPrefix,
		timeout:       timeout,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// NotifyNewContacts implements core.Notifier
func (n *SMTPNotifier) NotifyNewContacts(ctx context.Context, contacts []core.ContactView) error {
	if len(contacts) == 0 {
		return nil
	}
	if err := n.send(ctx, n.message(contacts)); err != nil {
		return err
	}
	n.logger.Info("Sent new contact digest", zap.Int("contacts", len(contacts)), zap.Strings("to", n.to))
	return nil
}

func (n *SMTPNotifier) message(contacts []core.ContactView) []byte {
	subject := fmt.Sprintf("%d contacto(s) nuevo(s)", len(contacts))
	if n.subjectPrefix != "" {
		subject = n.subjectPrefix + " " + subject
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")

	for _, c := range contacts {
		fmt.Fprintf(&b, "Teléfono: %s\r\n", c.Phone)
		fmt.Fprintf(&b, "Último mensaje: %s\r\n", c.LatestRaw)
		fmt.Fprintf(&b, "Mensajes: %d\r\n", c.MessageCount)
		if text := c.LatestText(); text != "" {
			fmt.Fprintf(&b, "> %s\r\n", strings.ReplaceAll(text, "\n", "\r\n> "))
		}
		fmt.Fprintf(&b, "Responder: %s\r\n\r\n", c.ReplyURL)
	}
	return b.Bytes()
}

// deadline is the earlier of the caller's deadline and the configured timeout
func (n *SMTPNotifier) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(n.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func (n *SMTPNotifier) send(ctx context.Context, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	dialer := net.Dialer{Timeout: n.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", n.address)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP relay: %w", err)
	}

	if err := conn.SetDeadline(n.deadline(ctx)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range n.to {
		if err := c.Rcpt(recipient, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// the message is already accepted
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}
