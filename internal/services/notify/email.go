package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"speedguard/internal/config"
	"speedguard/internal/model"
	"speedguard/internal/repository"
)

// ErrNotConfigured is returned when no sender or receiver is known.
var ErrNotConfigured = errors.New("email not configured")

// EmailConfigSource returns the mailbox configuration stored at runtime.
type EmailConfigSource interface {
	Get(ctx context.Context) (*model.EmailConfig, error)
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier sends violation alerts over SMTP with STARTTLS.
// The stored email_config row wins over the environment defaults.
type EmailNotifier struct {
	defaults config.EmailConfig
	source   EmailConfigSource
	dial     func(host string, port int, username, password string) (mailSender, error)
}

func NewEmailNotifier(defaults config.EmailConfig, source EmailConfigSource) *EmailNotifier {
	return &EmailNotifier{
		defaults: defaults,
		source:   source,
		dial:     dialSMTP,
	}
}

func dialSMTP(host string, port int, username, password string) (mailSender, error) {
	return mail.NewClient(host,
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	)
}

// Subject returns the alert subject line.
func Subject(status model.Status) string {
	return fmt.Sprintf("Vehicle Violation Alert: %s", status)
}

// Body returns the plain-text alert body.
func Body(alert model.Alert) string {
	return fmt.Sprintf(`A vehicle violation has been detected:
Number Plate: %s
Speed: %.2f km/h
Status: %s
Time: %s
`, alert.Numberplate, alert.Speed, alert.Status, alert.Time.Format("2006-01-02 15:04:05"))
}

func (n *EmailNotifier) Notify(ctx context.Context, alert model.Alert) error {
	sender, password, receiver, err := n.credentials(ctx)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(sender); err != nil {
		return fmt.Errorf("invalid sender %q: %w", sender, err)
	}
	if err := msg.To(receiver); err != nil {
		return fmt.Errorf("invalid receiver %q: %w", receiver, err)
	}
	msg.Subject(Subject(alert.Status))
	msg.SetBodyString(mail.TypeTextPlain, Body(alert))

	client, err := n.dial(n.defaults.SMTPServer, n.defaults.SMTPPort, sender, password)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) credentials(ctx context.Context) (sender, password, receiver string, err error) {
	sender, password, receiver = n.defaults.Sender, n.defaults.Password, n.defaults.Receiver

	if n.source != nil {
		stored, err := n.source.Get(ctx)
		switch {
		case err == nil:
			sender, password, receiver = stored.SenderEmail, stored.SenderPassword, stored.ReceiverEmail
		case !errors.Is(err, repository.ErrNotFound):
			return "", "", "", fmt.Errorf("failed to load email config: %w", err)
		}
	}

	if sender == "" || receiver == "" {
		return "", "", "", ErrNotConfigured
	}
	return sender, password, receiver, nil
}
