// Package notify delivers verification emails over SMTP.
package notify

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/wneessen/go-mail"
)

const subject = "Confirm your email"

var verifyTemplate = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hi {{.DisplayName}},</p>
<p>Thanks for signing up. Confirm your email address to start using your contacts.</p>
<p><a href="{{.Link}}">Confirm email</a></p>
<p>If the button does not work, paste this address into your browser:<br>{{.Link}}</p>
</body>
</html>
`))

type templateData struct {
	DisplayName string
	Link        string
}

// sender is the part of *mail.Client the notifier uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// PublicURL is the externally reachable base of the API.
	PublicURL string
	// Attempts bounds delivery tries, including the first.
	Attempts uint64
	Backoff  time.Duration
}

// SMTPNotifier sends confirmation links. It satisfies contactAuth.Notifier.
type SMTPNotifier struct {
	client   sender
	from     string
	fromName string
	base     string
	attempts uint64
	backoff  time.Duration
}

func NewSMTPNotifier(cfg Config) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("SMTP_CLIENT_INVALID").With("host", cfg.Host).Wrap(err)
	}
	return newNotifier(client, cfg)
}

func newNotifier(client sender, cfg Config) (*SMTPNotifier, error) {
	if cfg.From == "" {
		return nil, oops.Code("SMTP_CLIENT_INVALID").Errorf("from address is required")
	}
	if _, err := url.Parse(cfg.PublicURL); err != nil || cfg.PublicURL == "" {
		return nil, oops.Code("SMTP_CLIENT_INVALID").With("public_url", cfg.PublicURL).Errorf("public url is invalid")
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 1
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &SMTPNotifier{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
		base:     strings.TrimRight(cfg.PublicURL, "/"),
		attempts: attempts,
		backoff:  backoff,
	}, nil
}

// ConfirmLink returns the URL a recipient follows to confirm their email.
func (n *SMTPNotifier) ConfirmLink(token string) string {
	return n.base + "/api/auth/confirmed_email/" + url.PathEscape(token)
}

// SendVerificationEmail renders and sends the confirmation message. Temporary
// SMTP failures are retried with exponential backoff.
func (n *SMTPNotifier) SendVerificationEmail(ctx context.Context, email, displayName, verifyToken string) error {
	msg, err := n.message(email, displayName, verifyToken)
	if err != nil {
		return err
	}

	b := retry.WithMaxRetries(n.attempts-1, retry.NewExponential(n.backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
			if permanent(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("VERIFICATION_EMAIL_FAILED").With("email", email).Wrap(err)
	}
	return nil
}

func (n *SMTPNotifier) message(email, displayName, verifyToken string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(n.fromName, n.from); err != nil {
		return nil, oops.Code("VERIFICATION_EMAIL_INVALID").With("from", n.from).Wrap(err)
	}
	if err := msg.To(email); err != nil {
		return nil, oops.Code("VERIFICATION_EMAIL_INVALID").With("email", email).Wrap(err)
	}
	msg.Subject(subject)

	link := n.ConfirmLink(verifyToken)
	body, err := renderBody(displayName, link)
	if err != nil {
		return nil, oops.Code("VERIFICATION_EMAIL_INVALID").Wrap(err)
	}
	msg.SetBodyString(mail.TypeTextHTML, body)
	msg.AddAlternativeString(mail.TypeTextPlain, "Hi "+displayName+",\n\nConfirm your email: "+link+"\n")
	return msg, nil
}

func renderBody(displayName, link string) (string, error) {
	var buf bytes.Buffer
	if err := verifyTemplate.Execute(&buf, templateData{DisplayName: displayName, Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func permanent(err error) bool {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		return !sendErr.IsTemp()
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
