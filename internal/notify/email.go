package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"

	"github.com/resend/resend-go/v2"
)

// Sender is the part of the Resend client used for delivery.
type Sender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer sends the operator summary and a copy to every guest that
// left an email address.
type ResendMailer struct {
	Emails   Sender
	From     string
	Operator string
	Logger   *logger.Logger

	summary *template.Template
	guest   *template.Template
}

func NewResendMailer(apiKey, from, operator string, log *logger.Logger) *ResendMailer {
	client := resend.NewClient(apiKey)
	return NewMailer(client.Emails, from, operator, log)
}

func NewMailer(sender Sender, from, operator string, log *logger.Logger) *ResendMailer {
	if log == nil {
		log = logger.Discard()
	}
	return &ResendMailer{
		Emails:   sender,
		From:     from,
		Operator: operator,
		Logger:   log,
		summary:  template.Must(template.New("summary").Parse(summaryTemplate)),
		guest:    template.Must(template.New("guest").Parse(guestTemplate)),
	}
}

type messageData struct {
	ControlNumber     string
	ReservationNumber string
	Guests            []models.GuestInfo
	Guest             models.GuestInfo
	Count             int
	Max               int
}

// SendSubmissionConfirmation attempts every message and returns the joined
// failures.
func (m *ResendMailer) SendSubmissionConfirmation(ctx context.Context, controlNumber string, data models.ControlNumberData) error {
	base := messageData{
		ControlNumber:     controlNumber,
		ReservationNumber: data.ReservationNumber,
		Guests:            data.GuestInfo,
		Count:             len(data.GuestInfo),
		Max:               data.MaxGuests,
	}

	var errs []error
	if m.Operator == "" {
		metrics.Emails.WithLabelValues(metrics.OutcomeSkipped).Inc()
	} else {
		subject := fmt.Sprintf("RSVP received: %s (%d guests)", controlNumber, base.Count)
		if err := m.send(ctx, m.Operator, subject, m.summary, base); err != nil {
			errs = append(errs, fmt.Errorf("operator summary: %w", err))
		}
	}

	for _, g := range data.GuestInfo {
		if strings.TrimSpace(g.Email) == "" {
			continue
		}
		msg := base
		msg.Guest = g
		if err := m.send(ctx, g.Email, "Your RSVP is confirmed", m.guest, msg); err != nil {
			errs = append(errs, fmt.Errorf("guest %s: %w", g.Email, err))
		}
	}
	return errors.Join(errs...)
}

func (m *ResendMailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data messageData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}

	resp, err := m.Emails.Send(&resend.SendEmailRequest{
		From:    m.From,
		To:      []string{to},
		Subject: subject,
		Html:    body.String(),
	})
	if err != nil {
		metrics.Emails.WithLabelValues(metrics.OutcomeFailed).Inc()
		return err
	}
	metrics.Emails.WithLabelValues(metrics.OutcomeSent).Inc()
	id := ""
	if resp != nil {
		id = resp.Id
	}
	m.Logger.Info("EMAIL", fmt.Sprintf("Sent %q to %s (id=%s)", subject, to, id))
	return nil
}

// NopMailer is used when no email API key is configured.
type NopMailer struct {
	Logger *logger.Logger
}

func (n NopMailer) SendSubmissionConfirmation(_ context.Context, controlNumber string, _ models.ControlNumberData) error {
	metrics.Emails.WithLabelValues(metrics.OutcomeSkipped).Inc()
	if n.Logger != nil {
		n.Logger.Debug("EMAIL", fmt.Sprintf("Email disabled, skipping confirmation for %s", controlNumber))
	}
	return nil
}

const summaryTemplate = `<h2>New RSVP submission</h2>
<p>Control number <strong>{{.ControlNumber}}</strong> (reservation {{.ReservationNumber}}) confirmed {{.Count}} of {{.Max}} seats.</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Name</th><th>Age</th><th>Email</th><th>Address</th></tr>
{{range $g := .Guests}}<tr><td>{{$g.FullName}}</td><td>{{if $g.Age}}{{$g.Age}}{{end}}</td><td>{{$g.Email}}</td><td>{{$g.Address}}</td></tr>
{{end}}</table>`

const guestTemplate = `<p>Hi {{.Guest.FullName}},</p>
<p>Thank you for confirming. Your reservation <strong>{{.ControlNumber}}</strong> is registered for {{.Count}} guest(s):</p>
<ul>{{range .Guests}}<li>{{.FullName}}</li>{{end}}</ul>
<p>We look forward to celebrating with you.</p>`
