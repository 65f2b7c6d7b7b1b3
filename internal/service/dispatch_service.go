package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/observability"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
	"github.com/Ycandido0119/gcse-progress-tracker/pkg/mail"
)

// displayCap bounds how many alerts appear in one digest email. The true
// total is always reported alongside.
const displayCap = 10

const textEmailTemplate = `Hello {{.ParentName}},

{{if eq .TotalCount 1}}There is 1 new alert about your child's study progress:{{else}}There are {{.TotalCount}} new alerts about your children's study progress:{{end}}

{{range .Alerts}}* [{{.Severity}}] {{.Title}}
  {{.Message}}

{{end}}{{if .Truncated}}(Showing the {{len .Alerts}} most recent of {{.TotalCount}} alerts.)

{{end}}View the full dashboard: {{.DashboardURL}}
Manage alert preferences: {{.PreferencesURL}}
`

const htmlEmailTemplate = `<html>
<body>
<p>Hello {{.ParentName}},</p>
{{if eq .TotalCount 1}}<p>There is 1 new alert about your child's study progress:</p>{{else}}<p>There are {{.TotalCount}} new alerts about your children's study progress:</p>{{end}}
<ul>
{{range .Alerts}}<li><strong>{{.Title}}</strong><br>{{.Message}}</li>
{{end}}</ul>
{{if .Truncated}}<p><em>Showing the {{len .Alerts}} most recent of {{.TotalCount}} alerts.</em></p>{{end}}
<p><a href="{{.DashboardURL}}">View the full dashboard</a> &middot; <a href="{{.PreferencesURL}}">Manage alert preferences</a></p>
</body>
</html>
`

type digestAlert struct {
	Severity string
	Title    string
	Message  string
}

type digestContext struct {
	ParentName     string
	Alerts         []digestAlert
	TotalCount     int
	Truncated      bool
	DashboardURL   string
	PreferencesURL string
}

// DispatchService batches unsent alerts into digest emails, honouring each
// parent's frequency preference.
type DispatchService interface {
	// DispatchAll processes every parent with email notifications enabled and
	// returns the number of emails sent. Transport failures are logged and
	// isolated per recipient; they never abort the batch.
	DispatchAll(ctx context.Context) (int, error)
}

type dispatchService struct {
	profiles repository.ProfileRepository
	alerts   repository.AlertRepository
	mailer   mail.Mailer
	siteURL  string
	textTmpl *texttemplate.Template
	htmlTmpl *template.Template
	sanitize *bluemonday.Policy
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDispatchService wires the dispatcher. siteURL is the public base URL
// used for dashboard links in the digest.
func NewDispatchService(
	profiles repository.ProfileRepository,
	alerts repository.AlertRepository,
	mailer mail.Mailer,
	siteURL string,
	logger zerolog.Logger,
) DispatchService {
	return &dispatchService{
		profiles: profiles,
		alerts:   alerts,
		mailer:   mailer,
		siteURL:  strings.TrimRight(siteURL, "/"),
		textTmpl: texttemplate.Must(texttemplate.New("digest").Parse(textEmailTemplate)),
		htmlTmpl: template.Must(template.New("digest").Parse(htmlEmailTemplate)),
		sanitize: bluemonday.StrictPolicy(),
		logger:   logger.With().Str("component", "dispatch_service").Logger(),
		now:      time.Now,
	}
}

func (s *dispatchService) DispatchAll(ctx context.Context) (int, error) {
	parents, err := s.profiles.ListParentsWithPreference(ctx, "email_notifications")
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, parent := range parents {
		ok, err := s.dispatchOne(ctx, parent)
		if err != nil {
			// Per-recipient isolation: log and move on.
			s.logger.Error().Err(err).
				Uint("parent_id", parent.ID).
				Str("email", parent.Email).
				Msg("failed to dispatch alert digest")
			observability.AlertEmailsFailed().Inc()
			continue
		}
		if ok {
			sent++
		}
	}

	return sent, nil
}

func (s *dispatchService) dispatchOne(ctx context.Context, parent models.UserProfile) (bool, error) {
	unsent, err := s.alerts.ListUnsentForParent(ctx, parent.ID)
	if err != nil {
		return false, err
	}
	if len(unsent) == 0 {
		return false, nil
	}

	if !s.shouldSend(parent) {
		s.logger.Debug().
			Uint("parent_id", parent.ID).
			Str("frequency", parent.AlertFrequency).
			Int("pending", len(unsent)).
			Msg("dispatch deferred by frequency preference")
		return false, nil
	}

	if parent.Email == "" {
		return false, nil
	}

	msg, err := s.render(parent, unsent)
	if err != nil {
		return false, err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return false, err
	}

	// Only after transport success: flip sent flags and record the dispatch.
	now := s.now()
	ids := make([]uint, 0, len(unsent))
	for _, alert := range unsent {
		ids = append(ids, alert.ID)
	}
	if err := s.alerts.MarkSent(ctx, ids, now); err != nil {
		return false, err
	}
	if err := s.profiles.UpdateLastAlertSent(ctx, parent.ID, now); err != nil {
		return false, err
	}

	observability.AlertEmailsSent().Inc()
	s.logger.Info().
		Uint("parent_id", parent.ID).
		Int("alert_count", len(unsent)).
		Msg("alert digest sent")

	return true, nil
}

// shouldSend applies the frequency gate. Unknown frequencies never send.
func (s *dispatchService) shouldSend(parent models.UserProfile) bool {
	switch parent.AlertFrequency {
	case models.FrequencyImmediate:
		return true
	case models.FrequencyDaily:
		return parent.LastAlertSent == nil || s.now().Sub(*parent.LastAlertSent) >= 24*time.Hour
	case models.FrequencyWeekly:
		return parent.LastAlertSent == nil || s.now().Sub(*parent.LastAlertSent) >= 7*24*time.Hour
	}
	return false
}

func (s *dispatchService) render(parent models.UserProfile, unsent []models.ProgressAlert) (mail.Message, error) {
	display := unsent
	if len(display) > displayCap {
		display = display[:displayCap]
	}

	digest := digestContext{
		ParentName:     parent.FullName,
		Alerts:         make([]digestAlert, 0, len(display)),
		TotalCount:     len(unsent),
		Truncated:      len(unsent) > displayCap,
		DashboardURL:   s.siteURL + "/parent/dashboard",
		PreferencesURL: s.siteURL + "/parent/preferences",
	}
	for _, alert := range display {
		digest.Alerts = append(digest.Alerts, digestAlert{
			Severity: alert.Severity,
			Title:    s.sanitize.Sanitize(alert.Title),
			Message:  s.sanitize.Sanitize(alert.Message),
		})
	}

	var textBody, htmlBody strings.Builder
	if err := s.textTmpl.Execute(&textBody, digest); err != nil {
		return mail.Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := s.htmlTmpl.Execute(&htmlBody, digest); err != nil {
		return mail.Message{}, fmt.Errorf("render html body: %w", err)
	}

	subject := fmt.Sprintf("Study Progress: %d New Alerts", len(unsent))
	if len(unsent) == 1 {
		subject = fmt.Sprintf("Study Alert: %s", unsent[0].Title)
	}

	return mail.Message{
		ToName:   parent.FullName,
		ToEmail:  parent.Email,
		Subject:  subject,
		TextBody: textBody.String(),
		HTMLBody: htmlBody.String(),
	}, nil
}
