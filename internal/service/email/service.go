package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/voltgrid/console/internal/domain"
)

// Provider defines the interface for email providers
type Provider interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

// Config holds email service configuration
type Config struct {
	// Provider type: "sendgrid" or "smtp"
	Provider string

	// From email address
	FromEmail string
	FromName  string

	// SendGrid configuration
	SendGridAPIKey string

	// SMTP configuration (for Mailhog or other SMTP servers)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool

	// Base URL for links in emails
	BaseURL string
}

// DefaultConfig returns a default configuration for development (Mailhog)
func DefaultConfig() *Config {
	return &Config{
		Provider:   "smtp",
		FromEmail:  "noreply@voltgrid.io",
		FromName:   "VoltGrid Console",
		SMTPHost:   "localhost",
		SMTPPort:   1025, // Mailhog default port
		SMTPUseTLS: false,
		BaseURL:    "http://localhost:3000",
	}
}

// Service sends operator-facing mail, primarily the on-demand report digest.
type Service struct {
	config    *Config
	provider  Provider
	templates map[string]*template.Template
	log       *zap.Logger
}

// NewService creates a new email service
func NewService(config *Config, log *zap.Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
		log:       log,
	}

	switch config.Provider {
	case "sendgrid":
		if config.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SendGrid API key is required")
		}
		s.provider = NewSendGridProvider(config.SendGridAPIKey, config.FromEmail, config.FromName)
	case "smtp":
		s.provider = NewSMTPProvider(
			config.SMTPHost,
			config.SMTPPort,
			config.SMTPUsername,
			config.SMTPPassword,
			config.FromEmail,
			config.FromName,
			config.SMTPUseTLS,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", config.Provider)
	}

	s.loadTemplates()

	return s, nil
}

func (s *Service) loadTemplates() {
	s.templates["report_digest"] = template.Must(template.New("report_digest").Parse(reportDigestTemplate))
}

// Send sends a generic email
func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("Sending email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, body, false); err != nil {
		s.log.Error("Failed to send email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

// SendHTML sends an HTML email
func (s *Service) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	s.log.Info("Sending HTML email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, htmlBody, true); err != nil {
		s.log.Error("Failed to send HTML email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("send HTML email: %w", err)
	}

	return nil
}

// SendReportDigest emails a summary of the given report: totals, the leading
// stations and the current suggestions.
func (s *Service) SendReportDigest(ctx context.Context, to string, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("no report to send")
	}

	topStations := report.StationAggregates
	if len(topStations) > 5 {
		topStations = topStations[:5]
	}

	data := map[string]interface{}{
		"Range":         string(report.Filter.Range),
		"From":          report.Window.From.Format("2006-01-02"),
		"To":            report.Window.To.Format("2006-01-02"),
		"GeneratedAt":   report.GeneratedAt.Format("2006-01-02 15:04"),
		"Degraded":      report.Degraded,
		"TotalRevenue":  fmt.Sprintf("%.2f", report.TotalRevenue),
		"TotalSessions": report.TotalSessions,
		"TotalEnergy":   fmt.Sprintf("%.2f", report.TotalEnergyKWh),
		"TopStations":   topStations,
		"Suggestions":   report.Suggestions,
		"BaseURL":       s.config.BaseURL,
	}

	var buf bytes.Buffer
	if err := s.templates["report_digest"].Execute(&buf, data); err != nil {
		return fmt.Errorf("execute digest template: %w", err)
	}

	subject := fmt.Sprintf("Revenue report digest (%s to %s)", data["From"], data["To"])
	return s.SendHTML(ctx, to, subject, buf.String())
}
