// Package mail sends document notification emails with the authorized
// XML and the printable PDF attached. SMTP credentials are configured
// per issuing company.
package mail

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

// SMTPSettings are the per-company mail credentials, stored as a JSON
// blob on the company record
type SMTPSettings struct {
	Host     string `json:"smtp_host"`
	Port     int    `json:"smtp_port"`
	User     string `json:"smtp_user"`
	Password string `json:"smtp_password"`
	From     string `json:"smtp_from"`
}

// SettingsFromCompany decodes the SMTP settings stored on a company
func SettingsFromCompany(company *model.Company) (SMTPSettings, error) {
	var settings SMTPSettings
	if strings.TrimSpace(company.Settings) == "" {
		return settings, fmt.Errorf("company %s has no mail settings", company.RUC)
	}
	if err := json.Unmarshal([]byte(company.Settings), &settings); err != nil {
		return settings, fmt.Errorf("decode mail settings: %w", err)
	}
	if settings.Host == "" || settings.User == "" {
		return settings, fmt.Errorf("company %s mail settings incomplete", company.RUC)
	}
	if settings.Port == 0 {
		settings.Port = 587
	}
	if settings.From == "" {
		settings.From = settings.User
	}
	return settings, nil
}

// Notification is one outbound document email
type Notification struct {
	To          string
	RazonSocial string
	Numero      string
	ClaveAcceso string
	XMLPath     string
	PDFPath     string
}

var bodyTemplate = template.Must(template.New("notification").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <p>Estimado cliente,</p>
  <p>{{.RazonSocial}} pone a su disposici&oacute;n el documento electr&oacute;nico
     <strong>{{.Numero}}</strong>.</p>
  <p>Clave de acceso:<br><code>{{.ClaveAcceso}}</code></p>
  <p>Se adjuntan el comprobante XML autorizado y su representaci&oacute;n impresa.</p>
  <p>Este correo fue generado autom&aacute;ticamente, por favor no responder.</p>
</body>
</html>`))

// Sender delivers notifications over SMTP
type Sender struct {
	logger *zap.Logger
	// dial is swappable in tests
	dial func(settings SMTPSettings, msg *gomail.Message) error
}

// NewSender creates a Sender
func NewSender(logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		logger: logger,
		dial: func(settings SMTPSettings, msg *gomail.Message) error {
			dialer := gomail.NewDialer(settings.Host, settings.Port, settings.User, settings.Password)
			return dialer.DialAndSend(msg)
		},
	}
}

// Send builds and delivers one notification
func (s *Sender) Send(settings SMTPSettings, notification Notification) error {
	if notification.To == "" {
		return fmt.Errorf("notification has no recipient")
	}

	var body strings.Builder
	if err := bodyTemplate.Execute(&body, notification); err != nil {
		return fmt.Errorf("render mail body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", settings.From)
	msg.SetHeader("To", notification.To)
	msg.SetHeader("Subject", fmt.Sprintf("Documento electrónico %s", notification.Numero))
	msg.SetBody("text/html", body.String())
	if notification.XMLPath != "" {
		msg.Attach(notification.XMLPath)
	}
	if notification.PDFPath != "" {
		msg.Attach(notification.PDFPath)
	}

	if err := s.dial(settings, msg); err != nil {
		s.logger.Error("mail delivery failed",
			zap.String("to", notification.To),
			zap.String("clave_acceso", notification.ClaveAcceso),
			zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}

	s.logger.Info("notification sent",
		zap.String("to", notification.To),
		zap.String("clave_acceso", notification.ClaveAcceso))
	return nil
}
