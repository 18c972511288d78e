package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

func TestSettingsFromCompany(t *testing.T) {
	company := &model.Company{
		RUC:      "1790012345001",
		Settings: `{"smtp_host":"smtp.andina.ec","smtp_user":"facturas@andina.ec","smtp_password":"secret"}`,
	}

	settings, err := SettingsFromCompany(company)
	require.NoError(t, err)

	assert.Equal(t, "smtp.andina.ec", settings.Host)
	assert.Equal(t, 587, settings.Port, "port defaults when unset")
	assert.Equal(t, "facturas@andina.ec", settings.From, "from falls back to user")
}

func TestSettingsFromCompany_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		settings string
	}{
		{"empty", ""},
		{"not json", "{"},
		{"missing host", `{"smtp_user":"x@y.ec"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SettingsFromCompany(&model.Company{RUC: "1790012345001", Settings: tt.settings})
			assert.Error(t, err)
		})
	}
}

func TestSender_Send(t *testing.T) {
	var sent *gomail.Message
	sender := NewSender(nil)
	sender.dial = func(_ SMTPSettings, msg *gomail.Message) error {
		sent = msg
		return nil
	}

	err := sender.Send(SMTPSettings{Host: "smtp.andina.ec", Port: 587, User: "x", From: "facturas@andina.ec"},
		Notification{
			To:          "cliente@example.com",
			RazonSocial: "Andina Cia Ltda",
			Numero:      "001-001-000000123",
			ClaveAcceso: "1807202601179001234500110010010000001231234567815",
		})
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.Equal(t, []string{"cliente@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"facturas@andina.ec"}, sent.GetHeader("From"))
}

func TestSender_Send_NoRecipient(t *testing.T) {
	sender := NewSender(nil)
	err := sender.Send(SMTPSettings{Host: "smtp.andina.ec"}, Notification{})
	assert.Error(t, err)
}
