package emailsvc

import (
	"bytes"
	"log"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enghaven/portal/core"
)

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "English Haven",
		DefaultFromEmail: mail.Address{Name: "English Haven", Address: "noreply@englishhaven.com"},
		Sendgrid:         core.SendgridConfig{APIKey: "sg-key"},
	}
}

func TestConsoleService_format(t *testing.T) {
	var buf bytes.Buffer
	svc := NewConsoleService(testConfig(), log.New(&buf, "", 0)).(*consoleService)

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Ali", Address: "ali@test.pk"}},
		Subject: "Enrollment confirmed",
		Body:    "Hi Ali",
	}
	require.True(t, svc.sendMessage(msg))

	out := buf.String()
	assert.Contains(t, out, `From: "English Haven" <noreply@englishhaven.com>`)
	assert.Contains(t, out, "Subject: [English Haven] Enrollment confirmed")
	assert.Contains(t, out, `To: "Ali" <ali@test.pk>`)
	assert.Contains(t, out, "Hi Ali")
	assert.NotContains(t, out, "CC:")
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock()
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "a@test.pk"}}, Subject: "ok", Body: "body"},
		&core.EmailMessage{Subject: "no recipient", Body: "body"},
		&core.EmailMessage{To: []mail.Address{{Address: "b@test.pk"}}, Subject: "no content"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ok", sent[0].Subject)
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConfig(), nil).(*sendgridService)
	m := svc.prepare(core.EmailMessage{
		To:      []mail.Address{{Name: "Ali", Address: "ali@test.pk"}},
		Cc:      []mail.Address{{Address: "cc@test.pk"}},
		Subject: "Payment received",
		Body:    "Thanks",
	})

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[English Haven] Payment received", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "ali@test.pk", p.To[0].Address)
	require.Len(t, p.CC, 1)
	assert.Equal(t, "noreply@englishhaven.com", m.From.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.True(t, strings.Contains(m.Content[0].Value, "Thanks"))
}

func TestNewService(t *testing.T) {
	conf := testConfig()
	std := log.New(&bytes.Buffer{}, "", 0)

	conf.Debug = true
	assert.IsType(t, &consoleService{}, NewService(conf, nil, std))

	conf.Debug = false
	assert.IsType(t, &sendgridService{}, NewService(conf, nil, std))

	conf.Sendgrid.APIKey = ""
	assert.IsType(t, &consoleService{}, NewService(conf, nil, std))
}
