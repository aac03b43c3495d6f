package emailsvc

import (
	"bytes"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

func TestNewService(t *testing.T) {
	conf := testConf()
	_, ok := NewService(conf, nopLogger{}).(*consoleService)
	assert.True(t, ok)

	conf.Mail.SendgridAPIKey = "SG.key"
	_, ok = NewService(conf, nopLogger{}).(*sendgridService)
	assert.True(t, ok)
}

func TestSendgridBuild(t *testing.T) {
	svc := NewSendgridService(testConf(), nopLogger{}).(*sendgridService)
	msg := core.EmailMessage{
		To:      []mail.Address{{Name: "Ali", Address: "ali@example.com"}},
		Subject: "Welcome",
		BodyStr: "hello",
	}
	require.NoError(t, msg.Attach(bytes.NewBufferString("hi"), "hi.txt"))
	require.NoError(t, msg.Render())

	m := svc.build(msg)
	assert.Equal(t, "noreply@example.com", m.From.Address)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[HRMobile] Welcome", m.Personalizations[0].Subject)
	assert.Equal(t, "ali@example.com", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "hello", m.Content[0].Value)
	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "aGk=", m.Attachments[0].Content)
	assert.Equal(t, "text/plain; charset=utf-8", m.Attachments[0].Type)
}
