package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureProvider struct {
	sent []Message
}

func (c *captureProvider) Name() string { return "capture" }

func (c *captureProvider) Send(_ context.Context, msg Message) (SendResult, error) {
	c.sent = append(c.sent, msg)
	return SendResult{ProviderMessageID: "captured"}, nil
}

func TestLogProviderSend(t *testing.T) {
	result, err := NewLogProvider().Send(context.Background(), Message{
		From:    "test@example.com",
		To:      []string{"recipient@example.com"},
		Subject: "Test Subject",
		HTML:    "<p>Test HTML</p>",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.ProviderMessageID, "log-"))
}

func TestMailerUsesDefaultFrom(t *testing.T) {
	provider := &captureProvider{}
	m := New(provider, "default@test.com")

	_, err := m.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "hi"})
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)
	assert.Equal(t, "default@test.com", provider.sent[0].From)

	_, err = m.Send(context.Background(), Message{From: "other@test.com", To: []string{"a@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "other@test.com", provider.sent[1].From)
}

func TestSendTemplateRendersInvite(t *testing.T) {
	provider := &captureProvider{}
	m := New(provider, "noreply@test.com")

	_, err := m.SendTemplate(context.Background(), "new@example.com", "Invitation", TemplateInvite, LinkData{
		Email: "new@example.com",
		Code:  "123456",
		Link:  "https://admin.example.com/accept?token=123456",
	})
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)

	msg := provider.sent[0]
	assert.Equal(t, []string{"new@example.com"}, msg.To)
	assert.Contains(t, msg.HTML, "123456")
	assert.Contains(t, msg.HTML, "https://admin.example.com/accept?token=123456")
}

func TestRenderUnknownTemplate(t *testing.T) {
	m := New(&captureProvider{}, "")
	_, err := m.Render("missing", nil)
	assert.Error(t, err)
}

func TestNewProviderFallsBackToLog(t *testing.T) {
	assert.Equal(t, "log", NewProvider("resend", "").Name())
	assert.Equal(t, "log", NewProvider("log", "key").Name())
	assert.Equal(t, "resend", NewProvider("resend", "re_test").Name())
}
