package mailer

import (
	"context"
	"strings"

	"elapor/pkg/logger"

	"github.com/google/uuid"
)

// LogProvider logs mail instead of sending it
type LogProvider struct{}

// NewLogProvider creates a log-only provider
func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

// Name provider name
func (l *LogProvider) Name() string {
	return "log"
}

// Send logs msg and returns a fake message id
func (l *LogProvider) Send(_ context.Context, msg Message) (SendResult, error) {
	id := "log-" + uuid.New().String()
	logger.Info("[Notify] Mail not sent (log provider) to=%s subject=%q id=%s", strings.Join(msg.To, ", "), msg.Subject, id)
	logger.Debug("[Notify] Mail body: %s", msg.HTML)
	return SendResult{ProviderMessageID: id}, nil
}

// NewProvider picks the provider named in configuration
func NewProvider(name, apiKey string) Provider {
	if name == "resend" && apiKey != "" {
		return NewResendProvider(apiKey)
	}
	if name == "resend" {
		logger.Warn("[Notify] mail.provider is resend but no api_key is set, falling back to log")
	}
	return NewLogProvider()
}
