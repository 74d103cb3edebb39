package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
)

// Message an outgoing email
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// SendResult provider response
type SendResult struct {
	ProviderMessageID string
}

// Provider sends mail through one backend
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// Mailer renders named templates and hands messages to the provider
type Mailer struct {
	provider    Provider
	fromAddress string

	mu        sync.RWMutex
	templates map[string]*template.Template
}

// New creates a Mailer with the built-in templates registered
func New(provider Provider, fromAddress string) *Mailer {
	m := &Mailer{
		provider:    provider,
		fromAddress: fromAddress,
		templates:   make(map[string]*template.Template),
	}
	for name, content := range builtinTemplates {
		template.Must(m.parse(name, content))
	}
	return m
}

// AddTemplate registers or replaces a named HTML template
func (m *Mailer) AddTemplate(name, content string) error {
	_, err := m.parse(name, content)
	return err
}

func (m *Mailer) parse(name, content string) (*template.Template, error) {
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	m.mu.Lock()
	m.templates[name] = tmpl
	m.mu.Unlock()
	return tmpl, nil
}

// Render executes a named template
func (m *Mailer) Render(name string, data interface{}) (string, error) {
	m.mu.RLock()
	tmpl, ok := m.templates[name]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Send sends msg, filling From with the default sender when empty
func (m *Mailer) Send(ctx context.Context, msg Message) (SendResult, error) {
	if msg.From == "" {
		msg.From = m.fromAddress
	}
	return m.provider.Send(ctx, msg)
}

// SendTemplate renders name with data and sends it to a single recipient
func (m *Mailer) SendTemplate(ctx context.Context, to, subject, name string, data interface{}) (SendResult, error) {
	html, err := m.Render(name, data)
	if err != nil {
		return SendResult{}, err
	}
	return m.Send(ctx, Message{
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
}

// ProviderName name of the configured provider
func (m *Mailer) ProviderName() string {
	return m.provider.Name()
}
