// Package mailer dispatches templated emails through an external API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-medstore-api/logger"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrDelivery is returned when the mail provider rejects or cannot be reached.
var ErrDelivery = errors.New("mail delivery failed")

// Sender delivers a templated message. params is the template render context.
type Sender interface {
	Send(ctx context.Context, templateID string, params map[string]interface{}) error
}

// EmailJSConfig holds the credentials of the EmailJS REST API.
type EmailJSConfig struct {
	Endpoint   string
	ServiceID  string
	PublicKey  string
	PrivateKey string
	Timeout    time.Duration
}

// EmailJSSender sends mail through the EmailJS REST API.
type EmailJSSender struct {
	cfg    EmailJSConfig
	client *http.Client
}

func NewEmailJSSender(cfg EmailJSConfig) *EmailJSSender {
	return &EmailJSSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type emailJSPayload struct {
	ServiceID      string                 `json:"service_id"`
	TemplateID     string                 `json:"template_id"`
	UserID         string                 `json:"user_id"`
	AccessToken    string                 `json:"accessToken,omitempty"`
	TemplateParams map[string]interface{} `json:"template_params"`
}

func (s *EmailJSSender) Send(ctx context.Context, templateID string, params map[string]interface{}) error {
	body, err := json.Marshal(emailJSPayload{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     templateID,
		UserID:         s.cfg.PublicKey,
		AccessToken:    s.cfg.PrivateKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrDelivery, resp.StatusCode, bytes.TrimSpace(msg))
	}

	logger.Log.WithFields(logrus.Fields{
		"template_id": templateID,
	}).Info("Mail dispatched")
	return nil
}

// LogSender only logs messages. It is used when mail delivery is disabled outside production.
type LogSender struct{}

func (LogSender) Send(_ context.Context, templateID string, params map[string]interface{}) error {
	logger.Log.WithFields(logrus.Fields{
		"template_id": templateID,
		"email":       params["email"],
	}).Info("Email sending is disabled in non-prod environment")
	return nil
}
