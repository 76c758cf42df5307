package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ayurveda-clinic-backend/config"

	"github.com/sirupsen/logrus"
)

const defaultHTTPTimeout = 10 * time.Second

// EmailJSSender posts template emails to the EmailJS REST API.
type EmailJSSender struct {
	endpoint   string
	serviceID  string
	publicKey  string
	privateKey string
	httpClient *http.Client
	log        *logrus.Logger
}

func NewEmailJSSender(cfg config.EmailConfig, httpClient *http.Client, log *logrus.Logger) *EmailJSSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &EmailJSSender{
		endpoint:   cfg.Endpoint,
		serviceID:  cfg.ServiceID,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		httpClient: httpClient,
		log:        log,
	}
}

type emailJSRequest struct {
	ServiceID      string                 `json:"service_id"`
	TemplateID     string                 `json:"template_id"`
	UserID         string                 `json:"user_id"`
	AccessToken    string                 `json:"accessToken,omitempty"`
	TemplateParams map[string]interface{} `json:"template_params"`
}

func (s *EmailJSSender) Send(ctx context.Context, templateID string, params map[string]interface{}) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      s.serviceID,
		TemplateID:     templateID,
		UserID:         s.publicKey,
		AccessToken:    s.privateKey,
		TemplateParams: params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	s.log.Infof("Email sent via EmailJS: template=%s to=%v", templateID, params["to_email"])
	return nil
}

// LogSender only logs emails. It is used when EmailJS is not configured.
type LogSender struct {
	log *logrus.Logger
}

func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, templateID string, params map[string]interface{}) error {
	s.log.WithFields(logrus.Fields{
		"template": templateID,
		"to":       params["to_email"],
	}).Info("Email delivery disabled, logging instead")
	return nil
}
