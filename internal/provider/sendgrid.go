package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

type SendGridConfig struct {
	BaseURL string
	APIKey  string
	From    EmailAddress
	Timeout time.Duration
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	ReplyTo          *EmailAddress     `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
}

type personalization struct {
	To []EmailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridErrorResponse struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"errors"`
}

// SendGridSender delivers transactional email through the SendGrid v3 mail send API.
type SendGridSender struct {
	client *resty.Client
	from   EmailAddress
}

func NewSendGridSender(cfg SendGridConfig) (*SendGridSender, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewSendGridSenderWithClient(cfg, client)
}

func NewSendGridSenderWithClient(cfg SendGridConfig, client *resty.Client) (*SendGridSender, error) {
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.From.Email) == "" {
		return nil, fmt.Errorf("sendgrid from email is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultSendGridBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid sendgrid base url: %w", err)
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultHTTPTimeout)
	}
	client.SetRetryCount(0)
	client.SetBaseURL(baseURL)
	client.SetAuthToken(strings.TrimSpace(cfg.APIKey))

	return &SendGridSender{
		client: client,
		from: EmailAddress{
			Email: strings.TrimSpace(cfg.From.Email),
			Name:  strings.TrimSpace(cfg.From.Name),
		},
	}, nil
}

func (s *SendGridSender) SendEmail(ctx context.Context, msg EmailMessage) (*SendResult, error) {
	if s == nil || s.client == nil {
		return nil, errNotInitialized
	}

	msg.To.Email = strings.TrimSpace(msg.To.Email)
	msg.Subject = strings.TrimSpace(msg.Subject)
	if msg.To.Email == "" {
		return nil, &ChannelSendError{Channel: ChannelEmail, Message: "recipient email is required"}
	}
	if msg.Subject == "" {
		return nil, &ChannelSendError{Channel: ChannelEmail, Message: "subject is required"}
	}

	contents := make([]mailContent, 0, 2)
	if text := strings.TrimSpace(msg.Text); text != "" {
		contents = append(contents, mailContent{Type: "text/plain", Value: text})
	}
	if html := strings.TrimSpace(msg.HTML); html != "" {
		contents = append(contents, mailContent{Type: "text/html", Value: html})
	}
	if len(contents) == 0 {
		return nil, &ChannelSendError{Channel: ChannelEmail, Message: "text or html content is required"}
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{To: []EmailAddress{msg.To}}},
		From:             s.from,
		ReplyTo:          msg.ReplyTo,
		Subject:          msg.Subject,
		Content:          contents,
		Categories:       msg.Categories,
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(wire).
		Post("/v3/mail/send")
	if err != nil {
		return nil, &ChannelSendError{
			Channel: ChannelEmail,
			Message: "provider request failed",
			Cause:   err,
		}
	}
	if response == nil {
		return nil, &ChannelSendError{Channel: ChannelEmail, Message: "provider returned empty response"}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResult{
			StatusCode: statusCode,
			MessageID:  strings.TrimSpace(response.Header().Get("X-Message-Id")),
		}, nil
	}

	return nil, sendGridSendError(statusCode, response.Body())
}

func sendGridSendError(statusCode int, body []byte) *ChannelSendError {
	sendErr := &ChannelSendError{Channel: ChannelEmail, StatusCode: statusCode}

	var apiErr sendGridErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
		sendErr.Message = strings.TrimSpace(apiErr.Errors[0].Message)
	}
	if sendErr.Message == "" {
		sendErr.Message = strings.TrimSpace(string(body))
	}
	if sendErr.Message == "" {
		sendErr.Message = http.StatusText(statusCode)
	}
	return sendErr
}

var _ EmailSender = (*SendGridSender)(nil)
