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

const (
	defaultTwilioBaseURL = "https://api.twilio.com"
	defaultHTTPTimeout   = 10 * time.Second
	whatsAppAddrPrefix   = "whatsapp:"
)

type TwilioConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	// From is the sender number in international format, without any channel prefix.
	From    string
	Timeout time.Duration
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

// TwilioSender sends WhatsApp or SMS messages through the Twilio Messages API.
type TwilioSender struct {
	client     *resty.Client
	channel    Channel
	accountSID string
	from       string
}

func NewTwilioSender(channel Channel, cfg TwilioConfig) (*TwilioSender, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewTwilioSenderWithClient(channel, cfg, client)
}

func NewTwilioSenderWithClient(channel Channel, cfg TwilioConfig, client *resty.Client) (*TwilioSender, error) {
	if channel != ChannelWhatsApp && channel != ChannelSMS {
		return nil, fmt.Errorf("unsupported twilio channel %q", channel)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	accountSID := strings.TrimSpace(cfg.AccountSID)
	if accountSID == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("twilio account sid and auth token are required")
	}
	from := strings.TrimPrefix(strings.TrimSpace(cfg.From), whatsAppAddrPrefix)
	if from == "" {
		return nil, fmt.Errorf("twilio %s sender number is required", channel)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid twilio base url: %w", err)
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultHTTPTimeout)
	}
	client.SetRetryCount(0)
	client.SetBaseURL(baseURL)
	client.SetBasicAuth(accountSID, strings.TrimSpace(cfg.AuthToken))

	return &TwilioSender{
		client:     client,
		channel:    channel,
		accountSID: accountSID,
		from:       from,
	}, nil
}

func (s *TwilioSender) Channel() Channel {
	return s.channel
}

// Send submits body to the international number to and returns the Twilio message SID.
func (s *TwilioSender) Send(ctx context.Context, to string, body string) (*SendResult, error) {
	if s == nil || s.client == nil {
		return nil, errNotInitialized
	}

	to = strings.TrimSpace(to)
	if !strings.HasPrefix(to, "+") {
		return nil, &ChannelSendError{Channel: s.channel, Message: fmt.Sprintf("recipient %q is not in international format", to)}
	}
	if strings.TrimSpace(body) == "" {
		return nil, &ChannelSendError{Channel: s.channel, Message: "message body is empty"}
	}
	if s.channel == ChannelSMS {
		body = truncateRunes(body, MaxSMSBody)
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   s.address(to),
			"From": s.address(s.from),
			"Body": body,
		}).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", url.PathEscape(s.accountSID)))
	if err != nil {
		return nil, &ChannelSendError{
			Channel: s.channel,
			Message: "provider request failed",
			Cause:   err,
		}
	}
	if response == nil {
		return nil, &ChannelSendError{Channel: s.channel, Message: "provider returned empty response"}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		var msg twilioMessage
		if err := json.Unmarshal(response.Body(), &msg); err != nil {
			return nil, &ChannelSendError{
				Channel:    s.channel,
				StatusCode: statusCode,
				Message:    "invalid provider response",
				Cause:      err,
			}
		}
		return &SendResult{StatusCode: statusCode, MessageID: msg.SID}, nil
	}

	return nil, twilioSendError(s.channel, statusCode, response.Body())
}

func (s *TwilioSender) address(number string) string {
	if s.channel == ChannelWhatsApp {
		return whatsAppAddrPrefix + number
	}
	return number
}

func twilioSendError(channel Channel, statusCode int, body []byte) *ChannelSendError {
	sendErr := &ChannelSendError{Channel: channel, StatusCode: statusCode}

	var apiErr twilioError
	if err := json.Unmarshal(body, &apiErr); err == nil && strings.TrimSpace(apiErr.Message) != "" {
		sendErr.Code = apiErr.Code
		sendErr.Message = apiErr.Message
		return sendErr
	}

	sendErr.Message = strings.TrimSpace(string(body))
	if sendErr.Message == "" {
		sendErr.Message = http.StatusText(statusCode)
	}
	return sendErr
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

var _ MessageSender = (*TwilioSender)(nil)
