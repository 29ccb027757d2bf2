package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

type capturedTwilioRequest struct {
	path     string
	user     string
	password string
	to       string
	from     string
	body     string
}

func newTwilioServer(t *testing.T, status int, response string, captured *capturedTwilioRequest) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if captured != nil {
			captured.path = r.URL.Path
			captured.user, captured.password, _ = r.BasicAuth()
			captured.to = r.PostForm.Get("To")
			captured.from = r.PostForm.Get("From")
			captured.body = r.PostForm.Get("Body")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
}

func testTwilioConfig(baseURL, from string) TwilioConfig {
	return TwilioConfig{
		BaseURL:    baseURL,
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       from,
	}
}

func TestTwilioSenderWhatsAppSuccess(t *testing.T) {
	t.Parallel()

	var captured capturedTwilioRequest
	server := newTwilioServer(t, http.StatusCreated, `{"sid":"SM-wa-1","status":"queued"}`, &captured)
	defer server.Close()

	sender, err := NewTwilioSender(ChannelWhatsApp, testTwilioConfig(server.URL, "+14155238886"))
	if err != nil {
		t.Fatalf("NewTwilioSender() error = %v", err)
	}

	result, err := sender.Send(context.Background(), "+50761234567", "Hola Ana")
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if result.StatusCode != http.StatusCreated {
		t.Fatalf("StatusCode = %d, want %d", result.StatusCode, http.StatusCreated)
	}
	if result.MessageID != "SM-wa-1" {
		t.Fatalf("MessageID = %q, want %q", result.MessageID, "SM-wa-1")
	}
	if captured.path != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("path = %q", captured.path)
	}
	if captured.user != "AC123" || captured.password != "secret" {
		t.Fatalf("basic auth = %q:%q", captured.user, captured.password)
	}
	if captured.to != "whatsapp:+50761234567" {
		t.Fatalf("To = %q, want whatsapp prefixed number", captured.to)
	}
	if captured.from != "whatsapp:+14155238886" {
		t.Fatalf("From = %q, want whatsapp prefixed number", captured.from)
	}
	if captured.body != "Hola Ana" {
		t.Fatalf("Body = %q, want %q", captured.body, "Hola Ana")
	}
}

func TestTwilioSenderSMSTruncatesBody(t *testing.T) {
	t.Parallel()

	var captured capturedTwilioRequest
	server := newTwilioServer(t, http.StatusCreated, `{"sid":"SM-sms-1"}`, &captured)
	defer server.Close()

	sender, err := NewTwilioSender(ChannelSMS, testTwilioConfig(server.URL, "+15005550006"))
	if err != nil {
		t.Fatalf("NewTwilioSender() error = %v", err)
	}

	long := strings.Repeat("ñ", MaxSMSBody+40)
	if _, err := sender.Send(context.Background(), "+50761234567", long); err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if got := utf8.RuneCountInString(captured.body); got != MaxSMSBody {
		t.Fatalf("body runes = %d, want %d", got, MaxSMSBody)
	}
	if captured.to != "+50761234567" || captured.from != "+15005550006" {
		t.Fatalf("To/From = %q/%q, want plain numbers", captured.to, captured.from)
	}
}

func TestTwilioSenderRejection(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		statusCode int
		response   string
		wantCode   int
		wantMsg    string
		wantReason string
	}{
		{
			name:       "invalid number",
			statusCode: http.StatusBadRequest,
			response:   `{"code":21211,"message":"The 'To' number is not a valid phone number.","more_info":"https://www.twilio.com/docs/errors/21211"}`,
			wantCode:   21211,
			wantMsg:    "not a valid phone number",
			wantReason: "rejected",
		},
		{
			name:       "bad credentials",
			statusCode: http.StatusUnauthorized,
			response:   `{"code":20003,"message":"Authenticate"}`,
			wantCode:   20003,
			wantMsg:    "Authenticate",
			wantReason: "unauthorized",
		},
		{
			name:       "plain text outage",
			statusCode: http.StatusServiceUnavailable,
			response:   "upstream down",
			wantMsg:    "upstream down",
			wantReason: "provider_error",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := newTwilioServer(t, tc.statusCode, tc.response, nil)
			defer server.Close()

			sender, err := NewTwilioSender(ChannelWhatsApp, testTwilioConfig(server.URL, "+14155238886"))
			if err != nil {
				t.Fatalf("NewTwilioSender() error = %v", err)
			}

			_, err = sender.Send(context.Background(), "+50761234567", "hola")
			if err == nil {
				t.Fatal("expected error")
			}

			var sendErr *ChannelSendError
			if !errors.As(err, &sendErr) {
				t.Fatalf("expected ChannelSendError, got %T", err)
			}
			if sendErr.Channel != ChannelWhatsApp {
				t.Fatalf("Channel = %q, want whatsapp", sendErr.Channel)
			}
			if sendErr.StatusCode != tc.statusCode {
				t.Fatalf("StatusCode = %d, want %d", sendErr.StatusCode, tc.statusCode)
			}
			if sendErr.Code != tc.wantCode {
				t.Fatalf("Code = %d, want %d", sendErr.Code, tc.wantCode)
			}
			if !strings.Contains(sendErr.Message, tc.wantMsg) {
				t.Fatalf("Message = %q, want it to contain %q", sendErr.Message, tc.wantMsg)
			}
			if got := FailureReason(err); got != tc.wantReason {
				t.Fatalf("FailureReason() = %q, want %q", got, tc.wantReason)
			}
		})
	}
}

func TestTwilioSenderTimeoutIsUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"late"}`))
	}))
	defer server.Close()

	client := resty.New()
	client.SetTimeout(30 * time.Millisecond)

	sender, err := NewTwilioSenderWithClient(ChannelSMS, testTwilioConfig(server.URL, "+15005550006"), client)
	if err != nil {
		t.Fatalf("NewTwilioSenderWithClient() error = %v", err)
	}

	_, err = sender.Send(context.Background(), "+50761234567", "hola")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if got := FailureReason(err); got != "unreachable" {
		t.Fatalf("FailureReason() = %q, want unreachable (err=%v)", got, err)
	}
}

func TestTwilioSenderRejectsLocalNumbers(t *testing.T) {
	t.Parallel()

	sender, err := NewTwilioSender(ChannelSMS, testTwilioConfig("http://127.0.0.1:1", "+15005550006"))
	if err != nil {
		t.Fatalf("NewTwilioSender() error = %v", err)
	}

	_, err = sender.Send(context.Background(), "61234567", "hola")
	if !IsChannelSendError(err) {
		t.Fatalf("expected ChannelSendError, got %v", err)
	}
}

func TestNewTwilioSenderValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		channel Channel
		cfg     TwilioConfig
	}{
		{name: "email channel", channel: ChannelEmail, cfg: testTwilioConfig("", "+1")},
		{name: "missing sid", channel: ChannelSMS, cfg: TwilioConfig{AuthToken: "x", From: "+1"}},
		{name: "missing from", channel: ChannelSMS, cfg: TwilioConfig{AccountSID: "AC", AuthToken: "x"}},
		{name: "bad base url", channel: ChannelSMS, cfg: testTwilioConfig("::not-a-url", "+1")},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewTwilioSender(tc.channel, tc.cfg); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}
