package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kursadbilgin/solar-proposals/internal/provider"
)

func TestRenderInitialMessage(t *testing.T) {
	t.Parallel()

	long, short, err := renderInitialMessage(InitialMessage{
		Name:        "Ana María Pérez",
		ProposalURL: "https://solar.example.com/propuesta/0b7f6d1e-3c55-4e0c-9a55-2f1f3a0f1f7e",
		Consumption: 1000,
		Saving:      175,
	})
	if err != nil {
		t.Fatalf("renderInitialMessage() error = %v", err)
	}

	for _, want := range []string{"Ana", "175", "propuesta/0b7f6d1e-3c55-4e0c-9a55-2f1f3a0f1f7e"} {
		if !strings.Contains(long, want) {
			t.Fatalf("long body missing %q: %q", want, long)
		}
	}
	if strings.Contains(long, "María") {
		t.Fatalf("long body should greet by first name only: %q", long)
	}
	if !strings.Contains(short, "https://solar.example.com/propuesta/") {
		t.Fatalf("short body missing url: %q", short)
	}
	if n := utf8.RuneCountInString(short); n > provider.MaxSMSBody {
		t.Fatalf("short body has %d runes, want <= %d", n, provider.MaxSMSBody)
	}
	if utf8.RuneCountInString(long) <= utf8.RuneCountInString(short) {
		t.Fatal("long form should be longer than the short form")
	}
}

func TestRenderSMSKeepsProposalURL(t *testing.T) {
	t.Parallel()

	url := "https://solar.example.com/propuesta/0b7f6d1e-3c55-4e0c-9a55-2f1f3a0f1f7e"
	tests := []struct {
		name       string
		data       messageTemplateData
		wantPrefix string
	}{
		{
			name:       "short name untouched",
			data:       messageTemplateData{Name: "Ana", ProposalURL: url},
			wantPrefix: "Hola Ana, ",
		},
		{
			name:       "long name shortened",
			data:       messageTemplateData{Name: strings.Repeat("Ñ", 150), ProposalURL: url},
			wantPrefix: "Hola ÑÑÑ",
		},
		{
			name:       "name dropped when the link needs the room",
			data:       messageTemplateData{Name: "Ana", ProposalURL: url + "?ref=" + strings.Repeat("x", 45)},
			wantPrefix: "Hola, ",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body, err := renderSMS(tt.data)
			if err != nil {
				t.Fatalf("renderSMS() error = %v", err)
			}
			if n := utf8.RuneCountInString(body); n > provider.MaxSMSBody {
				t.Fatalf("body has %d runes, want <= %d: %q", n, provider.MaxSMSBody, body)
			}
			if !strings.HasSuffix(body, tt.data.ProposalURL) {
				t.Fatalf("body should end with the full link: %q", body)
			}
			if !strings.HasPrefix(body, tt.wantPrefix) {
				t.Fatalf("body = %q, want prefix %q", body, tt.wantPrefix)
			}
		})
	}
}

func TestFirstName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Ana Pérez", want: "Ana"},
		{in: "  Luis  ", want: "Luis"},
		{in: "", want: "Cliente"},
	}

	for _, tt := range tests {
		if got := firstName(tt.in); got != tt.want {
			t.Fatalf("firstName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	got := formatMoney(175)
	if !strings.HasPrefix(got, "$") || !strings.Contains(got, "175") {
		t.Fatalf("formatMoney(175) = %q", got)
	}
}
