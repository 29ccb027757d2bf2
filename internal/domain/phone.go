package domain

import "strings"

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizePhone returns phone in international format. Numbers already starting
// with + are returned trimmed but otherwise untouched; bare local numbers get
// countryCode prepended once.
func NormalizePhone(phone, countryCode string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" || strings.HasPrefix(trimmed, "+") {
		return trimmed
	}

	code := strings.TrimSpace(countryCode)
	if !strings.HasPrefix(code, "+") {
		code = "+" + code
	}
	return code + phoneSeparators.Replace(trimmed)
}
