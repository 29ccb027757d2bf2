package service

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"unicode/utf8"

	"github.com/kursadbilgin/solar-proposals/internal/provider"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var moneyPrinter = message.NewPrinter(language.MustParse("es-PA"))

func formatMoney(amount float64) string {
	return "$" + moneyPrinter.Sprintf("%v", number.Decimal(amount, number.Scale(2)))
}

func formatKWh(kwh float64) string {
	return moneyPrinter.Sprintf("%v", number.Decimal(kwh, number.MaxFractionDigits(2)))
}

var templateFuncs = map[string]any{
	"money": formatMoney,
	"kwh":   formatKWh,
}

var (
	whatsAppTemplate = texttemplate.Must(texttemplate.New("whatsapp").Funcs(templateFuncs).Parse(
		`¡Hola {{.Name}}! ☀️

Gracias por solicitar tu propuesta de energía solar.
Con un consumo de {{kwh .Consumption}} kWh al mes podrías ahorrar alrededor de {{money .Saving}} mensuales.

Revisa tu propuesta personalizada aquí:
{{.ProposalURL}}

Un asesor te contactará muy pronto para resolver tus dudas.`))

	smsTemplate = texttemplate.Must(texttemplate.New("sms").Parse(
		`Hola{{with .Name}} {{.}}{{end}}, tu propuesta solar esta lista: {{.ProposalURL}}`))

	clientEmailTemplate = htmltemplate.Must(htmltemplate.New("client_email").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2>¡Hola {{.Name}}!</h2>
  <p>Gracias por tu interés en la energía solar. Preparamos una propuesta basada en tu consumo de <strong>{{kwh .Consumption}} kWh</strong> al mes.</p>
  <p>Ahorro mensual estimado: <strong>{{money .EstimatedSaving}}</strong></p>
  <p><a href="{{.ProposalURL}}">Ver mi propuesta</a></p>
  <p>Un asesor se pondrá en contacto contigo pronto.</p>
</body>
</html>`))

	adminEmailTemplate = htmltemplate.Must(htmltemplate.New("admin_email").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2>Nueva solicitud de propuesta</h2>
  <table cellpadding="4">
    <tr><td>Solicitud</td><td>{{.ID}}</td></tr>
    <tr><td>Nombre</td><td>{{.Name}}</td></tr>
    <tr><td>Email</td><td>{{.Email}}</td></tr>
    <tr><td>Teléfono</td><td>{{.Phone}}</td></tr>
    <tr><td>Consumo</td><td>{{kwh .Consumption}} kWh/mes</td></tr>
    <tr><td>Tipo de propiedad</td><td>{{.PropertyType}}</td></tr>
    <tr><td>Provincia</td><td>{{.Province}}</td></tr>
    <tr><td>Fase eléctrica</td><td>{{.ElectricalPhase}}</td></tr>
    <tr><td>Ahorro estimado</td><td>{{money .EstimatedSaving}}</td></tr>
  </table>
  <p><a href="{{.ProposalURL}}">{{.ProposalURL}}</a></p>
</body>
</html>`))
)

type messageTemplateData struct {
	Name        string
	ProposalURL string
	Consumption float64
	Saving      float64
}

// renderInitialMessage returns the long WhatsApp body and the short SMS body.
func renderInitialMessage(msg InitialMessage) (string, string, error) {
	data := messageTemplateData{
		Name:        firstName(msg.Name),
		ProposalURL: msg.ProposalURL,
		Consumption: msg.Consumption,
		Saving:      msg.Saving,
	}

	var long bytes.Buffer
	if err := whatsAppTemplate.Execute(&long, data); err != nil {
		return "", "", fmt.Errorf("failed to render whatsapp message: %w", err)
	}
	short, err := renderSMS(data)
	if err != nil {
		return "", "", fmt.Errorf("failed to render sms message: %w", err)
	}
	return long.String(), short, nil
}

// renderSMS keeps the body within one SMS by shortening the name, so the
// proposal link at the end is never cut.
func renderSMS(data messageTemplateData) (string, error) {
	body, err := executeText(smsTemplate, data)
	if err != nil {
		return "", err
	}

	overflow := utf8.RuneCountInString(body) - provider.MaxSMSBody
	if overflow <= 0 {
		return body, nil
	}

	name := []rune(data.Name)
	keep := len(name) - overflow
	if keep < 0 {
		keep = 0
	}
	data.Name = strings.TrimSpace(string(name[:keep]))
	return executeText(smsTemplate, data)
}

func executeText(tmpl *texttemplate.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(tmpl *htmltemplate.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "Cliente"
	}
	return fields[0]
}
