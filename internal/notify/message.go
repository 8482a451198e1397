package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"strings"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/model"
)

const crlf = "\r\n"

// boundary separates the plain-text and HTML alternatives. A fixed
// value is fine; message bodies are generated, never user-controlled
// markup.
const boundary = "==land-notify-alt"

var staffHTML = template.Must(template.New("staff").Parse(`<html><body>
<h2>{{if .Fallback}}Neue Anfrage – CRM nicht erreichbar, bitte manuell bearbeiten{{else}}Neue Anfrage über die Landingpage{{end}}</h2>
<table border="1" cellpadding="6" cellspacing="0">
<tr><td><b>Referenz</b></td><td>{{.Lead.Reference}}</td></tr>
<tr><td><b>Name</b></td><td>{{.Lead.Name}}</td></tr>
<tr><td><b>E-Mail</b></td><td>{{.Lead.Email}}</td></tr>
<tr><td><b>Telefon</b></td><td>{{.Lead.Phone}}</td></tr>
<tr><td><b>Hochzeitsdatum</b></td><td>{{if .Lead.WeddingDate}}{{.Lead.WeddingDate}}{{else}}nicht angegeben{{end}}</td></tr>
<tr><td><b>Nachricht</b></td><td>{{.Lead.Message}}</td></tr>
<tr><td><b>Quelle</b></td><td>{{.Lead.Source}}</td></tr>
<tr><td><b>WhatsApp-Einwilligung</b></td><td>{{if .Lead.Consent}}Ja{{else}}Nein{{end}}</td></tr>
</table>
</body></html>`))

var confirmationHTML = template.Must(template.New("confirmation").Parse(`<html><body>
<p>Hallo {{.Name}},</p>
<p>vielen Dank für deine Anfrage! Wir melden uns schnellstmöglich bei dir.</p>
<p><b>Deine Angaben:</b><br>
Hochzeitsdatum: {{if .WeddingDate}}{{.WeddingDate}}{{else}}nicht angegeben{{end}}<br>
Nachricht: {{.Message}}</p>
<p>Bis bald<br>Dein Better Call Henk Team</p>
</body></html>`))

// buildStaffMessage renders the internal notification listing every
// lead field. The fallback variant flags that the CRM write failed and
// the lead exists nowhere else.
func buildStaffMessage(from string, to []string, lead model.Lead, fallback bool) []byte {
	subject := fmt.Sprintf("Neue Anfrage: %s [%s]", lead.Name, lead.Reference)
	if fallback {
		subject = "MANUELL BEARBEITEN: " + subject
	}

	consent := "Nein"
	if lead.Consent {
		consent = "Ja"
	}
	text := fmt.Sprintf(
		"Neue Anfrage über die Landingpage\n\n"+
			"Referenz: %s\nName: %s\nE-Mail: %s\nTelefon: %s\n"+
			"Hochzeitsdatum: %s\nNachricht: %s\nQuelle: %s\nWhatsApp-Einwilligung: %s\n",
		lead.Reference, lead.Name, lead.Email, lead.Phone,
		orUnspecified(lead.WeddingDate), lead.Message, lead.Source, consent,
	)

	var html bytes.Buffer
	// Template execution over a struct of strings cannot fail.
	_ = staffHTML.Execute(&html, struct {
		Lead     model.Lead
		Fallback bool
	}{lead, fallback})

	return assemble(from, to, subject, text, html.String())
}

// buildConfirmationMessage renders the thank-you mail sent to the
// customer on the non-fallback path.
func buildConfirmationMessage(from string, lead model.Lead) []byte {
	subject := "Danke für deine Anfrage!"

	text := fmt.Sprintf(
		"Hallo %s,\n\nvielen Dank für deine Anfrage! Wir melden uns schnellstmöglich bei dir.\n\n"+
			"Deine Angaben:\nHochzeitsdatum: %s\nNachricht: %s\n\nBis bald\nDein Better Call Henk Team\n",
		lead.Name, orUnspecified(lead.WeddingDate), lead.Message,
	)

	var html bytes.Buffer
	_ = confirmationHTML.Execute(&html, lead)

	return assemble(from, []string{lead.Email}, subject, text, html.String())
}

// assemble builds a multipart/alternative message with text and HTML parts.
func assemble(from string, to []string, subject, text, html string) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + crlf)
	b.WriteString("To: " + strings.Join(to, ", ") + crlf)
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + crlf)
	b.WriteString("MIME-Version: 1.0" + crlf)
	b.WriteString(`Content-Type: multipart/alternative; boundary="` + boundary + `"` + crlf)
	b.WriteString(crlf)

	b.WriteString("--" + boundary + crlf)
	b.WriteString("Content-Type: text/plain; charset=utf-8" + crlf + crlf)
	b.WriteString(text + crlf)

	b.WriteString("--" + boundary + crlf)
	b.WriteString("Content-Type: text/html; charset=utf-8" + crlf + crlf)
	b.WriteString(html + crlf)

	b.WriteString("--" + boundary + "--" + crlf)

	return []byte(b.String())
}

func orUnspecified(s string) string {
	if s == "" {
		return "nicht angegeben"
	}
	return s
}
