package server

import (
	"net/http"

	"golang.org/x/text/language"
)

// Message keys for client-facing strings.
type messageKey int

const (
	msgSuccess messageKey = iota
	msgInvalidBody
	msgInvalidPhone
	msgMissingFields
	msgConsentRequired
	msgInternal
	msgRateLimited
)

// The landing page is German-first; English is served to browsers that
// prefer it. Internal detail never leaks through these strings.
var messages = map[language.Tag]map[messageKey]string{
	language.German: {
		msgSuccess:         "Vielen Dank für deine Anfrage! Wir melden uns schnellstmöglich bei dir.",
		msgInvalidBody:     "Die Anfrage konnte nicht verarbeitet werden. Bitte versuche es erneut.",
		msgInvalidPhone:    "Bitte gib eine gültige deutsche Telefonnummer an.",
		msgMissingFields:   "Bitte fülle alle Pflichtfelder aus.",
		msgConsentRequired: "Bitte bestätige, dass wir dich kontaktieren dürfen.",
		msgInternal:        "Es ist ein Fehler aufgetreten. Bitte versuche es später erneut.",
		msgRateLimited:     "Zu viele Anfragen. Bitte versuche es später erneut.",
	},
	language.English: {
		msgSuccess:         "Thank you for your inquiry! We will get back to you as soon as possible.",
		msgInvalidBody:     "The request could not be processed. Please try again.",
		msgInvalidPhone:    "Please provide a valid German phone number.",
		msgMissingFields:   "Please fill in all required fields.",
		msgConsentRequired: "Please confirm that we may contact you.",
		msgInternal:        "Something went wrong. Please try again later.",
		msgRateLimited:     "Too many requests. Please try again later.",
	},
}

// matcher prefers German, the page's native language.
var matcher = language.NewMatcher([]language.Tag{
	language.German,
	language.English,
})

// localize picks the best supported language for the request.
func localize(r *http.Request, key messageKey) string {
	tag, _ := language.MatchStrings(matcher, r.Header.Get("Accept-Language"))
	base := tag
	// Match results carry region/confidence variants; reduce to the
	// supported base tags used as map keys.
	switch {
	case tagIs(base, language.English):
		return messages[language.English][key]
	default:
		return messages[language.German][key]
	}
}

func tagIs(tag, want language.Tag) bool {
	for ; !tag.IsRoot(); tag = tag.Parent() {
		if tag == want {
			return true
		}
	}
	return false
}
