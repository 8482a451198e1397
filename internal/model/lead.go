package model

// Submission is the raw contact-form payload as posted by the landing
// page. It lives for the duration of one request and is never stored.
type Submission struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	WeddingDate  string `json:"wedding_date"`
	Message      string `json:"message"`
	Website      string `json:"website"`        // honeypot, must stay empty
	FormLoadedAt string `json:"form_loaded_at"` // ms epoch, as reported by the client
	Token        string `json:"recaptcha_token"`
	Source       string `json:"source"`
	Consent      bool   `json:"whatsapp_consent"`
}

// Lead is the screened and validated subset of a Submission that gets
// forwarded to the CRM and the notifier. Construct one only after the
// bot screen returned a human verdict and field validation passed.
type Lead struct {
	Reference   string `json:"reference"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	WeddingDate string `json:"wedding_date,omitempty"`
	Message     string `json:"message"`
	Source      string `json:"source"`
	Consent     bool   `json:"whatsapp_consent"`
}

// Verdict is the outcome of the bot screen.
type Verdict string

const (
	VerdictHuman Verdict = "human"
	VerdictBot   Verdict = "bot"
)

// ScreenResult is the tagged outcome of running a submission through
// the bot screen. Reason is set for bot verdicts; Score is set when
// the verification service returned one.
type ScreenResult struct {
	Verdict Verdict
	Reason  string
	Score   *float64
}

// Human builds a human result with an optional confidence score.
func Human(score *float64) ScreenResult {
	return ScreenResult{Verdict: VerdictHuman, Score: score}
}

// Bot builds a bot result with the check that fired.
func Bot(reason string) ScreenResult {
	return ScreenResult{Verdict: VerdictBot, Reason: reason}
}

// IsBot reports whether the screen flagged the submission as automated.
func (r ScreenResult) IsBot() bool {
	return r.Verdict == VerdictBot
}

// DeliveryStatus describes how far a lead actually travelled, as
// opposed to whether it was accepted for delivery.
type DeliveryStatus string

const (
	// StatusDelivered means the full CRM chain (person, deal, note) exists.
	StatusDelivered DeliveryStatus = "delivered"
	// StatusDeliveredNoNote means person and deal exist but the note failed.
	StatusDeliveredNoNote DeliveryStatus = "delivered_no_note"
	// StatusFallback means the CRM path failed or was unconfigured and the
	// lead went out via the emergency email path instead.
	StatusFallback DeliveryStatus = "fallback"
)

// DeliveryResult separates "accepted for delivery" from "actually
// delivered". Accepted is true in every branch; callers that only care
// about the user-facing outcome read Accepted, the logs read Status.
type DeliveryResult struct {
	Accepted bool
	Status   DeliveryStatus
	PersonID int
	DealID   int
}

// Delivered reports whether the lead reached the CRM.
func (r DeliveryResult) Delivered() bool {
	return r.Status == StatusDelivered || r.Status == StatusDeliveredNoNote
}
