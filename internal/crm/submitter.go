// Package crm pushes qualified leads into Pipedrive as a
// person → deal → note chain, falling back to the emergency email path
// when any of the gating steps fails. Submitting never fails the
// caller: losing a lead silently is worse than a noisy log.
package crm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/model"
	"github.com/bettercallhenk/hochzeitsanzug-landing/pkg/pipedrive"
)

// consentValue is written into the deal's consent custom field when
// the lead agreed to WhatsApp contact. The field stays unset otherwise.
const consentValue = "WhatsApp: Ja"

// callTimeout bounds each individual CRM call.
const callTimeout = 10 * time.Second

// Notifier is the subset of the mailer the submitter needs.
type Notifier interface {
	Notify(lead model.Lead, fallback bool) bool
}

// Config holds the CRM placement settings.
type Config struct {
	Pipeline         string // pipeline name, matched case-insensitively
	Stage            string // stage name within the pipeline
	WeddingDateField string // custom field hash for the wedding date
	ConsentField     string // custom field hash for the consent flag
}

// Submitter delivers leads to Pipedrive. A nil client means the CRM is
// unconfigured and every lead takes the fallback path.
type Submitter struct {
	client   pipedrive.Client
	notifier Notifier
	cfg      Config
}

// NewSubmitter creates a Submitter. client may be nil when no CRM
// credentials are configured.
func NewSubmitter(client pipedrive.Client, notifier Notifier, cfg Config) *Submitter {
	return &Submitter{
		client:   client,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Submit pushes one lead through the create chain. The result is
// always accepted; Status records how far the lead actually got.
// Failures of the person or deal step divert to the fallback path, a
// failed note is only logged because the lead already exists in the CRM.
func (s *Submitter) Submit(ctx context.Context, lead model.Lead) model.DeliveryResult {
	if s.client == nil {
		s.fallback(lead, "crm unconfigured", nil)
		return accepted(model.StatusFallback)
	}

	person, err := s.createPerson(ctx, lead)
	if err != nil {
		s.fallback(lead, "create person failed", err)
		return accepted(model.StatusFallback)
	}

	deal, err := s.createDeal(ctx, lead, person.ID)
	if err != nil {
		s.fallback(lead, "create deal failed", err)
		return accepted(model.StatusFallback)
	}

	status := model.StatusDelivered
	if err := s.attachNote(ctx, lead, person.ID, deal.ID); err != nil {
		// The person and deal exist; re-sending everything by email
		// would duplicate the lead.
		zap.L().Warn("note creation failed, lead delivered without note",
			zap.String("reference", lead.Reference),
			zap.Int("deal_id", deal.ID),
			zap.Error(err),
		)
		status = model.StatusDeliveredNoNote
	}

	zap.L().Info("lead delivered to crm",
		zap.String("reference", lead.Reference),
		zap.Int("person_id", person.ID),
		zap.Int("deal_id", deal.ID),
		zap.String("status", string(status)),
	)

	if s.notifier != nil {
		s.notifier.Notify(lead, false)
	}

	result := accepted(status)
	result.PersonID = person.ID
	result.DealID = deal.ID
	return result
}

func (s *Submitter) createPerson(ctx context.Context, lead model.Lead) (*pipedrive.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return s.client.CreatePerson(ctx, pipedrive.PersonRequest{
		Name:  lead.Name,
		Email: []pipedrive.ContactValue{{Value: lead.Email, Primary: true}},
		Phone: []pipedrive.ContactValue{{Value: lead.Phone, Primary: true}},
	})
}

func (s *Submitter) createDeal(ctx context.Context, lead model.Lead, personID int) (*pipedrive.Deal, error) {
	custom := make(map[string]string)
	if s.cfg.WeddingDateField != "" && lead.WeddingDate != "" {
		custom[s.cfg.WeddingDateField] = lead.WeddingDate
	}
	if s.cfg.ConsentField != "" && lead.Consent {
		custom[s.cfg.ConsentField] = consentValue
	}

	stageID, _ := s.resolveStage(ctx)

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return s.client.CreateDeal(ctx, pipedrive.DealRequest{
		Title:        fmt.Sprintf("%s – %s", lead.Source, lead.Name),
		PersonID:     personID,
		StageID:      stageID,
		Status:       "open",
		CustomFields: custom,
	})
}

func (s *Submitter) attachNote(ctx context.Context, lead model.Lead, personID, dealID int) error {
	content := fmt.Sprintf(
		"Anfrage über %s (Referenz %s)\nHochzeitsdatum: %s\n\n%s",
		lead.Source, lead.Reference, orUnspecified(lead.WeddingDate), lead.Message,
	)

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := s.client.CreateNote(ctx, pipedrive.NoteRequest{
		Content:  content,
		DealID:   dealID,
		PersonID: personID,
	})
	return err
}

// fallback records the full lead in the log so nothing is lost even if
// mail delivery also fails, then notifies staff for manual handling.
func (s *Submitter) fallback(lead model.Lead, cause string, err error) {
	zap.L().Error("lead delivery fell back to email",
		zap.String("cause", cause),
		zap.String("reference", lead.Reference),
		zap.String("name", lead.Name),
		zap.String("email", lead.Email),
		zap.String("phone", lead.Phone),
		zap.String("wedding_date", lead.WeddingDate),
		zap.String("message", lead.Message),
		zap.String("source", lead.Source),
		zap.Bool("whatsapp_consent", lead.Consent),
		zap.Error(err),
	)

	if s.notifier != nil {
		s.notifier.Notify(lead, true)
	}
}

func accepted(status model.DeliveryStatus) model.DeliveryResult {
	return model.DeliveryResult{Accepted: true, Status: status}
}

func orUnspecified(s string) string {
	if s == "" {
		return "nicht angegeben"
	}
	return s
}
