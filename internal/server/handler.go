package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/model"
	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/validate"
)

// response is the JSON shape of every /api/contact reply.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		zap.L().Warn("contact: malformed request body", zap.Error(err))
		respondJSON(w, http.StatusBadRequest, response{Message: localize(r, msgInvalidBody)})
		return
	}

	ip := clientIP(r)
	screened := s.screener.Screen(r.Context(), sub, ip)
	if screened.IsBot() {
		// Bots get the same success response as humans so detection
		// cannot be distinguished from delivery.
		respondJSON(w, http.StatusOK, response{Success: true, Message: localize(r, msgSuccess)})
		return
	}

	if !validate.Phone(sub.Phone) {
		respondJSON(w, http.StatusBadRequest, response{Message: localize(r, msgInvalidPhone)})
		return
	}
	if missingRequired(sub) {
		respondJSON(w, http.StatusBadRequest, response{Message: localize(r, msgMissingFields)})
		return
	}
	if !sub.Consent {
		respondJSON(w, http.StatusBadRequest, response{Message: localize(r, msgConsentRequired)})
		return
	}

	lead := model.Lead{
		Reference:   shortReference(),
		Name:        strings.TrimSpace(sub.Name),
		Email:       strings.TrimSpace(sub.Email),
		Phone:       strings.TrimSpace(sub.Phone),
		WeddingDate: strings.TrimSpace(sub.WeddingDate),
		Message:     strings.TrimSpace(sub.Message),
		Source:      strings.TrimSpace(sub.Source),
		Consent:     sub.Consent,
	}

	result := s.submitter.Submit(r.Context(), lead)
	zap.L().Info("submission accepted",
		zap.String("reference", lead.Reference),
		zap.String("status", string(result.Status)),
	)

	respondJSON(w, http.StatusOK, response{Success: true, Message: localize(r, msgSuccess)})
}

func missingRequired(sub model.Submission) bool {
	for _, field := range []string{sub.Name, sub.Email, sub.Phone, sub.Message} {
		if strings.TrimSpace(field) == "" {
			return true
		}
	}
	return false
}

// shortReference returns a compact id for correlating a lead across
// logs, emails and the CRM note.
func shortReference() string {
	return uuid.NewString()[:8]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSONRaw(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, "pages/landing.html")
}

func (s *Server) handleThankYou(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, "pages/danke.html")
}

func (s *Server) servePage(w http.ResponseWriter, name string) {
	page, err := pages.ReadFile(name)
	if err != nil {
		// Embedded files cannot go missing outside a broken build.
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func respondJSON(w http.ResponseWriter, status int, resp response) {
	respondJSONRaw(w, status, resp)
}

func respondJSONRaw(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
