// Package screen implements the anti-spam gate applied to every
// contact-form submission before it becomes a lead.
package screen

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/model"
	"github.com/bettercallhenk/hochzeitsanzug-landing/pkg/recaptcha"
)

// Reasons emitted for bot verdicts.
const (
	ReasonHoneypot           = "honeypot"
	ReasonInvalidTimestamp   = "invalid-timestamp"
	ReasonTooFast            = "too-fast"
	ReasonVerificationFailed = "verification-failed"
	ReasonLowScore           = "low-score"
)

// MinScore is the reCAPTCHA score below which a submission counts as a
// bot. A score of exactly MinScore passes.
const MinScore = 0.5

// MinFillTime is the minimum believable delay between form load and
// submit. Humans read the page first.
const MinFillTime = 5 * time.Second

// verifyTimeout bounds the remote verification call so a slow
// verification service fails the check instead of stalling the handler.
const verifyTimeout = 5 * time.Second

// checkFunc inspects one aspect of a submission. A nil result means
// the check is inconclusive and the next check runs.
type checkFunc func(ctx context.Context, sub model.Submission, remoteIP string) *model.ScreenResult

// Screener runs the ordered spam checks against one submission.
type Screener struct {
	verifier recaptcha.Verifier
	now      func() time.Time
}

// Option configures a Screener.
type Option func(*Screener)

// WithClock overrides the time source (for testing the timing check).
func WithClock(now func() time.Time) Option {
	return func(s *Screener) {
		s.now = now
	}
}

// NewScreener creates a Screener backed by the given verifier. The
// verifier may be nil when no reCAPTCHA secret is configured; token
// checks then degrade to verification-failed.
func NewScreener(verifier recaptcha.Verifier, opts ...Option) *Screener {
	s := &Screener{
		verifier: verifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Screen applies the checks in fixed order; the first bot-indicating
// check short-circuits the rest. Every outcome is logged with the
// submitter email for audit.
func (s *Screener) Screen(ctx context.Context, sub model.Submission, remoteIP string) model.ScreenResult {
	checks := []checkFunc{
		s.honeypot,
		s.timing,
		s.verification,
	}

	result := model.Human(nil)
	for _, check := range checks {
		if res := check(ctx, sub, remoteIP); res != nil {
			result = *res
			break
		}
	}

	fields := []zap.Field{
		zap.String("email", sub.Email),
		zap.String("verdict", string(result.Verdict)),
	}
	if result.Reason != "" {
		fields = append(fields, zap.String("reason", result.Reason))
	}
	if result.Score != nil {
		fields = append(fields, zap.Float64("score", *result.Score))
	}
	zap.L().Info("submission screened", fields...)

	return result
}

// honeypot flags any submission that filled the hidden decoy field.
func (s *Screener) honeypot(_ context.Context, sub model.Submission, _ string) *model.ScreenResult {
	if sub.Website != "" {
		res := model.Bot(ReasonHoneypot)
		return &res
	}
	return nil
}

// timing flags submissions that arrive faster than a human could have
// filled the form, based on the client-reported load timestamp.
func (s *Screener) timing(_ context.Context, sub model.Submission, _ string) *model.ScreenResult {
	loadedMs, err := strconv.ParseInt(sub.FormLoadedAt, 10, 64)
	if sub.FormLoadedAt == "" || err != nil {
		res := model.Bot(ReasonInvalidTimestamp)
		return &res
	}

	loaded := time.UnixMilli(loadedMs)
	if s.now().Sub(loaded) < MinFillTime {
		res := model.Bot(ReasonTooFast)
		return &res
	}
	return nil
}

// verification scores the submission token against the remote
// verification service. A missing token is inconclusive, not a bot:
// some visitors run blockers that strip the widget entirely.
func (s *Screener) verification(ctx context.Context, sub model.Submission, remoteIP string) *model.ScreenResult {
	if sub.Token == "" {
		return nil
	}
	if s.verifier == nil {
		res := model.Bot(ReasonVerificationFailed)
		return &res
	}

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	score, err := s.verifier.Verify(ctx, sub.Token, remoteIP)
	if err != nil {
		zap.L().Warn("token verification failed",
			zap.String("email", sub.Email),
			zap.Error(err),
		)
		res := model.Bot(ReasonVerificationFailed)
		return &res
	}
	if score < MinScore {
		res := model.Bot(ReasonLowScore)
		res.Score = &score
		return &res
	}

	res := model.Human(&score)
	return &res
}
