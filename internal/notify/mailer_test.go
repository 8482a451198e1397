package notify

import (
	"net/smtp"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/model"
)

type sentMail struct {
	to  []string
	msg string
}

// recordingSender captures messages instead of talking SMTP. failFirst
// makes the first delivery fail.
type recordingSender struct {
	sent      []sentMail
	failFirst bool
}

func (r *recordingSender) send(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	if r.failFirst && len(r.sent) == 0 {
		r.sent = append(r.sent, sentMail{}) // count the attempt
		return eris.New("connection refused")
	}
	r.sent = append(r.sent, sentMail{to: to, msg: string(msg)})
	return nil
}

func testConfig() Config {
	return Config{
		Host:     "smtp.example.de",
		Port:     587,
		User:     "noreply@bettercallhenk.de",
		Password: "geheim",
		From:     "noreply@bettercallhenk.de",
		Staff:    []string{"henk@bettercallhenk.de"},
	}
}

func testLead() model.Lead {
	return model.Lead{
		Reference:   "a1b2c3d4",
		Name:        "Max Mustermann",
		Email:       "max@example.de",
		Phone:       "+491601234567",
		WeddingDate: "2026-09-12",
		Message:     "Ich brauche einen Anzug.",
		Source:      "LP-Hochzeitsanzug",
		Consent:     true,
	}
}

func TestNotify_Unconfigured(t *testing.T) {
	t.Parallel()
	rec := &recordingSender{}
	m := NewMailer(Config{}, WithSendFunc(rec.send))

	assert.False(t, m.Notify(testLead(), false))
	assert.Empty(t, rec.sent)
}

func TestNotify_SendsStaffAndConfirmation(t *testing.T) {
	t.Parallel()
	rec := &recordingSender{}
	m := NewMailer(testConfig(), WithSendFunc(rec.send))

	ok := m.Notify(testLead(), false)
	require.True(t, ok)
	require.Len(t, rec.sent, 2)

	staff := rec.sent[0]
	assert.Equal(t, []string{"henk@bettercallhenk.de"}, staff.to)
	assert.Contains(t, staff.msg, "Max Mustermann")
	assert.Contains(t, staff.msg, "2026-09-12")
	assert.Contains(t, staff.msg, "LP-Hochzeitsanzug")
	assert.Contains(t, staff.msg, "a1b2c3d4")
	assert.NotContains(t, staff.msg, "MANUELL BEARBEITEN")
	assert.Contains(t, staff.msg, "multipart/alternative")
	assert.Contains(t, staff.msg, "text/plain")
	assert.Contains(t, staff.msg, "text/html")

	confirm := rec.sent[1]
	assert.Equal(t, []string{"max@example.de"}, confirm.to)
	assert.Contains(t, confirm.msg, "Ich brauche einen Anzug.")
	assert.Contains(t, confirm.msg, "2026-09-12")
}

func TestNotify_FallbackSkipsConfirmation(t *testing.T) {
	t.Parallel()
	rec := &recordingSender{}
	m := NewMailer(testConfig(), WithSendFunc(rec.send))

	ok := m.Notify(testLead(), true)
	require.True(t, ok)
	require.Len(t, rec.sent, 1)
	assert.Contains(t, rec.sent[0].msg, "MANUELL BEARBEITEN")
}

func TestNotify_StaffFailureReturnsFalse(t *testing.T) {
	t.Parallel()
	rec := &recordingSender{failFirst: true}
	m := NewMailer(testConfig(), WithSendFunc(rec.send))

	assert.False(t, m.Notify(testLead(), false))
	// No confirmation attempt after the staff send failed.
	assert.Len(t, rec.sent, 1)
}

func TestNotify_ConfirmationFailureStillTrue(t *testing.T) {
	t.Parallel()
	calls := 0
	m := NewMailer(testConfig(), WithSendFunc(func(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		if calls == 2 {
			return eris.New("mailbox full")
		}
		return nil
	}))

	assert.True(t, m.Notify(testLead(), false))
	assert.Equal(t, 2, calls)
}

func TestBuildStaffMessage_UnspecifiedWeddingDate(t *testing.T) {
	t.Parallel()
	lead := testLead()
	lead.WeddingDate = ""

	msg := string(buildStaffMessage("from@x.de", []string{"to@x.de"}, lead, false))
	assert.Contains(t, msg, "nicht angegeben")
}

func TestLoginAuth_RequiresTLS(t *testing.T) {
	t.Parallel()
	a := loginAuth("user", "pass")

	_, _, err := a.Start(&smtp.ServerInfo{TLS: false})
	require.Error(t, err)

	proto, _, err := a.Start(&smtp.ServerInfo{TLS: true})
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", proto)
}

func TestLoginAuth_Challenges(t *testing.T) {
	t.Parallel()
	a := loginAuth("user", "pass")

	resp, err := a.Next([]byte("Username:"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte("user"), resp)

	resp, err = a.Next([]byte("Password:"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte("pass"), resp)

	_, err = a.Next([]byte("OTP:"), true)
	require.Error(t, err)
}
