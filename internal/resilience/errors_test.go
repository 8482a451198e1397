package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit transient", NewTransientError(eris.New("503"), 503), true},
		{"wrapped transient", fmt.Errorf("outer: %w", NewTransientError(errors.New("inner"), 429)), true},
		{"net timeout", timeoutErr{}, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset string", errors.New("read tcp: connection reset by peer"), true},
		{"dns failure string", errors.New("dial tcp: lookup api.pipedrive.com: no such host"), true},
		{"plain error", errors.New("invalid field key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	t.Parallel()
	inner := errors.New("boom")
	te := NewTransientError(inner, 500)
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, "boom", te.Error())
	assert.Equal(t, 500, te.StatusCode)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.Truef(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.Falsef(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}

func TestIsTransient_Deadline(t *testing.T) {
	t.Parallel()
	// context deadline errors surface as i/o timeout strings from HTTP clients.
	err := fmt.Errorf("Get \"x\": %w", errors.New("i/o timeout"))
	assert.True(t, IsTransient(err))
}
