// Package recaptcha provides a client for the Google reCAPTCHA v3
// siteverify API.
package recaptcha

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Default endpoint for the siteverify API.
const defaultBaseURL = "https://www.google.com/recaptcha/api"

// Verifier defines the token verification operation used by the bot screen.
type Verifier interface {
	// Verify checks a client token and returns the human-confidence
	// score in [0,1]. Any transport error, non-2xx status or
	// success=false response is an error.
	Verify(ctx context.Context, token, remoteIP string) (float64, error)
}

// VerifyResponse is the parsed siteverify response.
type VerifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Verifier using net/http.
type httpClient struct {
	secret  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new siteverify client. The timeout is kept short:
// a slow verification service must fail the check, not stall the
// submission handler.
func NewClient(secret string, opts ...Option) Verifier {
	c := &httpClient{
		secret:  secret,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Verify(ctx context.Context, token, remoteIP string) (float64, error) {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/siteverify", strings.NewReader(form.Encode()))
	if err != nil {
		return 0, eris.Wrap(err, "recaptcha: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "recaptcha: execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "recaptcha: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return 0, eris.Errorf("recaptcha: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	var vr VerifyResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		return 0, eris.Wrap(err, "recaptcha: decode response")
	}

	if !vr.Success {
		return 0, eris.Errorf("recaptcha: verification rejected: %s", strings.Join(vr.ErrorCodes, ", "))
	}

	return vr.Score, nil
}
