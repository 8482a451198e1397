// Package pipedrive provides a client for the Pipedrive v1 REST API,
// covering the objects the lead pipeline writes: persons, deals, notes
// and the pipeline/stage lookups needed to place a deal.
package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/resilience"
)

// Client defines the Pipedrive API operations used by the lead submitter.
type Client interface {
	CreatePerson(ctx context.Context, req PersonRequest) (*Person, error)
	CreateDeal(ctx context.Context, req DealRequest) (*Deal, error)
	CreateNote(ctx context.Context, req NoteRequest) (*Note, error)
	ListPipelines(ctx context.Context) ([]Pipeline, error)
	ListStages(ctx context.Context, pipelineID int) ([]Stage, error)
}

// ContactValue is Pipedrive's representation of a single email or
// phone entry on a person.
type ContactValue struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

// PersonRequest is the body for POST /persons.
type PersonRequest struct {
	Name  string         `json:"name"`
	Email []ContactValue `json:"email,omitempty"`
	Phone []ContactValue `json:"phone,omitempty"`
}

// Person is a created person record.
type Person struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DealRequest is the body for POST /deals. CustomFields are Pipedrive
// field hash keys and get flattened into the top-level JSON object.
type DealRequest struct {
	Title        string
	PersonID     int
	StageID      int
	Status       string
	CustomFields map[string]string
}

// MarshalJSON flattens CustomFields next to the named fields, which is
// how the Pipedrive API expects custom deal fields.
func (r DealRequest) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"title":     r.Title,
		"person_id": r.PersonID,
	}
	if r.StageID != 0 {
		body["stage_id"] = r.StageID
	}
	if r.Status != "" {
		body["status"] = r.Status
	}
	for key, value := range r.CustomFields {
		body[key] = value
	}
	return json.Marshal(body)
}

// Deal is a created deal record.
type Deal struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	PersonID int    `json:"person_id"`
	StageID  int    `json:"stage_id"`
	Status   string `json:"status"`
}

// NoteRequest is the body for POST /notes.
type NoteRequest struct {
	Content  string `json:"content"`
	DealID   int    `json:"deal_id,omitempty"`
	PersonID int    `json:"person_id,omitempty"`
}

// Note is a created note record.
type Note struct {
	ID int `json:"id"`
}

// Pipeline is a sales pipeline as returned by GET /pipelines.
type Pipeline struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Stage is a pipeline stage as returned by GET /stages.
type Stage struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PipelineID int    `json:"pipeline_id"`
}

// APIError is returned when Pipedrive responds with a non-2xx status
// or a success=false envelope.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pipedrive: HTTP %d: %s", e.StatusCode, e.Body)
}

// envelope is the response wrapper Pipedrive puts around every payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the computed base URL (for testing).
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

// WithRetry overrides the transient-failure retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a Pipedrive client for the given company domain
// (the "<company>" in <company>.pipedrive.com) authenticating with an
// API token passed as a query parameter.
func NewClient(domain, token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: fmt.Sprintf("https://%s.pipedrive.com/api/v1", domain),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) CreatePerson(ctx context.Context, req PersonRequest) (*Person, error) {
	var person Person
	if err := c.post(ctx, "/persons", req, &person); err != nil {
		return nil, eris.Wrap(err, "pipedrive: create person")
	}
	return &person, nil
}

func (c *httpClient) CreateDeal(ctx context.Context, req DealRequest) (*Deal, error) {
	var deal Deal
	if err := c.post(ctx, "/deals", req, &deal); err != nil {
		return nil, eris.Wrap(err, "pipedrive: create deal")
	}
	return &deal, nil
}

func (c *httpClient) CreateNote(ctx context.Context, req NoteRequest) (*Note, error) {
	var note Note
	if err := c.post(ctx, "/notes", req, &note); err != nil {
		return nil, eris.Wrap(err, "pipedrive: create note")
	}
	return &note, nil
}

func (c *httpClient) ListPipelines(ctx context.Context) ([]Pipeline, error) {
	var pipelines []Pipeline
	if err := c.get(ctx, "/pipelines", &pipelines); err != nil {
		return nil, eris.Wrap(err, "pipedrive: list pipelines")
	}
	return pipelines, nil
}

func (c *httpClient) ListStages(ctx context.Context, pipelineID int) ([]Stage, error) {
	var stages []Stage
	path := fmt.Sprintf("/stages?pipeline_id=%d", pipelineID)
	if err := c.get(ctx, path, &stages); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("pipedrive: list stages for pipeline %d", pipelineID))
	}
	return stages, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(buf))
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, out)
	})
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		return c.do(req, out)
	})
}

// endpoint appends the api_token query parameter to a path that may
// already carry its own query string.
func (c *httpClient) endpoint(path string) string {
	sep := "?"
	if u, err := url.Parse(path); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return c.baseURL + path + sep + "api_token=" + url.QueryEscape(c.token)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return apiErr
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return eris.Wrap(err, "decode response")
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return eris.Wrap(err, "decode data")
		}
	}
	return nil
}
