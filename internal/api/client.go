// Package api is the client for the Mafundi REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mafundi/mafundi-cli/internal/models"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

// Client talks to the backend. It holds no credentials: every authenticated
// call takes the bearer token of the caller's session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     zerolog.Logger
	jobs       cmap.ConcurrentMap[string, models.JobPosting]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit paces outgoing requests. A non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		userAgent:  "mafundi-cli",
		logger:     zerolog.Nop(),
		jobs:       cmap.New[models.JobPosting](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a user and bearer token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, "login", http.MethodPost, "/login", "", creds, &resp); err != nil {
		return models.AuthResponse{}, err
	}
	return resp, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	return c.do(ctx, "register", http.MethodPost, "/register", "", reg, nil)
}

// FetchJobs returns the current job listing.
func (c *Client) FetchJobs(ctx context.Context, token string) ([]models.JobPosting, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "fetch jobs", http.MethodGet, "/jobs", token, nil, &raw); err != nil {
		return nil, err
	}

	jobs, err := decodeList[models.JobPosting](raw)
	if err != nil {
		return nil, &NetworkError{Op: "fetch jobs", StatusCode: http.StatusOK, Err: err}
	}
	for _, job := range jobs {
		c.jobs.Set(string(job.ID), job)
	}
	return jobs, nil
}

// FetchJobDetail returns a single job. Jobs seen by FetchJobs are served from memory.
func (c *Client) FetchJobDetail(ctx context.Context, id models.ID, token string) (models.JobPosting, error) {
	if job, ok := c.jobs.Get(string(id)); ok {
		return job, nil
	}

	var raw json.RawMessage
	if err := c.do(ctx, "fetch job", http.MethodGet, "/jobs/"+url.PathEscape(string(id)), token, nil, &raw); err != nil {
		return models.JobPosting{}, err
	}

	job, err := decodeItem[models.JobPosting](raw)
	if err != nil {
		return models.JobPosting{}, &NetworkError{Op: "fetch job", StatusCode: http.StatusOK, Err: err}
	}
	c.jobs.Set(string(job.ID), job)
	return job, nil
}

// PostJob publishes a new job and returns it as stored by the backend.
func (c *Client) PostJob(ctx context.Context, job models.NewJob, token string) (models.JobPosting, error) {
	if err := job.Validate(); err != nil {
		return models.JobPosting{}, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, "post job", http.MethodPost, "/jobs", token, job, &raw); err != nil {
		return models.JobPosting{}, err
	}
	created, err := decodeItem[models.JobPosting](raw)
	if err != nil {
		// the job exists; only the echo was unreadable
		c.logger.Warn().Err(err).Msg("Unreadable post job response")
		return models.JobPosting{Title: job.Title, Description: job.Description, Location: job.Location, Budget: job.Budget}, nil
	}
	return created, nil
}

// ApplyToJob submits an application. Locations shorter than two characters
// are rejected with a *models.ValidationError before any request is made.
func (c *Client) ApplyToJob(ctx context.Context, req models.ApplicationRequest, token string) (models.Application, error) {
	if err := req.Validate(); err != nil {
		return models.Application{}, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, "apply", http.MethodPost, "/applications", token, req, &raw); err != nil {
		return models.Application{}, err
	}
	app, err := decodeItem[models.Application](raw)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Unreadable application response")
		return models.Application{JobID: req.JobID, Location: req.Location}, nil
	}
	return app, nil
}

// FetchMyApplications lists the caller's own applications.
func (c *Client) FetchMyApplications(ctx context.Context, token string) ([]models.Application, error) {
	return c.fetchApplications(ctx, "fetch my applications", "/applications/mine", token)
}

// FetchApplicationsForJobs lists applications to jobs the caller posted.
func (c *Client) FetchApplicationsForJobs(ctx context.Context, token string) ([]models.Application, error) {
	return c.fetchApplications(ctx, "fetch applications for jobs", "/applications/for-jobs", token)
}

func (c *Client) fetchApplications(ctx context.Context, op, path, token string) ([]models.Application, error) {
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	apps, err := decodeList[models.Application](raw)
	if err != nil {
		return nil, &NetworkError{Op: op, StatusCode: http.StatusOK, Err: err}
	}
	return apps, nil
}

// do performs one JSON request. Every failure is returned as *NetworkError.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Str("path", path).Msg("Request failed")
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func responseError(op string, resp *http.Response) *NetworkError {
	nerr := &NetworkError{Op: op, StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return nerr
	}

	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		nerr.Message = body.Message
		nerr.Fields = body.Errors
	}
	return nerr
}

// decodeList accepts both a bare array and the {"data": [...]} envelope.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return []T{}, nil
	}
	return envelope.Data, nil
}

// decodeItem accepts both a bare object and the {"data": {...}} envelope.
func decodeItem[T any](raw json.RawMessage) (T, error) {
	var zero T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return zero, errors.New("empty response body")
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		trimmed = envelope.Data
	}

	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return zero, err
	}
	return item, nil
}
