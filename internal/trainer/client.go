package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the training-service client.
type Options struct {
	BaseURL        string
	APIKey         string
	Project        string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Client talks to the external training service that runs style-transfer jobs.
// Jobs are submitted by name; progress and completion come back asynchronously
// through the callback URL baked into the job arguments.
type Client struct {
	baseURL    string
	apiKey     string
	project    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a trainer client from options, applying defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("trainer: base url is required")
	}
	if opts.Project == "" {
		return nil, fmt.Errorf("trainer: project is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		project:    opts.Project,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// JobSpec is the submission payload for one training job.
type JobSpec struct {
	JobID  string   `json:"job_id"`
	Args   []string `json:"args"`
	JobDir string   `json:"job_dir"`
}

type jobInfo struct {
	JobID         string   `json:"job_id"`
	State         string   `json:"state"`
	ConsumedUnits *float64 `json:"consumed_units,omitempty"`
}

type listResponse struct {
	Jobs []jobInfo `json:"jobs"`
}

// ListJobs returns the names of jobs whose id starts with the given prefix.
func (c *Client) ListJobs(ctx context.Context, prefix string) ([]string, error) {
	jobs, err := c.list(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.JobID)
	}
	return names, nil
}

// CreateJob submits a new training job.
func (c *Client) CreateJob(ctx context.Context, spec JobSpec) error {
	body, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("trainer: marshal job spec: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.jobsURL(""), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("trainer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trainer: create job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("trainer: create job: status %d", resp.StatusCode)
	}
	return nil
}

// ConsumedUnits fetches the resource usage reported for a finished job. The
// value is best-effort: any failure yields nil, never an error, because usage
// accounting must not block job finalization.
func (c *Client) ConsumedUnits(ctx context.Context, jobName string) *float64 {
	jobs, err := c.list(ctx, jobName)
	if err != nil || len(jobs) == 0 {
		c.logger.Warn().Err(err).Str("job_name", jobName).
			Msg("could not retrieve consumed units")
		return nil
	}
	return jobs[0].ConsumedUnits
}

func (c *Client) list(ctx context.Context, filter string) ([]jobInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jobsURL(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("trainer: build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trainer: list jobs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trainer: list jobs: status %d", resp.StatusCode)
	}
	var parsed listResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("trainer: decode list response: %w", err)
	}
	return parsed.Jobs, nil
}

func (c *Client) jobsURL(filter string) string {
	u := c.baseURL + "/v1/projects/" + url.PathEscape(c.project) + "/jobs"
	if filter != "" {
		u += "?filter=" + url.QueryEscape(filter)
	}
	return u
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
