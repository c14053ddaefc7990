// Package jobsource loads the job postings the matcher runs against: from the
// configured jobs API when available, otherwise from a bundled dataset.
package jobsource

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobmate/alerts-service/internal/model"
)

const httpTimeout = 15 * time.Second

// maxResponseBytes caps how much of a job feed response is read.
const maxResponseBytes = 8 << 20

// Origins reported in Result.From.
const (
	FromAPI  = "api"
	FromMock = "mock"
)

//go:embed mock_jobs.json
var mockJobsJSON []byte

// Result is one fetch outcome.
type Result struct {
	Jobs []model.Job `json:"jobs"`
	From string      `json:"from"`
}

// Source fetches jobs from <base>/jobs. An empty base always serves the
// bundled dataset.
type Source struct {
	base   string
	client *http.Client
	log    *zap.Logger
}

// New constructs a Source with a shared HTTP client.
func New(base string, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: httpTimeout},
		log:    log,
	}
}

// FetchJobs returns the API's jobs, or the bundled dataset when the API is not
// configured or fails. The only error is ctx's, once it is done.
func (s *Source) FetchJobs(ctx context.Context) (Result, error) {
	if s.base == "" {
		s.log.Info("JOBS_API_BASE not set, using mock data")
		return s.mock()
	}

	jobs, err := s.fetch(ctx)
	if err == nil {
		s.log.Info("loaded jobs from API", zap.Int("count", len(jobs)))
		return Result{Jobs: jobs, From: FromAPI}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	s.log.Warn("jobs API unavailable, falling back to mock", zap.Error(err))
	return s.mock()
}

func (s *Source) fetch(ctx context.Context) ([]model.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/jobs", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return decodeJobs(body)
}

func (s *Source) mock() (Result, error) {
	jobs, err := decodeJobs(mockJobsJSON)
	if err != nil {
		return Result{}, fmt.Errorf("bundled jobs: %w", err)
	}
	return Result{Jobs: jobs, From: FromMock}, nil
}

var errNotArray = errors.New("invalid jobs payload, expected array")

func decodeJobs(body []byte) ([]model.Job, error) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, errNotArray
	}
	var jobs []model.Job
	if err := json.Unmarshal(body, &jobs); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return jobs, nil
}
