// Package elsa is a read-only client for the Elsa workflow server's HTTP/JSON
// API. Responses are returned as decoded, schema-less JSON values; shaping
// them is the job of package record.
package elsa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/elsatrace/internal/record"
)

// Defaults mirror a local Elsa server with the admin API key shim.
const (
	DefaultBaseURL      = "http://localhost:14000/elsa/api"
	DefaultAPIKeyHeader = "X-Api-Key"
	DefaultJournalTake  = 200
	DefaultInstanceTake = 50
	DefaultTimeout      = 15 * time.Second
)

// Operation names, used for metrics and logs.
const (
	OpWorkflowInstance   = "workflow_instance"
	OpJournal            = "journal"
	OpExecutionState     = "execution_state"
	OpActivitySummaries  = "activity_summaries"
	OpExecutionReport    = "execution_report"
	OpActivityExecutions = "activity_executions"
	OpWorkflowInstances  = "workflow_instances"
)

// Page selects a window of a paged listing.
type Page struct {
	Skip int
	Take int
}

// Config holds connection settings for a Client.
type Config struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
	HTTPClient   *http.Client // optional; overrides Timeout
	Logger       *slog.Logger
}

// Client issues read requests against one Elsa server.
type Client struct {
	baseURL string
	apiKey  string
	header  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client, applying defaults for empty settings.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	header := cfg.APIKeyHeader
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: base, apiKey: cfg.APIKey, header: header, http: hc, logger: logger}
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL }

// APIKeyHeader returns the header the API key is sent in.
func (c *Client) APIKeyHeader() string { return c.header }

// WorkflowInstance fetches instance metadata.
func (c *Client) WorkflowInstance(ctx context.Context, instanceID string) (any, error) {
	return c.get(ctx, OpWorkflowInstance, "/workflow-instances/"+url.PathEscape(instanceID), nil)
}

// Journal fetches one page of the instance's execution journal.
func (c *Client) Journal(ctx context.Context, instanceID string, page Page) (any, error) {
	if page.Take <= 0 {
		page.Take = DefaultJournalTake
	}
	return c.get(ctx, OpJournal, "/workflow-instances/"+url.PathEscape(instanceID)+"/journal", pageQuery(page))
}

// ExecutionState fetches the opaque execution-state snapshot.
func (c *Client) ExecutionState(ctx context.Context, instanceID string) (any, error) {
	return c.get(ctx, OpExecutionState, "/workflow-instances/"+url.PathEscape(instanceID)+"/execution-state", nil)
}

// ActivitySummaries fetches per-node activity execution summaries.
func (c *Client) ActivitySummaries(ctx context.Context, instanceID string) (any, error) {
	return c.get(ctx, OpActivitySummaries, "/activity-execution-summaries/list", query("workflowInstanceId", instanceID))
}

// ExecutionReport fetches the aggregate execution report, including the
// per-node stats list.
func (c *Client) ExecutionReport(ctx context.Context, instanceID string) (any, error) {
	body := map[string]string{"workflowInstanceId": instanceID}
	return c.do(ctx, OpExecutionReport, http.MethodPost, "/activity-executions/report", nil, body)
}

// ActivityExecutions fetches the execution history of one node.
func (c *Client) ActivityExecutions(ctx context.Context, instanceID, nodeID string) (any, error) {
	q := query("workflowInstanceId", instanceID, "activityNodeId", nodeID)
	return c.get(ctx, OpActivityExecutions, "/activity-executions/list", q)
}

// WorkflowInstances lists workflow instances.
func (c *Client) WorkflowInstances(ctx context.Context, page Page) (any, error) {
	if page.Take <= 0 {
		page.Take = DefaultInstanceTake
	}
	return c.get(ctx, OpWorkflowInstances, "/workflow-instances", pageQuery(page))
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values) (any, error) {
	return c.do(ctx, op, http.MethodGet, path, q, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body any) (any, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(c.header, c.apiKey)
	}

	start := time.Now()
	c.logger.Debug("elsa request", "operation", op, "method", method, "url", u)

	resp, err := c.http.Do(req)
	if err != nil {
		observe(op, outcomeTransport, start)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(op, outcomeTransport, start)
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observe(op, strconv.Itoa(resp.StatusCode), start)
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(data))}
	}

	v, err := record.Decode(data)
	if err != nil {
		observe(op, outcomeDecode, start)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	observe(op, outcomeOK, start)
	c.logger.Debug("elsa response", "operation", op, "status", resp.StatusCode, "bytes", len(data),
		"elapsed", time.Since(start))
	return v, nil
}

func pageQuery(p Page) url.Values {
	return query("skip", strconv.Itoa(max(p.Skip, 0)), "take", strconv.Itoa(p.Take))
}

// query builds url.Values from key/value pairs, dropping empty values.
func query(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Set(kv[i], kv[i+1])
		}
	}
	return q
}
