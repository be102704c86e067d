// Package hub is a minimal client for Hugging Face Hub datasets. It covers
// what appending a record needs: probe, create, read one file and commit it
// back.
package hub

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the public Hub.
const DefaultEndpoint = "https://huggingface.co"

// RecordsPath is the dataset file records are appended to.
const RecordsPath = "data/records.jsonl"

// ErrNotFound is returned when a repository or file does not exist.
var ErrNotFound = errors.New("hub: not found")

// StatusError reports an unexpected answer from the Hub.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hub: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the Hub with a single access token.
type Client struct {
	Endpoint   string
	Token      string
	HTTPClient *http.Client
	Branch     string
}

// New returns a client for the public Hub.
func New(token string) *Client {
	return &Client{
		Endpoint:   DefaultEndpoint,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Branch:     "main",
	}
}

// DatasetExists probes the dataset metadata endpoint.
func (c *Client) DatasetExists(ctx context.Context, repo string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/datasets/"+repo, "", nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case ok(resp):
		return true, nil
	default:
		return false, statusErr("probe "+repo, resp)
	}
}

// CreateDataset creates a public dataset repository. repo is "owner/name"
// or a bare name under the token's account.
func (c *Client) CreateDataset(ctx context.Context, repo string) error {
	body := map[string]any{"type": "dataset", "private": false}
	if org, name, found := strings.Cut(repo, "/"); found {
		body["organization"] = org
		body["name"] = name
	} else {
		body["name"] = repo
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("hub: marshal create request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/repos/create", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer drain(resp)

	// 409 means someone created it between probe and create.
	if !ok(resp) && resp.StatusCode != http.StatusConflict {
		return statusErr("create "+repo, resp)
	}
	return nil
}

// ReadFile downloads a file from the dataset branch. A missing file
// yields ErrNotFound.
func (c *Client) ReadFile(ctx context.Context, repo, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/datasets/"+repo+"/resolve/"+c.branch()+"/"+path, "", nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, repo, path)
	}
	if !ok(resp) {
		return nil, statusErr("read "+repo+"/"+path, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hub: read %s/%s: %w", repo, path, err)
	}
	return data, nil
}

// CommitFile replaces path with data in a single commit.
func (c *Client) CommitFile(ctx context.Context, repo, path string, data []byte, summary string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	lines := []any{
		map[string]any{"key": "header", "value": map[string]string{"summary": summary, "description": ""}},
		map[string]any{"key": "file", "value": map[string]string{
			"path":     path,
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString(data),
		}},
	}
	for _, l := range lines {
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("hub: encode commit: %w", err)
		}
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/datasets/"+repo+"/commit/"+c.branch(), "application/x-ndjson", &buf)
	if err != nil {
		return err
	}
	defer drain(resp)

	if !ok(resp) {
		return statusErr("commit "+repo, resp)
	}
	return nil
}

// AppendRecord adds one JSON line to RecordsPath, creating the dataset
// first when it does not exist. Nothing is committed if any step fails.
func (c *Client) AppendRecord(ctx context.Context, repo string, record map[string]any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("hub: marshal record: %w", err)
	}

	exists, err := c.DatasetExists(ctx, repo)
	if err != nil {
		return err
	}

	var current []byte
	if exists {
		current, err = c.ReadFile(ctx, repo, RecordsPath)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	} else if err := c.CreateDataset(ctx, repo); err != nil {
		return err
	}

	return c.CommitFile(ctx, repo, RecordsPath, appendLine(current, line), "Append record")
}

// CountRecords returns the number of non-empty lines in a JSONL file.
func CountRecords(data []byte) int {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			n++
		}
	}
	return n
}

func appendLine(current, line []byte) []byte {
	out := make([]byte, 0, len(current)+len(line)+2)
	out = append(out, current...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, line...)
	return append(out, '\n')
}

func (c *Client) branch() string {
	if c.Branch == "" {
		return "main"
	}
	return c.Branch
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	endpoint := strings.TrimRight(c.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("hub: build request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req) //nolint:gosec // endpoint comes from configuration.
	if err != nil {
		return nil, fmt.Errorf("hub: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func statusErr(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
