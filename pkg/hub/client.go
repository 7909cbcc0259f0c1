// Package hub is a minimal HuggingFace Hub client scoped to what the
// snapshot syncer needs: listing, downloading, and uploading files in a
// single dataset repo. It is not a general Hub SDK.
package hub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultEndpoint is the public HuggingFace Hub endpoint.
	DefaultEndpoint = "https://huggingface.co"
	// DefaultRevision is the branch archives are committed to.
	DefaultRevision = "main"
	// requestTimeout bounds a single Hub request. Uploads carry a whole
	// state archive, so this is generous.
	requestTimeout = 10 * time.Minute
)

// Client talks to one dataset repo on the Hub.
type Client struct {
	endpoint string
	dataset  string
	revision string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the Hub endpoint. Tests point this at a local
// fake; self-hosted Hub deployments use it too.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithRevision overrides the branch archives are stored on.
func WithRevision(rev string) Option {
	return func(c *Client) {
		c.revision = rev
	}
}

// NewClient creates a client for the given dataset repo (e.g.
// "acme/openclaw-state"). An empty token yields anonymous requests, which
// work only against public datasets.
func NewClient(dataset, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(dataset) == "" {
		return nil, fmt.Errorf("dataset id cannot be empty")
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = requestTimeout
	}

	c := &Client{
		endpoint: DefaultEndpoint,
		dataset:  dataset,
		revision: DefaultRevision,
		http:     httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dataset returns the repo id this client is scoped to.
func (c *Client) Dataset() string { return c.dataset }

// treeEntry is one row of the Hub tree listing. Only files matter here;
// archives never live in subdirectories.
type treeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// List enumerates the file names at the top level of the dataset repo. A
// repo with no files yields an empty slice. A missing repo is an error:
// the dataset must be created before sync is enabled.
func (c *Client) List(ctx context.Context) ([]string, error) {
	listURL := fmt.Sprintf("%s/api/datasets/%s/tree/%s", c.endpoint, c.dataset, url.PathEscape(c.revision))

	var names []string
	for listURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create list request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to list dataset %s: %w", c.dataset, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read list response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("list of dataset %s returned %d: %s", c.dataset, resp.StatusCode, summarize(body))
		}

		var entries []treeEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse list response: %w", err)
		}
		for _, e := range entries {
			if e.Type == "file" {
				names = append(names, e.Path)
			}
		}

		// The Hub paginates tree listings via a Link header.
		listURL = nextPage(resp.Header.Get("Link"))
	}
	return names, nil
}

// Download fetches one named file into destDir and returns the local path.
func (c *Client) Download(ctx context.Context, name, destDir string) (string, error) {
	resolveURL := fmt.Sprintf("%s/datasets/%s/resolve/%s/%s", c.endpoint, c.dataset, url.PathEscape(c.revision), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolveURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("object %s does not exist in dataset %s", name, c.dataset)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("download of %s returned %d: %s", name, resp.StatusCode, summarize(body))
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	local := filepath.Join(destDir, name)
	out, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", local, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(local)
		return "", fmt.Errorf("failed to write %s: %w", local, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", local, err)
	}
	return local, nil
}

// commitOp is one NDJSON line of a Hub commit payload.
type commitOp struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type commitHeader struct {
	Summary string `json:"summary"`
}

type commitFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Upload stores localPath under name in the dataset repo, overwriting any
// existing file with that name. The Hub commit API takes base64 file
// content as NDJSON; there is no partial-upload recovery — an interrupted
// upload is simply retried by the next backup cycle.
func (c *Client) Upload(ctx context.Context, localPath, name string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	if err := enc.Encode(commitOp{Key: "header", Value: commitHeader{
		Summary: fmt.Sprintf("Upload %s", name),
	}}); err != nil {
		return fmt.Errorf("failed to encode commit header: %w", err)
	}
	if err := enc.Encode(commitOp{Key: "file", Value: commitFile{
		Path:     name,
		Content:  base64.StdEncoding.EncodeToString(data),
		Encoding: "base64",
	}}); err != nil {
		return fmt.Errorf("failed to encode commit file: %w", err)
	}

	commitURL := fmt.Sprintf("%s/api/datasets/%s/commit/%s", c.endpoint, c.dataset, url.PathEscape(c.revision))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, commitURL, &payload)
	if err != nil {
		return fmt.Errorf("failed to create commit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("commit of %s returned %d: %s", name, resp.StatusCode, summarize(body))
	}
	return nil
}

// nextPage extracts the rel="next" target from a Link header, if any.
func nextPage(link string) string {
	for _, part := range strings.Split(link, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(section[0]), "<>")
		for _, param := range section[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}

// summarize trims an error body to one loggable line.
func summarize(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return strings.ReplaceAll(s, "\n", " ")
}
