package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kurtosis-tech/stacktrace"
)

// Client is an HTTP client that connects to the rulehub server via unix socket.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new client that connects to the server at the given socket path.
func NewClient(socketPath string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return net.DialTimeout("unix", socketPath, 5*time.Second)
				},
			},
			Timeout: 30 * time.Second,
		},
		// The host doesn't matter for unix sockets, but HTTP requires one
		baseURL: "http://rulehub",
	}
}

// Get sends a GET request and decodes the response into result.
func (c *Client) Get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return stacktrace.Propagate(err, "failed to connect to server")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return stacktrace.Propagate(err, "failed to decode server response")
		}
	}

	return nil
}

// Post sends a POST request with a JSON body and decodes the response into result.
func (c *Client) Post(path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(json.NewEncoder(pw).Encode(body))
		}()
		bodyReader = pr
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bodyReader)
	if err != nil {
		return stacktrace.Propagate(err, "failed to connect to server")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return stacktrace.Propagate(err, "failed to decode server response")
		}
	}

	return nil
}

// Health fetches the server's health summary.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.Get("/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRules fetches indexed rules, optionally filtered by tier, corpus, or a
// search query.
func (c *Client) ListRules(tier string, corpusName string, query string) ([]RuleResponse, error) {
	path := "/rules"
	var params []string
	if tier != "" {
		params = append(params, "tier="+url.QueryEscape(tier))
	}
	if corpusName != "" {
		params = append(params, "corpus="+url.QueryEscape(corpusName))
	}
	if query != "" {
		params = append(params, "q="+url.QueryEscape(query))
	}
	if len(params) > 0 {
		path += "?" + strings.Join(params, "&")
	}

	var responses []RuleResponse
	if err := c.Get(path, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// GetRule fetches a single rule by number, slug, slug prefix, or short ID.
func (c *Client) GetRule(id string) (*RuleResponse, error) {
	var resp RuleResponse
	if err := c.Get("/rules/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BuildPack assembles a context pack on the server.
func (c *Client) BuildPack(req PackRequest) (*PackResponse, error) {
	var resp PackResponse
	if err := c.Post("/pack", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Lint runs the configured lint checks on the server.
func (c *Client) Lint(req LintRequest) (*LintResponse, error) {
	var resp LintResponse
	if err := c.Post("/lint", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) decodeError(resp *http.Response) error {
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return stacktrace.NewError("server returned status %d", resp.StatusCode)
	}
	return fmt.Errorf("%s", errResp.Message)
}
