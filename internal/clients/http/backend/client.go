package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/tidwall/gjson"
)

// maxBodyBytes caps how much of a backend response is buffered.
const maxBodyBytes = 4 << 20

// Client is a thin JSON client for the restaurant backend API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Response is a buffered backend response with lazy gjson access.
type Response struct {
	StatusCode int
	Body       []byte
}

// JSON returns the parsed body.
func (r *Response) JSON() gjson.Result {
	if r == nil {
		return gjson.Result{}
	}
	return gjson.ParseBytes(r.Body)
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend API error %d: %s", e.StatusCode, e.Message)
}

// NewClient instantiates the backend client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// Get issues a GET against path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON body; a nil body sends none.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	if c == nil {
		return nil, errors.New("backend client not configured")
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call backend API: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}
	out := &Response{StatusCode: resp.StatusCode, Body: data}
	if !out.OK() {
		return out, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(out, resp.Status)}
	}
	return out, nil
}

// RestaurantPath renders prefix/{id}/suffix with the id encoded as a simple-style path parameter.
func RestaurantPath(prefix string, id int64, suffix string) (string, error) {
	param, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return "", fmt.Errorf("encode restaurant id: %w", err)
	}
	path := strings.TrimRight(prefix, "/") + "/" + param
	if suffix != "" {
		path += "/" + strings.TrimLeft(suffix, "/")
	}
	return path, nil
}

func errorMessage(resp *Response, fallback string) string {
	body := resp.JSON()
	for _, path := range []string{"message", "detail", "error", "title"} {
		if msg := strings.TrimSpace(body.Get(path).String()); msg != "" {
			return msg
		}
	}
	return fallback
}
