package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrServerUnreachable means the request never got an HTTP answer.
var ErrServerUnreachable = errors.New("server unreachable")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

type Task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

func (t Task) Done() bool {
	return t.Status == "done"
}

// Update carries only the fields to change; nil means untouched.
type Update struct {
	Title       *string `json:"titulo,omitempty"`
	Description *string `json:"descricao,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8000". A nil httpClient gets a 10s timeout client.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) List(ctx context.Context) ([]Task, error) {
	var out []Task
	err := c.do(ctx, http.MethodGet, "/tasks", nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, id int64) (Task, error) {
	var out Task
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, title string, description *string) (Task, error) {
	body := struct {
		Title       string  `json:"titulo"`
		Description *string `json:"descricao,omitempty"`
	}{title, description}

	var out Task
	err := c.do(ctx, http.MethodPost, "/tasks", body, http.StatusCreated, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, id int64, u Update) (Task, error) {
	var out Task
	err := c.do(ctx, http.MethodPut, taskPath(id), u, http.StatusOK, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, http.StatusNoContent, nil)
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
