// Package api talks to the remote todo service over its REST contract:
//
//	GET    /todos       -> JSON array of todos
//	POST   /todos       -> created todo
//	PUT    /todos/{id}  -> status only
//	DELETE /todos/{id}  -> status only
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
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/model"
)

// DefaultTimeout bounds a single request when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

const todosPath = "/todos"

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string        // sent as a bearer token when non-empty
	Timeout    time.Duration // per request
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client is a thin REST client for the todo service.
type Client struct {
	base       *url.URL
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *log.Logger
	validate   *validator.Validate
}

// New builds a Client. BaseURL must be an absolute http(s) URL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", opts.BaseURL)
	}

	c := &Client{
		base:       base,
		token:      strings.TrimSpace(opts.Token),
		timeout:    opts.Timeout,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		validate:   validator.New(),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c, nil
}

// List fetches the whole collection in server order.
// A JSON null body is treated as an empty collection.
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	body, err := c.do(ctx, http.MethodGet, todosPath, nil)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(listSchema, body); err != nil {
		return nil, err
	}
	var todos []model.Todo
	if err := json.Unmarshal(body, &todos); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// Create asks the server to store a new task and returns the stored record.
func (c *Client) Create(ctx context.Context, task string) (model.Todo, error) {
	in := model.NewTodo{Task: task}
	if err := c.validate.Struct(in); err != nil {
		return model.Todo{}, fmt.Errorf("create: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, todosPath, in)
	if err != nil {
		return model.Todo{}, err
	}
	if err := validatePayload(todoSchema, body); err != nil {
		return model.Todo{}, err
	}
	var out model.Todo
	if err := json.Unmarshal(body, &out); err != nil {
		return model.Todo{}, fmt.Errorf("decode todo: %w", err)
	}
	return out, nil
}

// Update replaces the record with the given one. The response body is ignored.
// The task text is sent as the server returned it, even when empty.
func (c *Client) Update(ctx context.Context, t model.Todo) error {
	_, err := c.do(ctx, http.MethodPut, itemPath(t.ID), t)
	return err
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath(id), nil)
	return err
}

func itemPath(id int64) string {
	return todosPath + "/" + strconv.FormatInt(id, 10)
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(b)
	}

	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"duration", time.Since(start), "request_id", reqID)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "…"
	}
	return s
}
