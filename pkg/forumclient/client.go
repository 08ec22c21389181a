// Package forumclient is an HTTP client for the PixelForum API.
//
// A Client is safe for concurrent use. After Login or Register the bearer
// token is attached to every request until ClearToken is called.
package forumclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout applies when the request context has no deadline.
	DefaultTimeout = 15 * time.Second

	defaultUserAgent     = "PixelForum-Client"
	maxErrorBodySize     = 64 * 1024
	defaultIdleConns     = 10
	defaultIdleTimeout   = 90 * time.Second
	defaultDialTimeout   = 10 * time.Second
	defaultHeaderTimeout = 10 * time.Second
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	// BaseURL is the API root, e.g. https://forum.example.com/api/v1
	BaseURL string

	// Timeout is applied if the request context has no deadline
	Timeout time.Duration

	UserAgent string

	// HTTPClient replaces the tuned default client
	HTTPClient *http.Client
}

// Client talks to the PixelForum API.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	userAgent string

	mu    sync.RWMutex
	token string
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("forumclient: base URL is required")
	}

	c := &Client{
		baseURL:   base,
		http:      cfg.HTTPClient,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.http == nil {
		c.http = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   defaultDialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost:   defaultIdleConns,
				IdleConnTimeout:       defaultIdleTimeout,
				ResponseHeaderTimeout: defaultHeaderTimeout,
			},
		}
	}
	return c, nil
}

// HTTPClient returns the underlying http.Client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token, or "" when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ClearToken forgets the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Login signs in and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// GetPost returns a post with its author and comment count.
func (c *Client) GetPost(ctx context.Context, postID uint) (*Post, error) {
	var out Post
	if err := c.do(ctx, "get post", http.MethodGet, "/posts/"+id(postID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListComments returns the comments of a post, oldest first.
func (c *Client) ListComments(ctx context.Context, postID uint) ([]Comment, error) {
	out := make([]Comment, 0)
	if err := c.do(ctx, "list comments", http.MethodGet, "/comments/"+id(postID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateComment adds a comment to a post as the signed-in user.
func (c *Client) CreateComment(ctx context.Context, postID uint, content string) (*Comment, error) {
	var out struct {
		Message string  `json:"message"`
		Comment Comment `json:"comment"`
	}
	body := map[string]string{"content": content}
	if err := c.do(ctx, "create comment", http.MethodPost, "/comments/"+id(postID), body, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// UpdateComment replaces the content of a comment owned by the signed-in user.
func (c *Client) UpdateComment(ctx context.Context, commentID uint, content string) error {
	body := map[string]string{"content": content}
	return c.do(ctx, "update comment", http.MethodPut, "/comments/"+id(commentID), body, nil)
}

// DeleteComment removes a comment owned by the signed-in user.
func (c *Client) DeleteComment(ctx context.Context, commentID uint) error {
	return c.do(ctx, "delete comment", http.MethodDelete, "/comments/"+id(commentID), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
