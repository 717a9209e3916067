package realdebrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxErrorBody = 4096

type ClientConfig struct {
	BaseURL             string
	UserAgent           string
	RequestTimeout      time.Duration
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:             "https://api.real-debrid.com/rest/1.0",
		UserAgent:           "lj/1.0",
		RequestTimeout:      30 * time.Second,
		DialTimeout:         30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        10,
	}
}

// NewHTTPClient builds the transport shared by API calls and file transfers.
// A zero timeout leaves the request unbounded, which streaming bodies need.
func NewHTTPClient(config *ClientConfig, timeout time.Duration) *http.Client {
	if config == nil {
		config = DefaultClientConfig()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Client talks to the unrestriction service. Every call carries the bearer key.
type Client struct {
	http    *http.Client
	baseURL string
	key     string
	agent   string
}

func NewClient(key string, config *ClientConfig) (*Client, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyKey
	}
	if config == nil {
		config = DefaultClientConfig()
	}

	return &Client{
		http:    NewHTTPClient(config, config.RequestTimeout),
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		key:     key,
		agent:   config.UserAgent,
	}, nil
}

// AddMagnet submits a magnet and returns the remote torrent id.
func (c *Client) AddMagnet(ctx context.Context, magnet string) (string, error) {
	var out AddMagnetResponse
	form := url.Values{"magnet": {magnet}}
	if err := c.do(ctx, "add magnet", http.MethodPost, "/torrents/addMagnet", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) TorrentInfo(ctx context.Context, id string) (*TorrentInfo, error) {
	var out TorrentInfo
	if err := c.do(ctx, "get torrent info", http.MethodGet, "/torrents/info/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SelectFiles(ctx context.Context, id string, fileIDs []int) error {
	ids := make([]string, len(fileIDs))
	for i, fid := range fileIDs {
		ids[i] = strconv.Itoa(fid)
	}
	form := url.Values{"files": {strings.Join(ids, ",")}}
	return c.do(ctx, "select files", http.MethodPost, "/torrents/selectFiles/"+url.PathEscape(id), form, nil)
}

func (c *Client) UnrestrictLink(ctx context.Context, link string) (*UnrestrictResponse, error) {
	var out UnrestrictResponse
	form := url.Values{"link": {link}}
	if err := c.do(ctx, "unrestrict link", http.MethodPost, "/unrestrict/link", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTorrent(ctx context.Context, id string) error {
	return c.do(ctx, "delete torrent", http.MethodDelete, "/torrents/delete/"+url.PathEscape(id), nil, nil)
}

// ContentLength probes a direct link with HEAD. A missing or unparsable
// Content-Length yields 0, meaning unknown.
func (c *Client) ContentLength(ctx context.Context, link string) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create HEAD request: %w", err)
	}
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, newNetworkError("probe link", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, newStatusError("probe link", resp.StatusCode, "")
	}

	size, err := strconv.ParseUint(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return 0, nil
	}
	return size, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("User-Agent", c.agent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return newNetworkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newStatusError(op, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newDecodeError(op, err)
	}
	return nil
}
