// Package remote talks to the translation management API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/minios-linux/transync/catalog"
	"github.com/minios-linux/transync/reconcile"
	"github.com/minios-linux/transync/syncerr"
)

// TranslationsPath is the endpoint used for both fetch and push, relative to
// the API base URL.
const TranslationsPath = "/translation-projects/translations"

// maxErrorBody caps how much of a failed response body ends up in errors.
const maxErrorBody = 500

// DefaultTimeout applies when no timeout option is given.
const DefaultTimeout = 30 * time.Second

// Client talks to the translation service over HTTP. It is safe for
// concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *fasthttp.Client
	log     *zap.Logger

	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.http.Name = ua }
}

// NewClient returns a client for the API at baseURL authenticating with
// token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &fasthttp.Client{Name: "transync", MaxConnsPerHost: 4},
		log:     zap.NewNop(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.ReadTimeout = c.timeout
	c.http.WriteTimeout = c.timeout
	return c
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// ---------------------------------------------------------------------------
// Fetch
// ---------------------------------------------------------------------------

// FetchOptions narrows a fetch. Empty fields are not sent.
type FetchOptions struct {
	// Format is the server-side rendering: json, php or raw.
	Format   string
	Language string
	// Status is approved, pending or rejected; "all" sends nothing.
	Status   string
	Filename string
	// Missing asks for keys that lack a translation only.
	Missing bool
}

func (o FetchOptions) apply(args *fasthttp.Args) {
	add := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			args.Add(k, v)
		}
	}
	add("format", o.Format)
	add("language", o.Language)
	if !strings.EqualFold(o.Status, "all") {
		add("status", o.Status)
	}
	add("filename", o.Filename)
	if o.Missing {
		args.Add("missing", "1")
	}
}

// FetchResponse is the decoded data of a fetch.
type FetchResponse struct {
	Translations catalog.Remote
	// Total is the server's key count, zero when not reported.
	Total int
	// Languages is the server's language list, nil when not reported.
	Languages []string
}

type envelope struct {
	Success json.RawMessage `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type fetchData struct {
	Translations catalog.Remote  `json:"translations"`
	Total        json.RawMessage `json:"total"`
	Meta         json.RawMessage `json:"meta"`
}

// Fetch downloads translations.
func (c *Client) Fetch(ctx context.Context, opts FetchOptions) (*FetchResponse, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, opts.apply, nil)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", syncerr.ErrService, err)
	}
	if !reconcile.IsSuccess(env.Success) {
		return nil, fmt.Errorf("%w: API returned unsuccessful response", syncerr.ErrUnsuccessful)
	}

	out := &FetchResponse{Translations: make(catalog.Remote)}
	if isObject(env.Data) {
		var data fetchData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: decoding translations: %v", syncerr.ErrService, err)
		}
		if data.Translations != nil {
			out.Translations = data.Translations
		}
		out.Total = intValue(data.Total)
		out.Languages = languages(data.Meta)
	}
	return out, nil
}

// TestConnection performs a minimal fetch to check the URL and token.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Fetch(ctx, FetchOptions{Format: "json"})
	return err
}

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

// Push uploads payload and returns the raw response body for
// reconcile.InterpretResponse.
func (c *Client) Push(ctx context.Context, payload reconcile.PushPayload) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, fasthttp.MethodPost, nil, data)
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method string, query func(*fasthttp.Args), payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to connect to translation API: %v", syncerr.ErrService, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	requestID := uuid.NewString()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + TranslationsPath)
	if query != nil {
		query(req.URI().QueryArgs())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	log := c.log.With(zap.String("request_id", requestID), zap.String("method", method))
	log.Debug("api request", zap.String("url", req.URI().String()), zap.Int("bytes", len(payload)))

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		log.Warn("api request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to connect to translation API: %v", syncerr.ErrService, err)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	log.Debug("api response", zap.Int("status", status), zap.Duration("elapsed", time.Since(start)), zap.Int("bytes", len(body)))

	switch {
	case status == fasthttp.StatusUnauthorized:
		return nil, fmt.Errorf("%w: Invalid API token. Please check your SMARTPMS_TRANSLATION_TOKEN configuration", syncerr.ErrAuthentication)
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("%w: API request failed with status %d: %s", syncerr.ErrService, status, truncate(string(body), maxErrorBody))
	}
	return body, nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func intValue(raw json.RawMessage) int {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0
	}
	return i
}

func languages(meta json.RawMessage) []string {
	if !isObject(meta) {
		return nil
	}
	var m struct {
		Languages []string `json:"languages"`
	}
	if err := json.Unmarshal(meta, &m); err != nil {
		return nil
	}
	return m.Languages
}
