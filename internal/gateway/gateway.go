// package gateway centralizes outbound HTTP interaction with the Streamly backend.
//
// Every call site goes through [Gateway.Call] so that credential attachment,
// error normalization, and the 401 renew-and-retry policy are applied uniformly.
// The retry policy is an explicit per-call state machine (callNormal → callRetrying
// → callTerminal): a call is retried at most once after an authorization failure,
// and a second 401 on the retried attempt is terminal for that call.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/streamlyhq/streamly/internal/shared"
	"golang.org/x/time/rate"
)

const (
	// csrfHeader marks requests as originating from the client application,
	// defeating cross-site request forgery the same way the web front-end does.
	csrfHeader      = "X-Requested-With"
	csrfHeaderValue = "XMLHttpRequest"

	// identityPath is the "who am I" endpoint. A 401 here is an expected steady
	// state during unauthenticated use and never triggers renewal.
	identityPath = "/api/v1/users/me"
)

// callState tracks where a single call sits in the bounded-retry lifecycle.
type callState int

const (
	callNormal callState = iota
	callRetrying
	callTerminal
)

// TokenCache provides access to the locally cached bearer credential.
//
// The gateway only reads and discards tokens; writing them is the session
// manager's job.
type TokenCache interface {
	Token() string // current access token, empty if none cached
	Clear()        // discard the cached token
}

// Renewer performs a silent credential renewal against the backend.
type Renewer interface {
	Renew(ctx context.Context) error
}

// Response represents a normalized API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
	Text       string // populated for text/plain responses
}

// Decode unmarshals the response body into target.
func (r *Response) Decode(target any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CallOptions adjusts per-call behavior.
type CallOptions struct {
	// SkipAuth omits the bearer header and disables the 401 renew-and-retry
	// cycle. Used for the login and renewal calls themselves to avoid
	// infinite recursion.
	SkipAuth bool
}

// bodyFactory rebuilds the request body for each attempt so a retried call
// does not reuse a consumed reader.
type bodyFactory func() (io.Reader, string, error)

// Gateway wraps outbound HTTP calls to the backend.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	tokens TokenCache

	mu        sync.Mutex
	renewer   Renewer
	onExpired func()
}

// Opts contains configuration for creating a Gateway.
type Opts struct {
	BaseURL   string
	Client    *http.Client
	Tokens    TokenCache
	Logger    *log.Logger
	RateLimit float64 // requests per second, 0 disables throttling
	Timeout   time.Duration
}

// New creates a Gateway for the given backend.
//
// The underlying client carries a cookie jar so ambient session cookies are
// always sent, mirroring a browser's credentialed fetch.
func New(opts Opts) (*Gateway, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		client.Jar = jar
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Gateway{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: client,
		limiter:    limiter,
		logger:     opts.Logger,
		tokens:     opts.Tokens,
	}, nil
}

// BaseURL returns the backend base URL.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// SetRenewer installs the silent-renewal hook. Set once at wire-up time;
// the session manager implements [Renewer].
func (g *Gateway) SetRenewer(r Renewer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.renewer = r
}

// SetExpiredHook installs the callback invoked on terminal authentication
// failure (the "redirect to the login surface" in a browser).
func (g *Gateway) SetExpiredHook(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onExpired = fn
}

// SeedCookies installs cookies parsed from a raw Cookie header value
// ("name=value; name2=value2") for the backend host.
func (g *Gateway) SeedCookies(cookieHeader string) error {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}

	var cookies []*http.Cookie
	for _, pair := range strings.Split(cookieHeader, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: parts[0], Value: parts[1]})
	}

	if len(cookies) == 0 {
		return fmt.Errorf("%w: no cookies found", shared.ErrInvalidInput)
	}

	g.httpClient.Jar.SetCookies(u, cookies)
	return nil
}

// Get performs a GET request to the specified path.
func (g *Gateway) Get(ctx context.Context, path string) (*Response, error) {
	return g.Call(ctx, http.MethodGet, path, nil, CallOptions{})
}

// Post performs a POST request with the given JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body []byte) (*Response, error) {
	return g.Call(ctx, http.MethodPost, path, body, CallOptions{})
}

// Put performs a PUT request with the given JSON body.
func (g *Gateway) Put(ctx context.Context, path string, body []byte) (*Response, error) {
	return g.Call(ctx, http.MethodPut, path, body, CallOptions{})
}

// Patch performs a PATCH request with the given JSON body.
func (g *Gateway) Patch(ctx context.Context, path string, body []byte) (*Response, error) {
	return g.Call(ctx, http.MethodPatch, path, body, CallOptions{})
}

// Delete performs a DELETE request to the specified path.
func (g *Gateway) Delete(ctx context.Context, path string) (*Response, error) {
	return g.Call(ctx, http.MethodDelete, path, nil, CallOptions{})
}

// Call performs an HTTP request with a JSON body (nil for none), applying the
// uniform header, cookie, and 401-retry contract.
func (g *Gateway) Call(ctx context.Context, method, path string, body []byte, opts CallOptions) (*Response, error) {
	factory := func() (io.Reader, string, error) {
		if body == nil {
			return nil, "", nil
		}
		return bytes.NewReader(body), "application/json", nil
	}
	return g.call(ctx, method, path, factory, opts)
}

// Upload performs a request whose body is rebuilt per attempt by factory,
// used for multipart uploads where a consumed reader cannot be reissued.
func (g *Gateway) Upload(ctx context.Context, method, path string, factory func() (io.Reader, string, error), opts CallOptions) (*Response, error) {
	return g.call(ctx, method, path, factory, opts)
}

func (g *Gateway) call(ctx context.Context, method, path string, factory bodyFactory, opts CallOptions) (*Response, error) {
	state := callNormal

	for {
		resp, err := g.attempt(ctx, method, path, factory, opts, state)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized {
			return g.conclude(resp)
		}

		// 401 from the identity check itself is the expected pre-login steady
		// state, never a trigger for renewal or redirection. Only the GET
		// applies; writes to the profile get the normal renew-and-retry cycle.
		if method == http.MethodGet && path == identityPath {
			return nil, shared.ErrNotAuthenticated
		}

		if opts.SkipAuth {
			return nil, fmt.Errorf("%w: %s %s", shared.ErrNotAuthenticated, method, path)
		}

		switch state {
		case callNormal:
			if g.tokens != nil {
				g.tokens.Clear()
			}

			renewer := g.currentRenewer()
			if renewer == nil {
				g.expire()
				return nil, fmt.Errorf("%w: no renewal configured", shared.ErrAuthExpired)
			}

			g.logger.Debug("401 received, attempting silent renewal", "path", path)
			if err := renewer.Renew(ctx); err != nil {
				g.expire()
				return nil, fmt.Errorf("%w: %v", shared.ErrAuthExpired, err)
			}

			state = callRetrying

		case callRetrying:
			// Second 401 on the retried attempt: terminal, no second renewal.
			state = callTerminal
			g.expire()
			return nil, fmt.Errorf("%w: retry also unauthorized: %s %s", shared.ErrAuthExpired, method, path)
		}
	}
}

// attempt issues a single HTTP request and reads the response.
func (g *Gateway) attempt(ctx context.Context, method, path string, factory bodyFactory, opts CallOptions, state callState) (*Response, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var body io.Reader
	var contentType string
	if factory != nil {
		var err error
		body, contentType, err = factory()
		if err != nil {
			return nil, fmt.Errorf("failed to build request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(csrfHeader, csrfHeaderValue)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if !opts.SkipAuth && state != callRetrying && g.tokens != nil {
		if token := g.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}, nil
}

// conclude normalizes a non-401 response: 204 resolves empty, JSON and plain
// text bodies are decoded, other failures reject with an extracted message.
func (g *Gateway) conclude(resp *Response) (*Response, error) {
	if resp.StatusCode == http.StatusNoContent {
		return resp, nil
	}

	contentType := resp.Headers.Get("Content-Type")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		switch {
		case strings.Contains(contentType, "application/json"):
			var data any
			if err := json.Unmarshal(resp.Body, &data); err == nil {
				resp.IsJSON = true
				resp.JSONData = data
			}
		case strings.Contains(contentType, "text/plain"):
			resp.Text = string(resp.Body)
		default:
			// Some endpoints omit the content type; fall back to sniffing JSON.
			var data any
			if err := json.Unmarshal(resp.Body, &data); err == nil {
				resp.IsJSON = true
				resp.JSONData = data
			}
		}
		return resp, nil
	}

	return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, extractMessage(resp.Body))
}

// extractMessage pulls a human-readable error out of a failure body,
// falling back to a generic message when the body is not parseable.
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if len(body) > 0 && len(body) < 512 {
		return strings.TrimSpace(string(body))
	}
	return "request failed"
}

func (g *Gateway) currentRenewer() Renewer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.renewer
}

// expire fires the terminal-auth hook, the CLI analog of redirecting a
// browser to the login page.
func (g *Gateway) expire() {
	g.mu.Lock()
	fn := g.onExpired
	g.mu.Unlock()

	if fn != nil {
		fn()
	}
}
