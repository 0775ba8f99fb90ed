package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/streamlyhq/streamly/internal/shared"
)

type fakeTokens struct {
	token   string
	cleared int
}

func (f *fakeTokens) Token() string { return f.token }
func (f *fakeTokens) Clear()        { f.cleared++; f.token = "" }

type fakeRenewer struct {
	err   error
	calls int
}

func (f *fakeRenewer) Renew(ctx context.Context) error {
	f.calls++
	return f.err
}

func newTestGateway(t *testing.T, baseURL string, tokens TokenCache) *Gateway {
	t.Helper()
	gw, err := New(Opts{BaseURL: baseURL, Tokens: tokens, Logger: shared.NewLogger(io.Discard)})
	if err != nil {
		t.Fatalf("failed to create gateway: %v", err)
	}
	return gw
}

func TestGateway(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults BaseURL", func(t *testing.T) {
			gw, err := New(Opts{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gw.BaseURL() != "http://localhost:8080" {
				t.Errorf("expected default base URL, got %s", gw.BaseURL())
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			gw, _ := New(Opts{BaseURL: "http://example.com/"})
			if gw.BaseURL() != "http://example.com" {
				t.Errorf("expected trimmed base URL, got %s", gw.BaseURL())
			}
		})

		t.Run("Creates Cookie Jar", func(t *testing.T) {
			gw, _ := New(Opts{})
			if gw.httpClient.Jar == nil {
				t.Error("expected cookie jar on default client")
			}
		})
	})

	t.Run("Headers", func(t *testing.T) {
		t.Run("Sends CSRF Header On Every Request", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(csrfHeader)
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			if _, err := gw.Get(context.Background(), "/anything"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != csrfHeaderValue {
				t.Errorf("expected %s header %q, got %q", csrfHeader, csrfHeaderValue, got)
			}
		})

		t.Run("Attaches Bearer When Cached", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, &fakeTokens{token: "tok-1"})
			gw.Get(context.Background(), "/videos")

			if got != "Bearer tok-1" {
				t.Errorf("expected bearer header, got %q", got)
			}
		})

		t.Run("Omits Bearer With SkipAuth", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, &fakeTokens{token: "tok-1"})
			gw.Call(context.Background(), http.MethodPost, "/api/v1/auth/login", nil, CallOptions{SkipAuth: true})

			if got != "" {
				t.Errorf("expected no bearer on SkipAuth call, got %q", got)
			}
		})
	})

	t.Run("Responses", func(t *testing.T) {
		t.Run("Decodes JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"title": "Trailer"})
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			resp, err := gw.Get(context.Background(), "/videos/1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected decoded JSON response")
			}

			var video struct {
				Title string `json:"title"`
			}
			if err := resp.Decode(&video); err != nil || video.Title != "Trailer" {
				t.Errorf("decode failed: %v, %+v", err, video)
			}
		})

		t.Run("Captures Plain Text", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("Logout successful"))
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			resp, err := gw.Post(context.Background(), "/logout", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Text != "Logout successful" {
				t.Errorf("expected text body, got %q", resp.Text)
			}
		})

		t.Run("Resolves 204 Empty", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			resp, err := gw.Delete(context.Background(), "/videos/1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(resp.Body) != 0 || resp.IsJSON {
				t.Error("expected empty 204 response")
			}
		})

		t.Run("Extracts Failure Message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"message": "title already taken"}`))
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			_, err := gw.Post(context.Background(), "/videos", []byte(`{}`))

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "title already taken") {
				t.Errorf("expected extracted message in error, got %v", err)
			}
		})

		t.Run("Falls Back To Raw Body Message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("bad input"))
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			_, err := gw.Get(context.Background(), "/videos")
			if err == nil || !strings.Contains(err.Error(), "bad input") {
				t.Errorf("expected raw body in error, got %v", err)
			}
		})
	})

	t.Run("Unauthorized", func(t *testing.T) {
		t.Run("Identity Check 401 Is Not Authenticated", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			renewer := &fakeRenewer{}
			gw := newTestGateway(t, server.URL, nil)
			gw.SetRenewer(renewer)

			_, err := gw.Get(context.Background(), identityPath)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Fatalf("expected ErrNotAuthenticated, got %v", err)
			}
			if renewer.calls != 0 {
				t.Error("identity 401 must never trigger renewal")
			}
		})

		t.Run("Profile Update 401 Renews And Retries", func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) == 1 {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			renewer := &fakeRenewer{}
			gw := newTestGateway(t, server.URL, &fakeTokens{token: "stale"})
			gw.SetRenewer(renewer)

			_, err := gw.Patch(context.Background(), identityPath, []byte(`{"nickname":"renamed"}`))
			if err != nil {
				t.Fatalf("expected retried profile update to succeed, got %v", err)
			}
			if attempts.Load() != 2 {
				t.Errorf("expected exactly 2 attempts, got %d", attempts.Load())
			}
			if renewer.calls != 1 {
				t.Errorf("expected exactly one renewal, got %d", renewer.calls)
			}
		})

		t.Run("Identity Subpath 401 Renews And Retries", func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) == 1 {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			renewer := &fakeRenewer{}
			gw := newTestGateway(t, server.URL, &fakeTokens{token: "stale"})
			gw.SetRenewer(renewer)

			if _, err := gw.Get(context.Background(), identityPath+"/prefs"); err != nil {
				t.Fatalf("expected retry to succeed, got %v", err)
			}
			if renewer.calls != 1 {
				t.Errorf("expected exactly one renewal, got %d", renewer.calls)
			}
		})

		t.Run("SkipAuth 401 Is Not Authenticated", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			_, err := gw.Call(context.Background(), http.MethodPost, "/api/v1/auth/refresh", nil, CallOptions{SkipAuth: true})
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Fatalf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Renews Once And Retries Without Bearer", func(t *testing.T) {
			var attempts atomic.Int32
			var retryAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) == 1 {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				retryAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"ok": true}`))
			}))
			defer server.Close()

			tokens := &fakeTokens{token: "stale"}
			renewer := &fakeRenewer{}
			gw := newTestGateway(t, server.URL, tokens)
			gw.SetRenewer(renewer)

			resp, err := gw.Get(context.Background(), "/api/v1/videos/my")
			if err != nil {
				t.Fatalf("expected retry to succeed, got %v", err)
			}
			if !resp.IsJSON {
				t.Error("expected JSON response from retry")
			}
			if attempts.Load() != 2 {
				t.Errorf("expected exactly 2 attempts, got %d", attempts.Load())
			}
			if renewer.calls != 1 {
				t.Errorf("expected exactly one renewal, got %d", renewer.calls)
			}
			if tokens.cleared != 1 {
				t.Errorf("expected stale token cleared once, got %d", tokens.cleared)
			}
			if retryAuth != "" {
				t.Errorf("retried attempt must ride on cookies, got Authorization %q", retryAuth)
			}
		})

		t.Run("Second 401 Is Terminal", func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			renewer := &fakeRenewer{}
			expired := 0
			gw := newTestGateway(t, server.URL, &fakeTokens{token: "stale"})
			gw.SetRenewer(renewer)
			gw.SetExpiredHook(func() { expired++ })

			_, err := gw.Get(context.Background(), "/api/v1/videos/my")
			if !errors.Is(err, shared.ErrAuthExpired) {
				t.Fatalf("expected ErrAuthExpired, got %v", err)
			}
			if attempts.Load() != 2 {
				t.Errorf("expected exactly 2 attempts, got %d", attempts.Load())
			}
			if renewer.calls != 1 {
				t.Errorf("expected exactly one renewal, got %d", renewer.calls)
			}
			if expired != 1 {
				t.Errorf("expected expired hook fired once, got %d", expired)
			}
		})

		t.Run("Failed Renewal Expires", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			expired := 0
			gw := newTestGateway(t, server.URL, &fakeTokens{})
			gw.SetRenewer(&fakeRenewer{err: errors.New("refresh rejected")})
			gw.SetExpiredHook(func() { expired++ })

			_, err := gw.Get(context.Background(), "/api/v1/videos/my")
			if !errors.Is(err, shared.ErrAuthExpired) {
				t.Fatalf("expected ErrAuthExpired, got %v", err)
			}
			if expired != 1 {
				t.Errorf("expected expired hook fired once, got %d", expired)
			}
		})

		t.Run("No Renewer Configured Expires", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			_, err := gw.Get(context.Background(), "/api/v1/videos/my")
			if !errors.Is(err, shared.ErrAuthExpired) {
				t.Fatalf("expected ErrAuthExpired, got %v", err)
			}
		})
	})

	t.Run("Upload", func(t *testing.T) {
		t.Run("Rebuilds Body Per Attempt", func(t *testing.T) {
			var attempts atomic.Int32
			var secondBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if attempts.Add(1) == 1 {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				secondBody = string(body)
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			builds := 0
			factory := func() (io.Reader, string, error) {
				builds++
				return strings.NewReader("payload"), "text/plain", nil
			}

			gw := newTestGateway(t, server.URL, &fakeTokens{token: "stale"})
			gw.SetRenewer(&fakeRenewer{})

			if _, err := gw.Upload(context.Background(), http.MethodPost, "/api/v1/videos/upload", factory, CallOptions{}); err != nil {
				t.Fatalf("expected retried upload to succeed, got %v", err)
			}
			if builds != 2 {
				t.Errorf("expected body built per attempt, got %d builds", builds)
			}
			if secondBody != "payload" {
				t.Errorf("expected intact body on retry, got %q", secondBody)
			}
		})
	})

	t.Run("SeedCookies", func(t *testing.T) {
		t.Run("Sends Seeded Cookies", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if c, err := r.Cookie("SESSION"); err == nil {
					got = c.Value
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			gw := newTestGateway(t, server.URL, nil)
			if err := gw.SeedCookies("SESSION=abc123; theme=dark"); err != nil {
				t.Fatalf("seed failed: %v", err)
			}

			gw.Get(context.Background(), "/api/v1/users/me/prefs")
			if got != "abc123" {
				t.Errorf("expected seeded cookie sent, got %q", got)
			}
		})

		t.Run("Rejects Empty Header", func(t *testing.T) {
			gw := newTestGateway(t, "http://example.com", nil)
			if err := gw.SeedCookies("  ;  "); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})
}
