package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/valpere/deeplserver/internal"
	"github.com/valpere/deeplserver/internal/orchestrator"
	"github.com/valpere/deeplserver/internal/translator"
)

// noBrowser behaves like DeepLService on a machine without Chromium.
type noBrowser struct{}

func (noBrowser) Name() string { return "deepl" }

func (noBrowser) Translate(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	return nil, fmt.Errorf("%w: no Chromium-family browser found in PATH", translator.ErrAutomationUnavailable)
}

func (noBrowser) IsAvailable(ctx context.Context) error { return translator.ErrAutomationUnavailable }

type translatorFunc func(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error)

func (f translatorFunc) Translate(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error) {
	return f(ctx, req)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockServer wires the real orchestrator with the mock fallback active.
func newMockServer(t *testing.T) *httptest.Server {
	t.Helper()
	orch := orchestrator.New(noBrowser{}, orchestrator.OrchestratorConfig{
		Fallback: translator.NewMockService(),
		Logger:   quietLogger(),
	})
	ts := httptest.NewServer(New("", orch, quietLogger()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, rawURL string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	ts := newMockServer(t)

	resp, body := get(t, ts.URL+"/health")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := strings.TrimSpace(string(body)); got != `{"status":"alive","message":"Server is running"}` {
		t.Errorf("body = %s", got)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestTranslate_MockFallback(t *testing.T) {
	ts := newMockServer(t)

	tests := []struct {
		name  string
		query string
		want  string
		from  string
		to    string
	}{
		{"en to ru", "engine=deepl&from=en&to=ru&text=hello%20world", "привет мир", "en", "ru"},
		{"en to ja", "engine=deepl&from=en&to=ja&text=hello", "こんにちは", "en", "ja"},
		{"ru to en", "engine=deepl&from=ru&to=en&text=" + url.QueryEscape("привет"), "hello", "ru", "en"},
		{"engine omitted", "from=en&to=ru&text=hello", "привет", "en", "ru"},
		{"unknown engine ignored", "engine=google&from=en&to=ru&text=hello", "привет", "en", "ru"},
		{"special characters", "from=en&to=ru&text=" + url.QueryEscape("hello world! 123"), "[MOCK] hello world! 123 (en->ru)", "en", "ru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/api/translate?"+tt.query)

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body %s", resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
				t.Error("missing CORS header")
			}

			var data map[string]string
			if err := json.Unmarshal(body, &data); err != nil {
				t.Fatalf("invalid JSON %s: %v", body, err)
			}
			if len(data) != 5 {
				t.Errorf("expected exactly 5 keys, got %v", data)
			}
			for _, key := range []string{"engine", "detected", "translated-text", "source_language", "target_language"} {
				if _, ok := data[key]; !ok {
					t.Errorf("missing key %q", key)
				}
			}
			if data["engine"] != "deepl" {
				t.Errorf("engine = %q", data["engine"])
			}
			if data["translated-text"] != tt.want {
				t.Errorf("translated-text = %q, want %q", data["translated-text"], tt.want)
			}
			if data["source_language"] != tt.from || data["target_language"] != tt.to {
				t.Errorf("languages = %q/%q, want %q/%q", data["source_language"], data["target_language"], tt.from, tt.to)
			}
			if data["detected"] != "" {
				t.Errorf("detected = %q, want empty", data["detected"])
			}
		})
	}
}

func TestTranslate_MissingParams(t *testing.T) {
	ts := newMockServer(t)

	queries := []string{
		"from=en&to=ru",
		"from=en&text=hi",
		"to=ru&text=hi",
		"from=&to=ru&text=hi",
		"engine=deepl",
		"",
	}

	for _, q := range queries {
		resp, body := get(t, ts.URL+"/api/translate?"+q)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", q, resp.StatusCode)
		}
		if !strings.Contains(string(body), "Missing required parameters") {
			t.Errorf("query %q: body = %s", q, body)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("query %q: missing CORS header", q)
		}
	}
}

func TestUnknownPath(t *testing.T) {
	ts := newMockServer(t)

	for _, path := range []string{"/api/bogus", "/api/invalid", "/", "/api/translate/extra", "/healthz"} {
		resp, _ := get(t, ts.URL+path)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, resp.StatusCode)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s: missing CORS header", path)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newMockServer(t)

	resp, err := http.Post(ts.URL+"/api/translate?from=en&to=ru&text=hi", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
	if resp.Header.Get("Allow") != http.MethodGet {
		t.Errorf("Allow = %q", resp.Header.Get("Allow"))
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newMockServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/translate", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestTranslate_ProviderFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "short message",
			err:  errors.New("DeepL translation failed: page automation failed"),
			want: "Translation error: DeepL translation failed: page automation failed...",
		},
		{
			name: "long message truncated",
			err:  errors.New(strings.Repeat("x", 150)),
			want: "Translation error: " + strings.Repeat("x", 100) + "...",
		},
		{
			name: "latin-1 message kept",
			err:  errors.New("échec de traduction"),
			want: "Translation error: échec de traduction...",
		},
		{
			name: "non latin-1 message replaced",
			err:  errors.New("ошибка перевода"),
			want: msgGenericError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failing := translatorFunc(func(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error) {
				return nil, tt.err
			})
			ts := httptest.NewServer(New("", failing, quietLogger()).Handler())
			defer ts.Close()

			resp, body := get(t, ts.URL+"/api/translate?from=en&to=ru&text=hello")
			if resp.StatusCode != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", resp.StatusCode)
			}
			if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
				t.Error("missing CORS header")
			}

			var data errorResponse
			if err := json.Unmarshal(body, &data); err != nil {
				t.Fatalf("invalid JSON %s: %v", body, err)
			}
			if data.Error != tt.want {
				t.Errorf("error = %q, want %q", data.Error, tt.want)
			}
		})
	}
}

func TestTranslate_PassesRequest(t *testing.T) {
	var got internal.TranslationRequest
	capture := translatorFunc(func(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error) {
		got = req
		return &internal.TranslationResult{Engine: internal.EngineDeepL, TranslatedText: "x", SourceLang: req.SourceLang, TargetLang: req.TargetLang}, nil
	})
	ts := httptest.NewServer(New("", capture, quietLogger()).Handler())
	defer ts.Close()

	resp, _ := get(t, ts.URL+"/api/translate?engine=bing&from=en&to=de&text="+url.QueryEscape("a & b <c>"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	want := internal.TranslationRequest{Engine: internal.EngineDeepL, SourceLang: "en", TargetLang: "de", Text: "a & b <c>"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTranslate_HTMLNotEscaped(t *testing.T) {
	echo := translatorFunc(func(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error) {
		return &internal.TranslationResult{Engine: internal.EngineDeepL, TranslatedText: req.Text}, nil
	})
	ts := httptest.NewServer(New("", echo, quietLogger()).Handler())
	defer ts.Close()

	_, body := get(t, ts.URL+"/api/translate?from=en&to=de&text="+url.QueryEscape("<b>&</b>"))
	if !strings.Contains(string(body), `"translated-text":"<b>&</b>"`) {
		t.Errorf("expected raw text in body, got %s", body)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	orch := orchestrator.New(noBrowser{}, orchestrator.OrchestratorConfig{
		Fallback: translator.NewMockService(),
		Logger:   quietLogger(),
	})
	srv := New(ln.Addr().String(), orch, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, _ := get(t, "http://"+ln.Addr().String()+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestTranslationErrorMessage_RuneTruncation(t *testing.T) {
	// 100 runes of 2-byte Latin-1 characters stay representable
	msg := translationErrorMessage(errors.New(strings.Repeat("é", 120)))

	want := "Translation error: " + strings.Repeat("é", 100) + "..."
	if msg != want {
		t.Errorf("got %q", msg)
	}
}
