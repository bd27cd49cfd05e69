package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ormasoftchile/qago/pkg/execution"
	"github.com/ormasoftchile/qago/pkg/report"
)

func exchangeAttachment(t *testing.T, exec *execution.Execution) *report.Entry {
	t.Helper()
	if len(exec.Root) != 1 {
		t.Fatalf("expected 1 attachment, got %d entries", len(exec.Root))
	}
	e := exec.Root[0]
	if e.Kind != report.KindAttachment {
		t.Fatalf("expected attachment, got %q", e.Kind)
	}
	return e
}

func TestGetRecordsExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	c := New(srv.URL)
	resp, err := c.Get(ctx, "/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	e := exchangeAttachment(t, exec)
	if e.Label != "HTTP GET /v1/health -> 200" {
		t.Errorf("got label %q", e.Label)
	}
	if !strings.Contains(e.Data, "status: 200") {
		t.Errorf("exchange text should carry the status:\n%s", e.Data)
	}
	if !strings.Contains(e.Data, `response body: {"status":"ok"}`) {
		t.Errorf("exchange text should carry the body:\n%s", e.Data)
	}

	// preview must not consume the body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("caller must still read the full body, got %q", body)
	}
}

func TestPostJSONMasksSensitiveFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	c := New(srv.URL)
	resp, err := c.PostJSON(ctx, "/login", []byte(`{"user":"alice","password":"hunter22"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	e := exchangeAttachment(t, exec)
	if strings.Contains(e.Data, "hunter22") {
		t.Errorf("password leaked into the log:\n%s", e.Data)
	}
	if !strings.Contains(e.Data, maskedMarker) {
		t.Errorf("expected masked value:\n%s", e.Data)
	}
}

func TestRequestHeaderMasking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	c := New(srv.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/secure", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer super-secret-token")
	resp, err := c.Do(req, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	e := exchangeAttachment(t, exec)
	if strings.Contains(e.Data, "super-secret-token") {
		t.Errorf("authorization header leaked:\n%s", e.Data)
	}
}

func TestStreamingResponseNotRead(t *testing.T) {
	payload := strings.Repeat("x", 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	c := New(srv.URL)
	resp, err := c.Get(ctx, "/blob")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	e := exchangeAttachment(t, exec)
	if !strings.Contains(e.Data, "<streaming content type") {
		t.Errorf("streaming bodies are summarized, not logged:\n%s", e.Data)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != payload {
		t.Errorf("body must remain untouched, got %d bytes", len(body))
	}
}

func TestLargeDeclaredResponseNotRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		w.Write(make([]byte, 1000000))
	}))
	defer srv.Close()

	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	c := New(srv.URL)
	resp, err := c.Get(ctx, "/huge")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	e := exchangeAttachment(t, exec)
	if !strings.Contains(e.Data, "<large response body - 1000000 bytes - not logged>") {
		t.Errorf("got:\n%s", e.Data)
	}
}

func TestRequestFailureRecorded(t *testing.T) {
	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	c := New("http://127.0.0.1:1") // nothing listens here
	if _, err := c.Get(ctx, "/unreachable"); err == nil {
		t.Fatal("expected a connection error")
	}

	e := exchangeAttachment(t, exec)
	if e.Label != "HTTP GET (failed)" {
		t.Errorf("got label %q", e.Label)
	}
	if !strings.Contains(e.Data, "error:") {
		t.Errorf("got:\n%s", e.Data)
	}
}

func TestResolve(t *testing.T) {
	c := New("https://api.example.com/")

	got, err := c.resolve("v1/items")
	if err != nil || got != "https://api.example.com/v1/items" {
		t.Errorf("got %q, %v", got, err)
	}
	got, err = c.resolve("https://other.example.com/x")
	if err != nil || got != "https://other.example.com/x" {
		t.Errorf("absolute URLs pass through, got %q, %v", got, err)
	}

	bare := New("")
	if _, err := bare.resolve("/v1/items"); err == nil {
		t.Error("relative path with no base URL must fail")
	}
}
