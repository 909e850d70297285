package bootstrap_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stacgate/stacgate/bootstrap"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func newApp(t *testing.T, content string) *bootstrap.App {
	t.Helper()
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath:      writeConfig(t, content),
		MetricsRegistry: prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("bootstrap.New error: %v", err)
	}
	t.Cleanup(func() { app.Shutdown() })
	return app
}

func get(t *testing.T, app *bootstrap.App, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestNew_MemoryApp(t *testing.T) {
	app := newApp(t, `
catalog:
  title: "Bootstrap Test"
  base_url: "http://cat.test"
extensions: [query, sort, context, token-pagination]
`)

	w := get(t, app, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, body %s", w.Code, w.Body.String())
	}
	var landing struct {
		Title      string   `json:"title"`
		ConformsTo []string `json:"conformsTo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &landing); err != nil {
		t.Fatalf("landing page is not JSON: %v", err)
	}
	if landing.Title != "Bootstrap Test" {
		t.Errorf("title = %q", landing.Title)
	}
	var hasQuery bool
	for _, uri := range landing.ConformsTo {
		if strings.Contains(uri, "query") {
			hasQuery = true
		}
	}
	if !hasQuery {
		t.Errorf("conformsTo %v lacks the query class", landing.ConformsTo)
	}

	if w := get(t, app, "/_mgmt/ping"); w.Code != http.StatusOK {
		t.Errorf("GET /_mgmt/ping status = %d", w.Code)
	}
	if w := get(t, app, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d", w.Code)
	}
}

func TestNew_SQLiteAppWithTransactions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	app := newApp(t, `
catalog:
  base_url: "http://cat.test"
storage:
  driver: sqlite
  dsn: `+dbPath+`
extensions: [transaction, context]
`)

	if w := get(t, app, "/"); w.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, body %s", w.Code, w.Body.String())
	}
	if w := get(t, app, "/catalogs"); w.Code != http.StatusOK {
		t.Errorf("GET /catalogs status = %d, body %s", w.Code, w.Body.String())
	}

	// Transaction routes are registered and reach the sqlite client:
	// writing into a catalog that does not exist answers 404.
	body := strings.NewReader(`{"type": "Collection", "id": "s2", "description": "d", "license": "x"}`)
	req := httptest.NewRequest("POST", "/catalogs/eo/collections", body)
	w := httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("create in missing catalog status = %d, want 404 (body %s)", w.Code, w.Body.String())
	}
}

func TestNew_AuthGuardsWriteRoutes(t *testing.T) {
	app := newApp(t, `
catalog:
  base_url: "http://cat.test"
extensions: [transaction]
auth:
  enabled: true
  keys: [sk_test_123]
`)

	post := func(key string) int {
		body := strings.NewReader(`{"type": "Collection", "id": "c1", "description": "d", "license": "x"}`)
		req := httptest.NewRequest("POST", "/catalogs/eo/collections", body)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		w := httptest.NewRecorder()
		app.HTTPServer.Handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := post(""); code != http.StatusUnauthorized {
		t.Errorf("unauthenticated write status = %d, want 401", code)
	}
	if code := post("sk_wrong"); code != http.StatusUnauthorized {
		t.Errorf("wrong key write status = %d, want 401", code)
	}
	// A valid key reaches the handler; the empty store answers 404
	// for the missing catalog.
	if code := post("sk_test_123"); code != http.StatusNotFound {
		t.Errorf("authenticated write status = %d, want 404", code)
	}

	// Reads stay open.
	if w := get(t, app, "/"); w.Code != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", w.Code)
	}
}

func TestNew_ExceptionOverrides(t *testing.T) {
	app := newApp(t, `
catalog:
  base_url: "http://cat.test"
exceptions:
  NotFoundError: 410
`)

	if w := get(t, app, "/catalogs/nope"); w.Code != http.StatusGone {
		t.Errorf("status = %d, want 410", w.Code)
	}
}

func TestNew_UnknownExtensionFails(t *testing.T) {
	_, err := bootstrap.New(bootstrap.Options{
		ConfigPath:      writeConfig(t, "extensions: [telepathy]\n"),
		MetricsRegistry: prometheus.NewRegistry(),
	})
	if err == nil || !strings.Contains(err.Error(), "telepathy") {
		t.Fatalf("New error = %v, want unknown extension", err)
	}
}

func TestNew_BadConfigFails(t *testing.T) {
	_, err := bootstrap.New(bootstrap.Options{
		ConfigPath:      writeConfig(t, "storage:\n  driver: postgres\n"),
		MetricsRegistry: prometheus.NewRegistry(),
	})
	if err == nil {
		t.Fatal("New succeeded on invalid config")
	}
}

func TestNew_MetricsEndpoint(t *testing.T) {
	app := newApp(t, `
catalog:
  base_url: "http://cat.test"
metrics:
  enabled: true
`)

	get(t, app, "/")
	w := get(t, app, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", w.Code)
	}
}

func TestNew_OpenAPIEndpoint(t *testing.T) {
	app := newApp(t, `
catalog:
  title: "Doc Test"
  base_url: "http://cat.test"
openapi:
  enabled: true
`)

	w := get(t, app, "/api")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Doc Test") {
		t.Error("document does not carry the catalog title")
	}
}
