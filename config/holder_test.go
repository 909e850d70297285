package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/stacgate/stacgate/adapters/metrics"
	"github.com/stacgate/stacgate/config"
)

func validConfig() string {
	return `
server:
  port: 9090
catalog:
  title: "Holder Test"
extensions: [query]
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestHolder_Get(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if got := h.Get().Server.Port; got != 9090 {
		t.Errorf("Port = %d, want 9090", got)
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if got := h.Get().Logging.Level; got != "debug" {
		t.Errorf("Level after reload = %s, want debug", got)
	}
}

func TestHolder_ReloadInvalidKeepsOld(t *testing.T) {
	path := writeConfig(t, validConfig())
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("storage:\n  driver: postgres\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("Reload succeeded on invalid config")
	}
	if got := h.Get().Server.Port; got != 9090 {
		t.Errorf("Port after failed reload = %d, want old value 9090", got)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var got *config.Config
	h.OnChange(func(cfg *config.Config) { got = cfg })

	if err := os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if got == nil || got.Server.Port != 8081 {
		t.Errorf("OnChange got %+v, want port 8081", got)
	}
}

func TestHolder_ReloadMetrics(t *testing.T) {
	path := writeConfig(t, validConfig())
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	reg := prometheus.NewRegistry()
	h.WithMetrics(metrics.NewWithRegistry(reg))

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	os.WriteFile(path, []byte("storage:\n  driver: postgres\n"), 0644)
	h.Reload() // invalid, counts as an error

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	counts := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			counts[fam.GetName()] += m.GetCounter().GetValue()
		}
	}
	if counts["stacgate_config_reloads_total"] != 1 {
		t.Errorf("reloads = %v, want 1", counts["stacgate_config_reloads_total"])
	}
	if counts["stacgate_config_reload_errors_total"] != 1 {
		t.Errorf("reload errors = %v, want 1", counts["stacgate_config_reload_errors_total"])
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())
	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var callCount int
	h.OnChange(func(*config.Config) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte("server:\n  port: 5000\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	// Wait for the file watcher to trigger
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := callCount
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	if callCount == 0 {
		t.Error("file watcher did not trigger reload")
	}
	mu.Unlock()

	if got := h.Get().Server.Port; got != 5000 {
		t.Errorf("Port after file watch = %d, want 5000", got)
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}
	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	reloadable := map[string]bool{}
	for _, f := range config.ReloadableFields() {
		reloadable[f] = true
	}
	if !reloadable["logging.level"] {
		t.Error("logging.level should be reloadable")
	}
	for _, f := range config.NonReloadableFields() {
		if reloadable[f] {
			t.Errorf("%s listed as both reloadable and non-reloadable", f)
		}
	}
}
