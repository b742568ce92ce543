package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsYAML(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
logLevel: debug
storeDriver: file
dataDir: /tmp/booksphere
jwtSecret: super-secret
sessionTTL: 12h
loginRateLimitPerMinute: 20
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != DriverFile || cfg.DataDir != "/tmp/booksphere" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.LoginRateLimitPerMinute != 20 {
		t.Fatalf("expected rate limit 20, got %d", cfg.LoginRateLimitPerMinute)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
storeDriver: file
dataDir: /tmp/original
jwtSecret: super-secret
`)
	t.Setenv("PORT", "9090")
	t.Setenv("BOOKSPHERE_DATA_DIR", "/tmp/override")
	t.Setenv("BOOKSPHERE_SESSION_TTL", "48h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected PORT override, got %q", cfg.Port)
	}
	if cfg.DataDir != "/tmp/override" {
		t.Fatalf("expected data dir override, got %q", cfg.DataDir)
	}
	if cfg.SessionTTL != "48h" {
		t.Fatalf("expected session ttl override, got %q", cfg.SessionTTL)
	}
}

func TestLoadDefaultsToPostgresDriver(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
databaseURL: postgres://localhost/booksphere
jwtSecret: super-secret
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("expected postgres default, got %q", cfg.StoreDriver)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"missing port": `
storeDriver: file
dataDir: /tmp/x
jwtSecret: s
`,
		"postgres without url": `
port: "8080"
storeDriver: postgres
jwtSecret: s
`,
		"file without data dir": `
port: "8080"
storeDriver: file
jwtSecret: s
`,
		"unknown driver": `
port: "8080"
storeDriver: cassandra
jwtSecret: s
`,
		"no session store": `
port: "8080"
storeDriver: file
dataDir: /tmp/x
`,
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseSessionTTL(t *testing.T) {
	d, err := ParseSessionTTL("36h")
	if err != nil || d != 36*time.Hour {
		t.Fatalf("expected 36h, got %v err=%v", d, err)
	}
	if d, err := ParseSessionTTL(""); err != nil || d != 0 {
		t.Fatalf("expected zero for empty, got %v err=%v", d, err)
	}
	if _, err := ParseSessionTTL("soon"); err == nil {
		t.Fatalf("expected parse error")
	}
}
