package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fxpipe/internal/testsupport"
)

type cliTestEnv struct {
	server      *testsupport.ECBServer
	baseDir     string
	artifactDir string
	configPath  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("FXPIPE_ARTIFACT_DIR", "")

	server := testsupport.NewECBServer(t, map[string]string{
		"USD": testsupport.ECBSeries("EUR", "USD", "2024-01-05=1.0921"),
		"SEK": testsupport.ECBSeries("EUR", "SEK", "2024-03-20=11.2345"),
	})

	env := &cliTestEnv{
		server:      server,
		baseDir:     base,
		artifactDir: filepath.Join(base, "data"),
		configPath:  filepath.Join(base, "fxpipe.toml"),
	}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
artifact_dir = %q
log_dir = %q

[source]
currencies = ["USD", "SEK"]
base_url = %q
retry_attempts = 1
requests_per_second = 100
refresh_hours = 0

[workflow]
workers = 2

[logging]
level = "error"
`, env.artifactDir, filepath.Join(env.baseDir, "logs"), env.server.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
