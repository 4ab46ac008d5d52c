package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenefilter/internal/api"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	bundled := filepath.Join(base, "segments.json")
	catalog := `[{"id": "tt0000001", "segments": [{"start": 100, "end": 130, "type": "sexual", "confidence_score": 90}]}]`
	if err := os.WriteFile(bundled, []byte(catalog), 0o644); err != nil {
		t.Fatalf("write bundled catalog: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
bundled_db_path = %q
api_bind = "127.0.0.1:0"

[logging]
format = "json"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"), bundled)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, err = runCommand(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestSegmentsAddListRemove(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", configPath, "segments", "add",
		"--movie", "tt0000001", "--start", "10", "--end", "25", "--type", "sexual")
	if err != nil {
		t.Fatalf("segments add: %v", err)
	}
	if !strings.Contains(out, "Added sexual segment") {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = runCommand(t, "--config", configPath, "segments", "list",
		"--movie", "tt0000001", "--json")
	if err != nil {
		t.Fatalf("segments list: %v", err)
	}
	var resp api.StateResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode list output: %v", err)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("expected 2 merged segments, got %d", len(resp.Segments))
	}

	out, err = runCommand(t, "--config", configPath, "segments", "remove",
		"--movie", "tt0000001", "--index", "0")
	if err != nil {
		t.Fatalf("segments remove: %v", err)
	}
	if !strings.Contains(out, "Removed segment 0") {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := runCommand(t, "--config", configPath, "segments", "remove",
		"--movie", "tt0000001", "--index", "5"); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestDBExportImportRoundTrip(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCommand(t, "--config", configPath, "segments", "add",
		"--movie", "tt0000001", "--start", "10", "--end", "25", "--type", "nudity"); err != nil {
		t.Fatalf("segments add: %v", err)
	}

	exportPath := filepath.Join(t.TempDir(), "localdb.json")
	if _, err := runCommand(t, "--config", configPath, "db", "export", "--output", exportPath); err != nil {
		t.Fatalf("db export: %v", err)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("export document not written: %v", err)
	}

	// Import into a fresh database.
	targetConfig := writeTestConfig(t)
	out, err := runCommand(t, "--config", targetConfig, "db", "import", exportPath, "--policy", "prefer-imported")
	if err != nil {
		t.Fatalf("db import: %v", err)
	}
	if !strings.Contains(out, "1 added") {
		t.Fatalf("unexpected import summary: %q", out)
	}

	if _, err := runCommand(t, "--config", targetConfig, "db", "import", exportPath, "--policy", "merge-everything"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestStateCommand(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", configPath, "state", "--movie", "tt0000001")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	for _, want := range []string{"Safety mode:", "Auto threshold:", "Catalog source:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("state output missing %q: %q", want, out)
		}
	}
}
