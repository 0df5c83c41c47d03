package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/store"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

// withEnvConfig points the CLI at an env-only configuration and returns the
// cache directory.
func withEnvConfig(t *testing.T) (configPath, cacheDir string) {
	t.Helper()
	dir := t.TempDir()
	cacheDir = filepath.Join(dir, "cache")
	t.Setenv("METAFETCH_API_BASE_URL", "https://api.example.test/ws")
	t.Setenv("METAFETCH_CACHE_DIR", cacheDir)
	t.Setenv("METAFETCH_CACHE_DRIVER", "fs")
	return filepath.Join(dir, "missing.yml"), cacheDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, "", args...)
}

func runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	root.SetIn(strings.NewReader(input))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	_, err := root.ExecuteC()
	logger.UseTestMode()
	return out.String(), err
}

func TestPurgeCmd_FlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "No args without --all", args: []string{"purge"}},
		{name: "--all with named keys", args: []string{"purge", "details-US", "--all"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), "already logged") {
				t.Errorf("expected sentinel error, got: %v", err)
			}
		})
	}
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metafetch", "config.yml")

	if _, err := run(t, "init", "--config", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "trigger_status_codes: 500;502;503;504") {
		t.Errorf("unexpected config content:\n%s", data)
	}

	_, err = run(t, "init", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "already logged") {
		t.Errorf("expected refusal to overwrite, got %v", err)
	}

	if _, err := run(t, "init", "--config", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestStatusAndPurge(t *testing.T) {
	cfgPath, cacheDir := withEnvConfig(t)

	fs, err := store.NewFS(cacheDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ctx := context.Background()
	for _, k := range []string{"details-US", "details-DE"} {
		if err := fs.Save(ctx, k, []byte(`{"updateTime":"2024-01-01T00:00:00Z"}`), "2024-01-01-00-00-00"); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	out, err := run(t, "status", "--config", cfgPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"details-US", "details-DE", "2024-01-01T00:00:00Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output misses %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "purge", "--config", cfgPath, "details-DE"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, ok := fs.TryLoad(ctx, "details-DE"); ok {
		t.Errorf("details-DE still cached")
	}

	// declined confirmation keeps everything
	if _, err := runWithInput(t, "n\n", "purge", "--config", cfgPath, "--all"); err != nil {
		t.Fatalf("purge --all: %v", err)
	}
	if _, ok := fs.TryLoad(ctx, "details-US"); !ok {
		t.Errorf("details-US purged without confirmation")
	}

	if _, err := run(t, "purge", "--config", cfgPath, "--all", "--yes"); err != nil {
		t.Fatalf("purge --all --yes: %v", err)
	}
	infos, err := fs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected empty cache, got %+v", infos)
	}
}

func TestGetCmd_OfflineServesCache(t *testing.T) {
	cfgPath, cacheDir := withEnvConfig(t)

	fs, err := store.NewFS(cacheDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	payload := `{"updateTime":"2024-01-01T00:00:00Z","siteDetails":[{"siteID":77,"site":"Germany"}]}`
	if err := fs.Save(context.Background(), "details-DE-SiteDetails", []byte(payload), "2024-01-01-00-00-00"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := run(t, "get", "--config", cfgPath, "--offline", "--json", "--site", "de", "--detail", "SiteDetails")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, `"site": "Germany"`) {
		t.Errorf("unexpected output:\n%s", out)
	}

	_, err = run(t, "get", "--config", cfgPath, "--offline", "--refresh")
	if err == nil || !strings.Contains(err.Error(), "already logged") {
		t.Errorf("expected flag combination error, got %v", err)
	}
}

func TestGetCmd_InvalidConfig(t *testing.T) {
	t.Setenv("METAFETCH_API_BASE_URL", "http://insecure.example.test")
	t.Setenv("METAFETCH_CACHE_DIR", t.TempDir())

	_, err := run(t, "get", "--config", filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil || !strings.Contains(err.Error(), "insecure URL") {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.Contains(out, "metafetch") {
		t.Errorf("unexpected output: %s", out)
	}
}
