package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResolveDataDirPrecedence(t *testing.T) {
	t.Setenv(EnvDataDir, "/env/data")

	got, err := ResolveDataDir("/flag/data", "/config/data")
	if err != nil {
		t.Fatalf("ResolveDataDir = %v", err)
	}
	if got != "/flag/data" {
		t.Errorf("flag should win: got %q", got)
	}

	got, err = ResolveDataDir("", "/config/data")
	if err != nil {
		t.Fatalf("ResolveDataDir = %v", err)
	}
	if got != "/config/data" {
		t.Errorf("config should win over env: got %q", got)
	}

	got, err = ResolveDataDir("", "")
	if err != nil {
		t.Fatalf("ResolveDataDir = %v", err)
	}
	if got != "/env/data" {
		t.Errorf("env should win over default: got %q", got)
	}
}

func TestResolveDataDirDefaultIsCWDRelative(t *testing.T) {
	t.Setenv(EnvDataDir, "")

	got, err := ResolveDataDir("", "")
	if err != nil {
		t.Fatalf("ResolveDataDir = %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd = %v", err)
	}
	if want := filepath.Join(cwd, DefaultDataDirName); got != want {
		t.Errorf("default data dir = %q, want %q", got, want)
	}
}

func TestResolveConfigDirEnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/env/config")

	got, err := ResolveConfigDir("")
	if err != nil {
		t.Fatalf("ResolveConfigDir = %v", err)
	}
	if got != "/env/config" {
		t.Errorf("env override = %q, want /env/config", got)
	}

	got, err = ResolveConfigDir("relative/dir")
	if err != nil {
		t.Fatalf("ResolveConfigDir = %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("flag result should be absolute: %q", got)
	}
}

func TestResolveConfigDirXDGDefault(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG paths apply to linux only")
	}
	t.Setenv(EnvConfigDir, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")

	got, err := ResolveConfigDir("")
	if err != nil {
		t.Fatalf("ResolveConfigDir = %v", err)
	}
	if want := "/xdg/config/larder"; got != want {
		t.Errorf("platform default = %q, want %q", got, want)
	}
}
