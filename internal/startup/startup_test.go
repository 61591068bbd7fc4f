package startup

import (
	"runtime"
	"testing"
	"time"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version != Version {
		t.Errorf("Version = %s, want %s", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", info.GoVersion, runtime.Version())
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("OS/Arch = %s/%s", info.OS, info.Arch)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STARTUP_VAR", "value")
	if got := getEnv("TEST_STARTUP_VAR", "default"); got != "value" {
		t.Errorf("getEnv = %s, want value", got)
	}
	if got := getEnv("TEST_STARTUP_UNSET", "default"); got != "default" {
		t.Errorf("getEnv = %s, want default", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"false", true, false},
		{"1", false, true},
		{"0", true, false},
		{"", true, true},
		{"", false, false},
		{"garbage", true, true},
		{"garbage", false, false},
	}

	for _, tt := range tests {
		t.Setenv("TEST_STARTUP_BOOL", tt.value)
		if got := getEnvBool("TEST_STARTUP_BOOL", tt.defaultValue); got != tt.want {
			t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
		}
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"320", 320},
		{"", 100},
		{"-5", 100},
		{"0", 100},
		{"abc", 100},
	}

	for _, tt := range tests {
		t.Setenv("TEST_STARTUP_INT", tt.value)
		if got := getEnvInt("TEST_STARTUP_INT", 100); got != tt.want {
			t.Errorf("getEnvInt(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestGetEnvList(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 0},
		{"one", 1},
		{"one,two,three", 3},
		{" one , ,two, ", 2},
	}

	for _, tt := range tests {
		t.Setenv("TEST_STARTUP_LIST", tt.value)
		if got := getEnvList("TEST_STARTUP_LIST"); len(got) != tt.want {
			t.Errorf("getEnvList(%q) = %v, want %d entries", tt.value, got, tt.want)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IMAGES_DIR", dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ImagesDir != dir {
		t.Errorf("ImagesDir = %s, want %s", cfg.ImagesDir, dir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.SaveDebounce != 5*time.Second {
		t.Errorf("SaveDebounce = %v, want 5s", cfg.SaveDebounce)
	}
	if !cfg.CleanupOnStart {
		t.Error("CleanupOnStart should default to true")
	}
}

func TestLoadConfigInvalidDebounce(t *testing.T) {
	t.Setenv("IMAGES_DIR", t.TempDir())
	t.Setenv("SAVE_DEBOUNCE", "not-a-duration")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SaveDebounce != 5*time.Second {
		t.Errorf("SaveDebounce = %v, want fallback 5s", cfg.SaveDebounce)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/images/{path:.*}", "api/images"},
		{"/api/metadata", "api/metadata"},
		{"/healthz", "healthz"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
