package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", "/var/cache/test")

	cfg := Load("")

	if cfg.App.SocketPath != DefaultSocketPath {
		t.Errorf("expected default socket path, got %s", cfg.App.SocketPath)
	}
	if cfg.App.CacheDir != filepath.Join("/var/cache/test", "lyrics-pinyin") {
		t.Errorf("unexpected cache dir %s", cfg.App.CacheDir)
	}
	if cfg.Sync.PollInterval != 100*time.Millisecond || cfg.Sync.OffsetStep != 0.5 {
		t.Errorf("unexpected sync defaults %+v", cfg.Sync)
	}
	if cfg.LRCLib.MaxRetries != 0 {
		t.Errorf("expected no retries by default, got %d", cfg.LRCLib.MaxRetries)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("expected redis disabled by default, got %s", cfg.Redis.Addr)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "lyrics-pinyin", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	content := `
[app]
socket_path = "/run/user/1000/lyrics.sock"
log_level = "debug"

[sync]
poll_interval = "50ms"
offset_step = 0.25

[player]
name = "mpv"

[lrclib]
timeout = "3s"
max_retries = 2

[music]
providers = ["netease"]

[redis]
addr = "localhost:6379"
ttl = "bogus"

[i3block]
enabled = true
signal = 12
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if GetConfigPath() != path {
		t.Fatalf("expected config path %s, got %s", path, GetConfigPath())
	}

	cfg := Load("")

	if cfg.App.SocketPath != "/run/user/1000/lyrics.sock" || cfg.App.LogLevel != "debug" {
		t.Errorf("app section not applied: %+v", cfg.App)
	}
	if cfg.Sync.PollInterval != 50*time.Millisecond || cfg.Sync.OffsetStep != 0.25 {
		t.Errorf("sync section not applied: %+v", cfg.Sync)
	}
	if cfg.Player.Name != "mpv" || cfg.Player.Bin != "playerctl" {
		t.Errorf("player section not applied: %+v", cfg.Player)
	}
	if cfg.LRCLib.Timeout != 3*time.Second || cfg.LRCLib.MaxRetries != 2 {
		t.Errorf("lrclib section not applied: %+v", cfg.LRCLib)
	}
	if !reflect.DeepEqual(cfg.MusicProviders, []string{"netease"}) {
		t.Errorf("music providers not applied: %v", cfg.MusicProviders)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.TTL != 7*24*time.Hour {
		t.Errorf("redis section not applied or bad ttl accepted: %+v", cfg.Redis)
	}
	if !cfg.I3Block.Enabled || cfg.I3Block.Signal != 12 || cfg.I3Block.StatusFile != DefaultStatusFile {
		t.Errorf("i3block section not applied: %+v", cfg.I3Block)
	}
}

func TestLoadInvalidFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[app\nsocket_path = "), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.App.SocketPath != DefaultSocketPath {
		t.Errorf("expected defaults for broken config, got %s", cfg.App.SocketPath)
	}
}
