package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() with missing file: %v", err)
	}

	if cfg.Holodex.ChannelID != "UCP0BspO_AMEe3aQqqpo89Dg" {
		t.Errorf("default channel id = %q", cfg.Holodex.ChannelID)
	}
	if cfg.Holodex.BaseURL != "https://holodex.net/api/v2" {
		t.Errorf("default holodex base = %q", cfg.Holodex.BaseURL)
	}
	if cfg.Nitter.Username != "moonahoshinova" {
		t.Errorf("default nitter username = %q", cfg.Nitter.Username)
	}
	if len(cfg.Nitter.Instances) != 2 {
		t.Errorf("default nitter instances = %v", cfg.Nitter.Instances)
	}
	if len(cfg.Shop.Proxies) != 2 {
		t.Errorf("default shop proxies = %v", cfg.Shop.Proxies)
	}
	if len(cfg.Curation.ExcludedVideoIDs) != 2 {
		t.Errorf("default excluded ids = %v", cfg.Curation.ExcludedVideoIDs)
	}
	if len(cfg.Curation.CoverCollabs) != 1 || cfg.Curation.CoverCollabs[0].VideoID != "W0_iSvXdM6c" {
		t.Errorf("default cover collabs = %+v", cfg.Curation.CoverCollabs)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	content := `
holodex:
  api_key: test-key
  channel_id: UCother
nitter:
  instances:
    - https://nitter.example
curation:
  cover_collabs:
    - video_id: abc123
      title: Some Cover
      channel_name: Other Channel
      published_at: "2021-01-01T00:00:00Z"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Holodex.APIKey != "test-key" {
		t.Errorf("APIKey = %q", cfg.Holodex.APIKey)
	}
	if cfg.Holodex.ChannelID != "UCother" {
		t.Errorf("ChannelID = %q", cfg.Holodex.ChannelID)
	}
	if len(cfg.Nitter.Instances) != 1 || cfg.Nitter.Instances[0] != "https://nitter.example" {
		t.Errorf("Instances = %v", cfg.Nitter.Instances)
	}
	// Untouched sections keep their defaults.
	if cfg.Nitter.Username != "moonahoshinova" {
		t.Errorf("Username = %q, expected default", cfg.Nitter.Username)
	}
	if len(cfg.Curation.CoverCollabs) != 1 || cfg.Curation.CoverCollabs[0].VideoID != "abc123" {
		t.Errorf("CoverCollabs = %+v, expected file override", cfg.Curation.CoverCollabs)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("holodex: ["), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed YAML")
	}
}
