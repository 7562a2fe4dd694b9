// Package config loads the dashboard configuration. Every upstream
// constant the aggregation pipeline depends on is configurable here, with
// defaults matching the deployed dashboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// CoverCollab is a hardcoded cover entry for collaborations with channels
// the video platform does not track.
type CoverCollab struct {
	VideoID     string `mapstructure:"video_id" yaml:"video_id"`
	Title       string `mapstructure:"title" yaml:"title"`
	ChannelName string `mapstructure:"channel_name" yaml:"channel_name"`
	PublishedAt string `mapstructure:"published_at" yaml:"published_at"`
}

// Config holds the central application configuration
type Config struct {
	// Holodex video platform access
	Holodex struct {
		BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
		APIKey    string `mapstructure:"api_key" yaml:"api_key"`
		ChannelID string `mapstructure:"channel_id" yaml:"channel_id"`
	} `mapstructure:"holodex" yaml:"holodex"`

	// Twitter mirror scraping
	Nitter struct {
		Username  string   `mapstructure:"username" yaml:"username"`
		Instances []string `mapstructure:"instances" yaml:"instances"`
		Proxies   []string `mapstructure:"proxies" yaml:"proxies"`
	} `mapstructure:"nitter" yaml:"nitter"`

	// Merchandise storefront scraping
	Shop struct {
		CollectionURL string   `mapstructure:"collection_url" yaml:"collection_url"`
		BaseURL       string   `mapstructure:"base_url" yaml:"base_url"`
		Proxies       []string `mapstructure:"proxies" yaml:"proxies"`
		Keywords      []string `mapstructure:"keywords" yaml:"keywords"`
	} `mapstructure:"shop" yaml:"shop"`

	// Content curation applied before dedup/ranking
	Curation struct {
		ExcludedVideoIDs []string      `mapstructure:"excluded_video_ids" yaml:"excluded_video_ids"`
		CoverBlocklist   []string      `mapstructure:"cover_blocklist" yaml:"cover_blocklist"`
		CoverCollabs     []CoverCollab `mapstructure:"cover_collabs" yaml:"cover_collabs"`
	} `mapstructure:"curation" yaml:"curation"`

	// Storage holds the key-value database path; empty means next to the
	// executable.
	Storage struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"storage" yaml:"storage"`
}

// Load loads the configuration from a file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	// If path is relative and missing, also try next to the executable.
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			if exePath, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exePath), path)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(cfg.Curation.CoverCollabs) == 0 {
		cfg.Curation.CoverCollabs = DefaultCoverCollabs()
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("holodex.base_url", "https://holodex.net/api/v2")
	v.SetDefault("holodex.api_key", "")
	v.SetDefault("holodex.channel_id", "UCP0BspO_AMEe3aQqqpo89Dg")

	v.SetDefault("nitter.username", "moonahoshinova")
	v.SetDefault("nitter.instances", []string{
		"https://nitter.moonaroh.com",
		"https://nitter.privacydev.net",
	})
	v.SetDefault("nitter.proxies", []string{
		"https://api.codetabs.com/v1/proxy?quest=",
	})

	v.SetDefault("shop.collection_url", "https://shop.hololivepro.com/en/collections/moonahoshinova")
	v.SetDefault("shop.base_url", "https://shop.hololivepro.com")
	v.SetDefault("shop.proxies", []string{
		"https://api.codetabs.com/v1/proxy?quest=",
		"https://corsproxy.io/?",
	})
	v.SetDefault("shop.keywords", []string{"moona", "hoshinova"})

	// Duplicate uploads the ranking rules cannot resolve on their own.
	v.SetDefault("curation.excluded_video_ids", []string{"opaixR7ZpIE", "Lbv8E-rzVW8"})
	v.SetDefault("curation.cover_blocklist", []string{
		"Amaya Miyu",
		"Rora Meeza",
		"AREA15 Original Song Medley",
	})

	v.SetDefault("storage.path", "")
}

// DefaultCoverCollabs returns the built-in non-vtuber cover collaboration
// entries, used when the config file does not override them.
func DefaultCoverCollabs() []CoverCollab {
	return []CoverCollab{
		{
			VideoID:     "W0_iSvXdM6c",
			Title:       "Synchronicity III: Requiem of the Endless World || Aoi Sora × @MoonaHoshinova",
			ChannelName: "Aoi Sora Channel",
			PublishedAt: "2020-06-08T05:00:14Z",
		},
	}
}
