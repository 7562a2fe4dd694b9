// Package main provides the CLI entry point for moonaroh.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/nawka12/moonaroh-com/internal/aggregator"
	"github.com/nawka12/moonaroh-com/internal/config"
	"github.com/nawka12/moonaroh-com/internal/holodex"
	"github.com/nawka12/moonaroh-com/internal/merch"
	"github.com/nawka12/moonaroh-com/internal/nitter"
	"github.com/nawka12/moonaroh-com/pkg/cache"
	httputil "github.com/nawka12/moonaroh-com/pkg/http"
	"github.com/nawka12/moonaroh-com/pkg/preview"
	"github.com/nawka12/moonaroh-com/pkg/store"
)

// checkTimeout bounds a full refresh pass.
const checkTimeout = 2 * time.Minute

// CLI structure
var CLI struct {
	Config string `help:"Configuration file path" default:"config.yaml"`
	Debug  bool   `help:"Enable debug logging" default:"false"`

	Check struct {
		JSON bool `help:"Print the full aggregated state as JSON" default:"false"`
	} `cmd:"check" help:"Run a full dashboard refresh pass."`

	Preview struct{} `cmd:"preview" help:"Browse the aggregated dashboard interactively."`

	Tweets struct {
		JSON bool `help:"Print posts as JSON" default:"false"`
	} `cmd:"tweets" help:"Fetch the latest posts from the social mirrors."`

	Merch struct {
		JSON bool `help:"Print listings as JSON" default:"false"`
	} `cmd:"merch" help:"Fetch the current merchandise listings."`

	Songs struct {
		JSON bool `help:"Print songs as JSON" default:"false"`
	} `cmd:"songs" help:"Fetch original songs and covers."`

	Status struct{} `cmd:"status" help:"Show cached data age and size per category."`

	Prefs struct {
		Mute   bool `help:"Mute dashboard audio" xor:"state"`
		Unmute bool `help:"Unmute dashboard audio" xor:"state"`
	} `cmd:"prefs" help:"Show or change stored preferences."`
}

// app holds the wired-up services for one invocation.
type app struct {
	cache *cache.Cache
	agg   *aggregator.Aggregator
	cfg   *config.Config
	close func()
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Configuration(kongyaml.Loader, "config.yaml", "~/.moonaroh/config.yaml"),
	)

	// Configure logging level based on debug flag
	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}

	a := buildApp(CLI.Config)
	defer a.close()

	runCtx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	switch ctx.Command() {
	case "check":
		runCheck(runCtx, a, CLI.Check.JSON)

	case "preview":
		status := a.agg.Check(runCtx)
		if err := preview.Run(preview.Entries(status), "Moona Hoshinova"); err != nil {
			slog.Error("Preview failed", "error", err)
			os.Exit(1)
		}

	case "tweets":
		result := a.agg.Tweets(runCtx)
		if CLI.Tweets.JSON {
			printJSON(result)
			return
		}
		if result.Error {
			fmt.Println(result.Message)
			return
		}
		fmt.Printf("%d posts (source: %s)\n", len(result.Tweets), result.Source)
		for _, tweet := range result.Tweets {
			fmt.Printf("  %s  %s\n", time.Unix(tweet.Timestamp, 0).UTC().Format("2006-01-02 15:04"), firstLine(tweet.Text))
		}

	case "merch":
		items := a.agg.Merch(runCtx)
		if CLI.Merch.JSON {
			printJSON(items)
			return
		}
		fmt.Printf("%d listings\n", len(items))
		for _, item := range items {
			fmt.Printf("  %s  %s\n", item.Price, item.Title)
		}

	case "songs":
		runSongs(runCtx, a, CLI.Songs.JSON)

	case "status":
		entries := a.cache.Status()
		if len(entries) == 0 {
			fmt.Println("Cache is empty")
			return
		}
		for _, entry := range entries {
			fmt.Printf("  %-14s %4d items, updated %s\n", entry.Key, entry.Items, entry.Timestamp.UTC().Format(time.RFC3339))
		}

	case "prefs":
		prefs := a.cache.GetPreferences()
		if CLI.Prefs.Mute || CLI.Prefs.Unmute {
			prefs.IsMuted = CLI.Prefs.Mute
			a.cache.SetPreferences(prefs)
		}
		fmt.Printf("muted: %v\n", prefs.IsMuted)

	default:
		panic(ctx.Command())
	}
}

// buildApp wires the shared services: storage, cache, HTTP client and the
// per-source fetchers behind the aggregator.
func buildApp(configPath string) *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var (
		st      store.Store
		cleanup = func() {}
	)
	path := cfg.Storage.Path
	if path == "" {
		path, err = store.DefaultPath()
	}
	if err == nil {
		if db, dbErr := store.OpenSQLite(path); dbErr == nil {
			st = db
			cleanup = func() {
				if closeErr := db.Close(); closeErr != nil {
					slog.Warn("Failed to close storage", "error", closeErr)
				}
			}
		} else {
			err = dbErr
		}
	}
	if st == nil {
		slog.Warn("Falling back to in-memory storage", "error", err)
		st = store.NewMemory()
	}

	c := cache.New(st)
	client := httputil.NewClient(httputil.DefaultConfig())

	videos := holodex.NewHTTPClient(client, cfg.Holodex.BaseURL, cfg.Holodex.APIKey)
	social := nitter.NewScraper(client, cfg.Nitter.Username, cfg.Nitter.Instances, cfg.Nitter.Proxies)
	goods := merch.NewService(client, c, merch.Config{
		ShopURL:  cfg.Shop.CollectionURL,
		ShopBase: cfg.Shop.BaseURL,
		Proxies:  cfg.Shop.Proxies,
		Keywords: cfg.Shop.Keywords,
	})
	goods.OnUpdate = func(items []merch.Item) {
		slog.Info("Merchandise refreshed in background", "items", len(items))
	}

	curation := aggregator.Curation{
		ExcludedVideoIDs: cfg.Curation.ExcludedVideoIDs,
		CoverBlocklist:   cfg.Curation.CoverBlocklist,
	}
	for _, collab := range cfg.Curation.CoverCollabs {
		curation.CoverCollabs = append(curation.CoverCollabs, aggregator.CoverCollab{
			VideoID:     collab.VideoID,
			Title:       collab.Title,
			ChannelName: collab.ChannelName,
			PublishedAt: collab.PublishedAt,
		})
	}

	agg := aggregator.New(videos, social, goods, c, cfg.Holodex.ChannelID, curation)
	return &app{cache: c, agg: agg, cfg: cfg, close: cleanup}
}

func runCheck(ctx context.Context, a *app, asJSON bool) {
	status := a.agg.Check(ctx)
	if asJSON {
		printJSON(status)
		return
	}

	fmt.Printf("live:      %d\n", len(status.Live))
	fmt.Printf("recent:    %d\n", len(status.Recent))
	fmt.Printf("collabs:   %d\n", len(status.Collabs))
	fmt.Printf("clips:     %d\n", len(status.Clips))
	fmt.Printf("originals: %d\n", len(status.Originals))
	fmt.Printf("covers:    %d\n", len(status.Covers))
	fmt.Printf("tweets:    %d\n", len(status.Tweets.Tweets))
	fmt.Printf("merch:     %d\n", len(status.Merch))

	if status.LatestActivity != nil {
		fmt.Printf("latest activity: %s\n", status.LatestActivity.UTC().Format(time.RFC3339))
	}
	for category, message := range status.Errors {
		fmt.Printf("error in %s: %s\n", category, message)
	}
}

func runSongs(ctx context.Context, a *app, asJSON bool) {
	originals, err := a.agg.Originals(ctx)
	if err != nil {
		slog.Error("Failed to fetch original songs", "error", err)
		os.Exit(1)
	}
	covers, err := a.agg.Covers(ctx)
	if err != nil {
		slog.Error("Failed to fetch cover songs", "error", err)
		os.Exit(1)
	}

	if asJSON {
		printJSON(map[string]any{"originals": originals, "covers": covers})
		return
	}

	fmt.Printf("originals (%d):\n", len(originals))
	for _, v := range originals {
		fmt.Printf("  %s  %s\n", holodex.LatestTime(v).Format("2006-01-02"), v.Title)
	}
	fmt.Printf("covers (%d):\n", len(covers))
	for _, v := range covers {
		fmt.Printf("  %s  %s\n", holodex.LatestTime(v).Format("2006-01-02"), v.Title)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("Failed to encode output", "error", err)
		os.Exit(1)
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
