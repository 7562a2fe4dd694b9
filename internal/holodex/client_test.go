package holodex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httputil "github.com/nawka12/moonaroh-com/pkg/http"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := httputil.NewClient(&httputil.ClientConfig{
		Timeout:      5 * time.Second,
		RetryBackoff: time.Millisecond,
	})
	return NewHTTPClient(client, server.URL, "test-key"), server
}

func TestLiveVideos(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("channel_id")
		gotKey = r.Header.Get("X-APIKEY")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"v1","title":"Live now","status":"live","channel":{"name":"Ch"}}]`))
	})

	videos, err := c.LiveVideos(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("LiveVideos() error = %v", err)
	}

	if gotPath != "/live" {
		t.Errorf("path = %q, expected /live", gotPath)
	}
	if gotQuery != "UC123" {
		t.Errorf("channel_id = %q, expected UC123", gotQuery)
	}
	if gotKey != "test-key" {
		t.Errorf("X-APIKEY = %q, expected test-key", gotKey)
	}

	if len(videos) != 1 {
		t.Fatalf("LiveVideos() returned %d videos, expected 1", len(videos))
	}
	if videos[0].VideoID != "v1" || videos[0].Status != StatusLive || videos[0].ChannelName != "Ch" {
		t.Errorf("LiveVideos() video = %+v", videos[0])
	}
}

func TestVideosByChannel(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	_, err := c.VideosByChannel(context.Background(), "UC123", "collabs", Options{Limit: 15})
	if err != nil {
		t.Fatalf("VideosByChannel() error = %v", err)
	}

	if gotPath != "/channels/UC123/collabs" {
		t.Errorf("path = %q, expected /channels/UC123/collabs", gotPath)
	}
	if got := gotQuery["limit"]; len(got) != 1 || got[0] != "15" {
		t.Errorf("limit = %v, expected [15]", got)
	}
}

func TestVideos_QueryShape(t *testing.T) {
	var gotQuery map[string][]string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	_, err := c.Videos(context.Background(), Options{
		MentionedChannelID: "UC123",
		Topic:              "Original_Song",
		Limit:              25,
		Sort:               "available_at",
		Order:              "desc",
	})
	if err != nil {
		t.Fatalf("Videos() error = %v", err)
	}

	expected := map[string]string{
		"mentioned_channel_id": "UC123",
		"topic":                "Original_Song",
		"limit":                "25",
		"sort":                 "available_at",
		"order":                "desc",
	}
	for key, want := range expected {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, expected %q", key, got, want)
		}
	}
}

func TestVideos_HTTPError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Videos(context.Background(), Options{ChannelID: "UC123"})
	if err == nil {
		t.Fatal("Videos() expected error on 403, got nil")
	}
}
