// Package holodex consumes the video platform API: given a channel id and
// filters, it returns a sequence of video records. The aggregation layer
// depends only on the Client capability, never on this HTTP implementation.
package holodex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	httputil "github.com/nawka12/moonaroh-com/pkg/http"
)

// DefaultBaseURL is the public v2 API endpoint.
const DefaultBaseURL = "https://holodex.net/api/v2"

// Options filters a video listing.
type Options struct {
	ChannelID          string
	MentionedChannelID string
	Topic              string
	Limit              int
	Sort               string
	Order              string
}

// Client is the video-platform listing capability.
type Client interface {
	// LiveVideos lists live and upcoming videos for a channel.
	LiveVideos(ctx context.Context, channelID string) ([]Video, error)
	// VideosByChannel lists a channel's videos of one kind
	// (videos, clips or collabs).
	VideosByChannel(ctx context.Context, channelID, kind string, opts Options) ([]Video, error)
	// Videos lists videos across channels by the given filters.
	Videos(ctx context.Context, opts Options) ([]Video, error)
}

// HTTPClient implements Client against the Holodex HTTP API.
type HTTPClient struct {
	client  *httputil.Client
	baseURL string
	apiKey  string
}

// NewHTTPClient creates an API client. An empty baseURL uses the public
// endpoint.
func NewHTTPClient(client *httputil.Client, baseURL, apiKey string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

// LiveVideos implements Client.
func (c *HTTPClient) LiveVideos(ctx context.Context, channelID string) ([]Video, error) {
	query := url.Values{}
	query.Set("channel_id", channelID)
	return c.list(ctx, "/live", query)
}

// VideosByChannel implements Client.
func (c *HTTPClient) VideosByChannel(ctx context.Context, channelID, kind string, opts Options) ([]Video, error) {
	return c.list(ctx, fmt.Sprintf("/channels/%s/%s", channelID, kind), opts.query())
}

// Videos implements Client.
func (c *HTTPClient) Videos(ctx context.Context, opts Options) ([]Video, error) {
	return c.list(ctx, "/videos", opts.query())
}

func (c *HTTPClient) list(ctx context.Context, path string, query url.Values) ([]Video, error) {
	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-APIKEY", c.apiKey)
	}

	resp, err := c.client.DoRequest(req)
	if err != nil {
		return nil, fmt.Errorf("video platform request failed: %w", err)
	}

	var raws []RawVideo
	if err := httputil.DecodeJSONResponse(resp, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode video listing: %w", err)
	}

	videos := make([]Video, 0, len(raws))
	for _, raw := range raws {
		videos = append(videos, fromRaw(raw))
	}
	return videos, nil
}

func (o Options) query() url.Values {
	query := url.Values{}
	if o.ChannelID != "" {
		query.Set("channel_id", o.ChannelID)
	}
	if o.MentionedChannelID != "" {
		query.Set("mentioned_channel_id", o.MentionedChannelID)
	}
	if o.Topic != "" {
		query.Set("topic", o.Topic)
	}
	if o.Limit > 0 {
		query.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Sort != "" {
		query.Set("sort", o.Sort)
	}
	if o.Order != "" {
		query.Set("order", o.Order)
	}
	return query
}
