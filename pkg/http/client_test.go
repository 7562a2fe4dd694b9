package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	expected := &ClientConfig{
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 1 * time.Second,
		UserAgent:    "moonaroh-com/1.0",
		Headers:      make(map[string]string),
	}

	if !reflect.DeepEqual(config, expected) {
		t.Errorf("DefaultConfig() = %+v, expected %+v", config, expected)
	}

	// Verify headers map is properly initialized
	if config.Headers == nil {
		t.Error("DefaultConfig() Headers should not be nil")
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name   string
		config *ClientConfig
	}{
		{
			name:   "with nil config",
			config: nil,
		},
		{
			name:   "with default config",
			config: DefaultConfig(),
		},
		{
			name: "with custom config",
			config: &ClientConfig{
				Timeout:      5 * time.Second,
				MaxRetries:   2,
				RetryBackoff: 500 * time.Millisecond,
				UserAgent:    "custom-agent/1.0",
				Headers:      map[string]string{"Custom": "header"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.config)

			if client == nil {
				t.Fatal("NewClient() returned nil")
			}

			if client.client == nil {
				t.Error("NewClient() client.client should not be nil")
			}

			// When config is nil, should use default config
			if tt.config == nil {
				if !reflect.DeepEqual(client.config, DefaultConfig()) {
					t.Errorf("NewClient(nil) should use default config")
				}
			} else {
				if !reflect.DeepEqual(client.config, tt.config) {
					t.Errorf("NewClient() config = %+v, expected %+v", client.config, tt.config)
				}
			}

			if client.client.Timeout != client.config.Timeout {
				t.Errorf("NewClient() timeout = %v, expected %v", client.client.Timeout, client.config.Timeout)
			}
		})
	}
}

func TestBrowserHeaders(t *testing.T) {
	headers := BrowserHeaders()

	if headers["User-Agent"] == "" {
		t.Error("BrowserHeaders() should set a User-Agent")
	}
	if headers["Accept"] == "" {
		t.Error("BrowserHeaders() should set an Accept header")
	}
	if headers["Accept-Language"] == "" {
		t.Error("BrowserHeaders() should set an Accept-Language header")
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   bool
	}{
		{"200 OK - not retryable", http.StatusOK, false},
		{"400 Bad Request - not retryable", http.StatusBadRequest, false},
		{"403 Forbidden - not retryable", http.StatusForbidden, false},
		{"404 Not Found - not retryable", http.StatusNotFound, false},
		{"429 Too Many Requests - retryable", http.StatusTooManyRequests, true},
		{"500 Internal Server Error - retryable", http.StatusInternalServerError, true},
		{"502 Bad Gateway - retryable", http.StatusBadGateway, true},
		{"503 Service Unavailable - retryable", http.StatusServiceUnavailable, true},
		{"504 Gateway Timeout - retryable", http.StatusGatewayTimeout, true},
		{"505 HTTP Version Not Supported - not retryable", http.StatusHTTPVersionNotSupported, false},
		{"edge case: 0 status code", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsRetryableStatusCode(tt.statusCode)
			if result != tt.expected {
				t.Errorf("IsRetryableStatusCode(%d) = %v, expected %v",
					tt.statusCode, result, tt.expected)
			}
		})
	}
}

func TestGetWithContext_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Timeout:      5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		UserAgent:    "test/1.0",
	})

	resp, err := client.GetWithContext(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetWithContext() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GetWithContext() status = %d, expected 200", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("GetWithContext() made %d requests, expected 3", got)
	}
}

func TestGetWithContext_SetsConfiguredHeaders(t *testing.T) {
	var gotAgent, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Timeout:      5 * time.Second,
		RetryBackoff: time.Millisecond,
		UserAgent:    "test/1.0",
		Headers:      map[string]string{"X-Custom": "value"},
	})

	resp, err := client.GetWithContext(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetWithContext() error = %v", err)
	}
	resp.Body.Close()

	if gotAgent != "test/1.0" {
		t.Errorf("User-Agent = %q, expected %q", gotAgent, "test/1.0")
	}
	if gotCustom != "value" {
		t.Errorf("X-Custom = %q, expected %q", gotCustom, "value")
	}
}

func TestGetWithTimeout_Deadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Timeout:      5 * time.Second,
		RetryBackoff: time.Millisecond,
	})

	_, err := client.GetWithTimeout(context.Background(), server.URL, 50*time.Millisecond)
	if err == nil {
		t.Fatal("GetWithTimeout() expected timeout error, got nil")
	}
}
