package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-api-key", WithBaseURL(srv.URL))
	return srv, c
}

func TestScrape(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantTitle  string
		wantErr    bool
		wantAPIErr bool
		wantStatus int
	}{
		{
			name: "happy path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/scrape", r.URL.Path)
				assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req ScrapeRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "https://happy-hounds-boarding.co.uk", req.URL)
				assert.Equal(t, []string{"markdown", "html"}, req.Formats)
				assert.Equal(t, 3000, req.WaitFor)
				assert.False(t, req.OnlyMainContent)

				json.NewEncoder(w).Encode(ScrapeResponse{
					Success: true,
					Data: PageData{
						Markdown: "# Happy Hounds\n\nBoarding from 25 per night",
						HTML:     "<html><body>Happy Hounds</body></html>",
						Metadata: Metadata{
							Title:       "Happy Hounds Boarding",
							Description: "Dog boarding in Kent",
							SourceURL:   "https://happy-hounds-boarding.co.uk",
							StatusCode:  200,
							CreditsUsed: 1,
						},
					},
				})
			},
			wantTitle: "Happy Hounds Boarding",
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limited"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 429,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusGatewayTimeout)
				w.Write([]byte(`{"error":"render timed out"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 504,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, tt.handler)
			resp, err := c.Scrape(context.Background(), ScrapeRequest{
				URL:     "https://happy-hounds-boarding.co.uk",
				Formats: []string{"markdown", "html"},
				WaitFor: 3000,
			})

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantAPIErr {
					var apiErr *APIError
					require.ErrorAs(t, err, &apiErr)
					assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				}
				return
			}
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantTitle, resp.Data.Metadata.Title)
			assert.Equal(t, 1, resp.Data.Metadata.CreditsUsed)
		})
	}
}

func TestExtract(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/extract", r.URL.Path)

		var req ExtractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"https://example-kennels.co.uk/prices"}, req.URLs)
		assert.NotEmpty(t, req.Schema)
		assert.Contains(t, req.Prompt, "boarding")

		json.NewEncoder(w).Encode(ExtractResponse{Success: true, ID: "ext-123"})
	})

	schema := json.RawMessage(`{"type":"object"}`)
	resp, err := c.Extract(context.Background(), ExtractRequest{
		URLs:   []string{"https://example-kennels.co.uk/prices"},
		Schema: schema,
		Prompt: "Extract boarding rates",
	})
	require.NoError(t, err)
	assert.Equal(t, "ext-123", resp.ID)
}

func TestExtract_SchemaOmittedWhenNil(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, hasSchema := raw["schema"]
		assert.False(t, hasSchema, "nil schema must be omitted from the request body")

		json.NewEncoder(w).Encode(ExtractResponse{Success: true, ID: "ext-456"})
	})

	_, err := c.Extract(context.Background(), ExtractRequest{
		URLs:   []string{"https://example.co.uk"},
		Prompt: "prompt only",
	})
	require.NoError(t, err)
}

func TestGetExtractStatus(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus string
		wantData   bool
	}{
		{
			name: "completed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/extract/ext-123", r.URL.Path)

				json.NewEncoder(w).Encode(ExtractStatusResponse{
					Status:      "completed",
					Data:        json.RawMessage(`{"business_name":"Acme Kennels"}`),
					CreditsUsed: 4,
				})
			},
			wantStatus: "completed",
			wantData:   true,
		},
		{
			name: "processing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(ExtractStatusResponse{Status: "processing"})
			},
			wantStatus: "processing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, tt.handler)
			resp, err := c.GetExtractStatus(context.Background(), "ext-123")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.Status)
			if tt.wantData {
				assert.NotEmpty(t, resp.Data)
			}
		})
	}
}

func TestCrawl(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crawl", r.URL.Path)

		var req CrawlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example-kennels.co.uk", req.URL)
		require.NotNil(t, req.ScrapeOptions)
		assert.Equal(t, []string{"markdown", "html"}, req.ScrapeOptions.Formats)

		json.NewEncoder(w).Encode(CrawlResponse{Success: true, ID: "crawl-789"})
	})

	resp, err := c.Crawl(context.Background(), CrawlRequest{
		URL:           "https://example-kennels.co.uk",
		ScrapeOptions: &ScrapeOptions{Formats: []string{"markdown", "html"}, WaitFor: 3000},
	})
	require.NoError(t, err)
	assert.Equal(t, "crawl-789", resp.ID)
}

func TestGetCrawlStatus(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crawl/crawl-789", r.URL.Path)

		json.NewEncoder(w).Encode(CrawlStatusResponse{
			Status:      "completed",
			Total:       2,
			CreditsUsed: 2,
			Data: []PageData{
				{Markdown: "# Home", Metadata: Metadata{Title: "Home", SourceURL: "https://example-kennels.co.uk"}},
				{Markdown: "# Prices", Metadata: Metadata{Title: "Prices", SourceURL: "https://example-kennels.co.uk/prices"}},
			},
		})
	})

	resp, err := c.GetCrawlStatus(context.Background(), "crawl-789")
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.CreditsUsed)
}

func TestContextCancellation(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should have been cancelled")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Scrape(ctx, ScrapeRequest{URL: "https://example.co.uk"})
	require.Error(t, err)
}

func TestMalformedJSON(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{not json`))
	})

	_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://example.co.uk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()
	e := &APIError{StatusCode: 429, Body: `{"error":"rate limited"}`}
	assert.Equal(t, `firecrawl: HTTP 429: {"error":"rate limited"}`, e.Error())
}

func TestAPIError_Kind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status int
		want   FailureKind
	}{
		{408, FailureTimeout},
		{504, FailureTimeout},
		{403, FailureBlocked},
		{429, FailureBlocked},
		{404, FailureNotFound},
		{500, FailureVendor},
	}
	for _, tt := range tests {
		e := &APIError{StatusCode: tt.status}
		assert.Equal(t, tt.want, e.Kind(), "status %d", tt.status)
	}
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()
	customClient := &http.Client{}
	c := NewClient("key", WithHTTPClient(customClient))
	hc := c.(*httpClient)
	assert.Equal(t, customClient, hc.http)
}
