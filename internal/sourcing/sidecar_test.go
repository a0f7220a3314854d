package sourcing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	t.Run("posts the query and decodes listings", func(t *testing.T) {
		var got SearchRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/businesses", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "s3cret", r.Header.Get(SidecarSecretHeader))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(SearchResponse{
				Success: true,
				Businesses: []Business{
					{Name: "Acme Plumbing", Phone: "303-555-0100", Address: "1 Main St, Denver, CO 80202"},
				},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, WithSecret("s3cret"))
		resp, err := client.Search(context.Background(), SearchRequest{Query: "Plumbing", Location: "Denver, CO", Limit: 5, BrightDataToken: "tok"})
		require.NoError(t, err)
		require.Len(t, resp.Businesses, 1)
		assert.Equal(t, "Acme Plumbing", resp.Businesses[0].Name)
		assert.Equal(t, 60000, got.Timeout)
		assert.Equal(t, "tok", got.BrightDataToken)
	})

	t.Run("unsuccessful search is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(SearchResponse{Success: false, Error: "zone not found"})
		}))
		defer server.Close()

		_, err := NewClient(server.URL).Search(context.Background(), SearchRequest{Query: "Plumbing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "zone not found")
	})

	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := NewClient(server.URL).Search(context.Background(), SearchRequest{Query: "Plumbing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: "1.2.0", Uptime: 30})
	}))
	defer server.Close()

	health, err := NewClient(server.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestSampleBusinesses(t *testing.T) {
	first := SampleBusinesses("Denver, CO", "Plumbing", 10)
	again := SampleBusinesses("Denver, CO", "Plumbing", 10)
	require.Len(t, first, 10)
	assert.Equal(t, first, again)

	names := map[string]bool{}
	for _, b := range first {
		assert.NotEmpty(t, b.Phone)
		assert.Contains(t, b.Phone, "(303)")
		assert.Contains(t, b.Address, ", Denver, CO 80")
		assert.Contains(t, b.Name, "Plumbing")
		names[b.Name] = true
	}
	assert.Len(t, names, 10)

	other := SampleBusinesses("Austin, TX", "Roofing", 3)
	assert.NotEqual(t, first[0].Name, other[0].Name)
}
