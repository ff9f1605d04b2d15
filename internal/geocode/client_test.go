package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partner-finder/internal/logger"
)

func newTestClient(serverURL string) *Client {
	return New(Config{BaseURL: serverURL}, logger.NewNop())
}

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/83702", r.URL.Path)
		w.Write([]byte(`{
			"post code": "83702",
			"country": "United States",
			"places": [
				{"place name": "Boise", "state": "Idaho", "state abbreviation": "ID"}
			]
		}`))
	}))
	defer server.Close()

	info, err := newTestClient(server.URL).Lookup(context.Background(), "83702")

	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "Boise", info.City)
	assert.Equal(t, "Idaho", info.State)
	assert.Equal(t, "ID", info.StateAbbr)
}

func TestLookupUnknownZip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	info, err := newTestClient(server.URL).Lookup(context.Background(), "00000")
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestLookupEmptyPlaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"places": []}`))
	}))
	defer server.Close()

	info, err := newTestClient(server.URL).Lookup(context.Background(), "99999")
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestLookupServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	info, err := newTestClient(server.URL).Lookup(context.Background(), "83702")
	assert.NoError(t, err)
	assert.Nil(t, info)
}
