package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
	"docs": [
		{
			"title": "Dune",
			"author_name": ["Frank Herbert", "Someone Else"],
			"first_publish_year": 1965,
			"key": "/works/OL893415W",
			"cover_i": 12345,
			"isbn": ["9780441172719", "0441172717"],
			"number_of_pages_median": 412,
			"publisher": ["Chilton Books"],
			"subject": ["Science fiction", "Deserts", "Politics", "Ecology", "Religion", "Spice"]
		},
		{
			"title": "",
			"isbn": ["123"],
			"key": "/works/OL1W"
		},
		{
			"title": "Obscure Work",
			"edition_key": ["OL123M"]
		}
	]
}`

func TestSearchNormalizesDocs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	results, err := client.Search(context.Background(), "dune", 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	first := results[0]
	assert.Equal(t, "Dune", first.Title)
	assert.Equal(t, "Frank Herbert", first.Author)
	assert.Equal(t, 1965, first.FirstPublishYear)
	assert.Equal(t, "9780441172719", first.ISBN)
	assert.Equal(t, 412, first.PageCount)
	assert.Len(t, first.Subjects, 5)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/12345-M.jpg", first.CoverURL)
	assert.Equal(t, "https://openlibrary.org/works/OL893415W", first.OpenLibraryURL)

	second := results[1]
	assert.Equal(t, "Unknown Title", second.Title)
	assert.Equal(t, "Unknown Author", second.Author)
	assert.Equal(t, "https://covers.openlibrary.org/b/isbn/123-M.jpg", second.CoverURL)

	third := results[2]
	assert.Equal(t, "https://covers.openlibrary.org/b/olid/OL123M-M.jpg", third.CoverURL)
	assert.Empty(t, third.OpenLibraryURL)
}

func TestSearchClampsLimit(t *testing.T) {
	var seenLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"docs": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	for _, limit := range []int{0, -3, 51} {
		_, err := client.Search(context.Background(), "dune", limit)
		require.NoError(t, err)
		assert.Equal(t, "10", seenLimit)
	}
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Search(context.Background(), "dune", 5)
	assert.Error(t, err)
}

func TestSearchBreakerTripsAfterRepeatedFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	for i := 0; i < 6; i++ {
		_, err := client.Search(context.Background(), "dune", 5)
		require.Error(t, err)
	}
	upstreamCalls := calls

	// Breaker is open now; further searches fail fast without hitting the
	// server.
	_, err := client.Search(context.Background(), "dune", 5)
	assert.Error(t, err)
	assert.Equal(t, upstreamCalls, calls)
}

func TestCoverURLFallbackOrder(t *testing.T) {
	assert.Equal(t, "https://covers.openlibrary.org/b/id/7-M.jpg", coverURL(7, "111", []string{"OL1M"}))
	assert.Equal(t, "https://covers.openlibrary.org/b/isbn/111-M.jpg", coverURL(0, "111", []string{"OL1M"}))
	assert.Equal(t, "https://covers.openlibrary.org/b/olid/OL1M-M.jpg", coverURL(0, "", []string{"OL1M"}))
	assert.Empty(t, coverURL(0, "", nil))
}
