// Package openlibrary is a thin client for the Open Library search API.
// Calls are bounded by a client timeout and guarded by a circuit breaker;
// they must never run inside a database transaction.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"greatreads/pkg/breaker"
)

const (
	defaultBaseURL = "https://openlibrary.org"
	coversBaseURL  = "https://covers.openlibrary.org"
)

// SearchResult is a normalized search hit.
type SearchResult struct {
	Title            string   `json:"title"`
	Author           string   `json:"author"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
	Key              string   `json:"key,omitempty"`
	ISBN             string   `json:"isbn,omitempty"`
	PageCount        int      `json:"page_count,omitempty"`
	Publishers       []string `json:"publishers,omitempty"`
	Subjects         []string `json:"subjects,omitempty"`
	CoverURL         string   `json:"cover_url,omitempty"`
	OpenLibraryURL   string   `json:"ol_url,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *breaker.Breaker
}

// NewClient builds a client for the given base URL (empty for the public
// API). The breaker trips after repeated upstream failures so a degraded
// Open Library cannot stall book requests.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: breaker.New(5, 30*time.Second),
	}
}

type searchResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		Key              string   `json:"key"`
		CoverID          int      `json:"cover_i"`
		ISBN             []string `json:"isbn"`
		NumberOfPages    int      `json:"number_of_pages_median"`
		Publisher        []string `json:"publisher"`
		Subject          []string `json:"subject"`
		EditionKey       []string `json:"edition_key"`
	} `json:"docs"`
}

// Search queries Open Library and normalizes the result docs.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var results []SearchResult
	err := c.breaker.Execute(func() error {
		u := fmt.Sprintf("%s/search.json?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("openlibrary returned %d", resp.StatusCode)
		}

		var data searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return err
		}

		results = results[:0]
		for _, doc := range data.Docs {
			r := SearchResult{
				Title:            doc.Title,
				Author:           "Unknown Author",
				FirstPublishYear: doc.FirstPublishYear,
				Key:              doc.Key,
				PageCount:        doc.NumberOfPages,
				Publishers:       doc.Publisher,
			}
			if r.Title == "" {
				r.Title = "Unknown Title"
			}
			if len(doc.AuthorName) > 0 {
				r.Author = doc.AuthorName[0]
			}
			if len(doc.ISBN) > 0 {
				r.ISBN = doc.ISBN[0]
			}
			if len(doc.Subject) > 5 {
				r.Subjects = doc.Subject[:5]
			} else {
				r.Subjects = doc.Subject
			}
			r.CoverURL = coverURL(doc.CoverID, r.ISBN, doc.EditionKey)
			if doc.Key != "" {
				r.OpenLibraryURL = defaultBaseURL + doc.Key
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// coverURL picks the best available medium cover: cover id, then ISBN, then
// the first edition OLID.
func coverURL(coverID int, isbn string, editionKeys []string) string {
	if coverID != 0 {
		return coversBaseURL + "/b/id/" + strconv.Itoa(coverID) + "-M.jpg"
	}
	if isbn != "" {
		return coversBaseURL + "/b/isbn/" + url.PathEscape(isbn) + "-M.jpg"
	}
	if len(editionKeys) > 0 {
		return coversBaseURL + "/b/olid/" + url.PathEscape(editionKeys[0]) + "-M.jpg"
	}
	return ""
}
