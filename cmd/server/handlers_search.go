package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// searchBooks proxies Open Library search. The upstream call is guarded by
// a timeout and circuit breaker and never touches the database.
func (s *server) searchBooks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.openlib.Search(c.Request.Context(), query, limit)
	if err != nil {
		log.Printf("Book search failed for %q: %v", query, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Book search is temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
