package main

import (
	"log"
	"net/http"

	"greatreads/pkg/analytics"
	"greatreads/pkg/auth"

	"github.com/gin-gonic/gin"
)

func (s *server) readingStats(c *gin.Context) {
	user := auth.CurrentUser(c)
	stats, err := analytics.ReadingStats(s.db, user.ID)
	if err != nil {
		log.Printf("Failed to compute reading stats for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *server) monthlyReading(c *gin.Context) {
	user := auth.CurrentUser(c)
	data, err := analytics.MonthlyReadingData(s.db, user.ID)
	if err != nil {
		log.Printf("Failed to compute monthly reading data for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": data})
}
