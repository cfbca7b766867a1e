// Package analytics aggregates reading activity per user.
package analytics

import (
	"fmt"
	"math"
	"time"

	"greatreads/pkg/models"

	"gorm.io/gorm"
)

// Stats summarizes a user's reading over several trailing windows.
type Stats struct {
	BooksLastMonth   int64   `json:"books_last_month"`
	BooksLast3Months int64   `json:"books_last_3_months"`
	BooksLast6Months int64   `json:"books_last_6_months"`
	BooksLastYear    int64   `json:"books_last_year"`
	TotalCompleted   int64   `json:"total_completed"`
	TotalReading     int64   `json:"total_reading"`
	TotalToRead      int64   `json:"total_to_read"`
	TotalOnHold      int64   `json:"total_on_hold"`
	TotalDNF         int64   `json:"total_dnf"`
	AvgRating        float64 `json:"avg_rating"`
}

// ReadingStats computes completion counts for the last 30/90/180/365 days,
// totals per status, and the average rating of rated completed books.
func ReadingStats(db *gorm.DB, userID uint) (*Stats, error) {
	now := time.Now().UTC()
	stats := &Stats{}

	windows := []struct {
		days int
		dest *int64
	}{
		{30, &stats.BooksLastMonth},
		{90, &stats.BooksLast3Months},
		{180, &stats.BooksLast6Months},
		{365, &stats.BooksLastYear},
	}
	for _, w := range windows {
		since := now.AddDate(0, 0, -w.days)
		err := db.Model(&models.Book{}).
			Where("user_id = ? AND status = ? AND completion_date >= ? AND completion_date <= ?",
				userID, models.StatusCompleted, since, now).
			Count(w.dest).Error
		if err != nil {
			return nil, fmt.Errorf("count completions: %w", err)
		}
	}

	totals := []struct {
		status models.BookStatus
		dest   *int64
	}{
		{models.StatusCompleted, &stats.TotalCompleted},
		{models.StatusReading, &stats.TotalReading},
		{models.StatusToRead, &stats.TotalToRead},
		{models.StatusOnHold, &stats.TotalOnHold},
		{models.StatusDNF, &stats.TotalDNF},
	}
	for _, t := range totals {
		err := db.Model(&models.Book{}).
			Where("user_id = ? AND status = ?", userID, t.status).
			Count(t.dest).Error
		if err != nil {
			return nil, fmt.Errorf("count by status: %w", err)
		}
	}

	var avg *float64
	err := db.Model(&models.Book{}).
		Where("user_id = ? AND status = ? AND rating IS NOT NULL", userID, models.StatusCompleted).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}
	if avg != nil {
		stats.AvgRating = math.Round(*avg*10) / 10
	}

	return stats, nil
}

// MonthlyCount is the number of books completed in one calendar month.
type MonthlyCount struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"` // e.g. "Jan 2026"
	Count int    `json:"count"`
}

// MonthlyReadingData buckets completions per calendar month for the
// trailing 12 months, oldest first. Bucketing happens in code so the query
// stays portable between postgres and the sqlite test driver.
func MonthlyReadingData(db *gorm.DB, userID uint) ([]MonthlyCount, error) {
	now := time.Now().UTC()
	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	var completed []models.Book
	err := db.Where("user_id = ? AND status = ? AND completion_date >= ?",
		userID, models.StatusCompleted, firstMonth).
		Find(&completed).Error
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	counts := make(map[string]int)
	for _, book := range completed {
		if book.CompletionDate == nil {
			continue
		}
		counts[book.CompletionDate.UTC().Format("2006-01")]++
	}

	result := make([]MonthlyCount, 0, 12)
	for i := 0; i < 12; i++ {
		month := firstMonth.AddDate(0, i, 0)
		result = append(result, MonthlyCount{
			Year:  month.Year(),
			Month: int(month.Month()),
			Label: month.Format("Jan 2006"),
			Count: counts[month.Format("2006-01")],
		})
	}
	return result, nil
}
