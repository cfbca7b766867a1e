// Package books owns book records and the update policy applied to them.
// Every mutation is gated on ownership or a role permission and committed in
// a single transaction. Concurrent updates to the same book are last-commit-
// wins; there is no row version check.
package books

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"greatreads/pkg/models"
	"greatreads/pkg/roles"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a book does not exist.
	ErrNotFound = errors.New("book not found")
	// ErrPermissionDenied is returned when the acting user may not touch the
	// book.
	ErrPermissionDenied = errors.New("not authorized")
)

// ValidationError reports a user-correctable bad field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Store mediates all access to book rows.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateRequest carries raw form values for a new book.
type CreateRequest struct {
	Title           string
	Author          string
	Status          string
	Notes           string
	Rating          string
	Genres          string
	PublicationDate string
	PageCount       string
}

// Create inserts a book owned by the acting user. Creation counts as a
// transition into the initial status, so READING stamps start_date and
// COMPLETED stamps completion_date.
func (s *Store) Create(actor *models.User, req CreateRequest) (*models.Book, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "cannot be empty"}
	}
	author := strings.TrimSpace(req.Author)
	if author == "" {
		return nil, &ValidationError{Field: "author", Message: "cannot be empty"}
	}

	status := models.StatusToRead
	if strings.TrimSpace(req.Status) != "" {
		parsed, ok := models.ParseStatus(req.Status)
		if !ok {
			return nil, &ValidationError{Field: "status", Message: "invalid status"}
		}
		status = parsed
	}

	rating, err := parseRating(req.Rating)
	if err != nil {
		return nil, err
	}
	pageCount, err := parsePageCount(req.PageCount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	book := models.Book{
		Title:           title,
		Author:          author,
		Status:          status,
		Notes:           req.Notes,
		Rating:          rating,
		Genres:          parseGenres(req.Genres),
		PublicationDate: req.PublicationDate,
		PageCount:       pageCount,
		UserID:          actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	stampStatusDates(&book, status, now)

	if err := s.db.Create(&book).Error; err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return &book, nil
}

// Get returns a book visible to the acting user: its owner, or anyone
// holding view_all_books.
func (s *Store) Get(actor *models.User, id uint) (*models.Book, error) {
	var book models.Book
	if err := s.db.First(&book, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load book: %w", err)
	}
	if book.UserID != actor.ID && !roles.HasPermission(actor, roles.PermViewAllBooks) {
		return nil, ErrPermissionDenied
	}
	return &book, nil
}

// Delete removes a book. Only the owner or a holder of manage_all_books may
// delete; everyone else gets ErrPermissionDenied and the row is untouched.
func (s *Store) Delete(actor *models.User, id uint) error {
	var book models.Book
	if err := s.db.First(&book, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("load book: %w", err)
	}
	if book.UserID != actor.ID && !roles.HasPermission(actor, roles.PermManageAllBooks) {
		return ErrPermissionDenied
	}
	if err := s.db.Delete(&book).Error; err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// Filter holds optional list criteria; all present filters are AND-combined.
type Filter struct {
	Status string
	Title  string
	Author string
	Notes  string
	Rating string
}

// List returns the acting user's books, or every user's books when the actor
// holds view_all_books. Results are ordered most-recently-created first.
// A non-numeric or out-of-range rating filter is ignored rather than
// rejected, matching the list view's lenient handling.
func (s *Store) List(actor *models.User, f Filter) ([]models.Book, error) {
	query := s.db.Model(&models.Book{})

	if !roles.HasPermission(actor, roles.PermViewAllBooks) {
		query = query.Where("user_id = ?", actor.ID)
	}

	if f.Status != "" {
		status, ok := models.ParseStatus(f.Status)
		if !ok {
			return nil, &ValidationError{Field: "status", Message: "invalid status filter"}
		}
		query = query.Where("status = ?", status)
	}
	if f.Title != "" {
		query = query.Where("lower(title) LIKE ?", "%"+strings.ToLower(f.Title)+"%")
	}
	if f.Author != "" {
		query = query.Where("lower(author) LIKE ?", "%"+strings.ToLower(f.Author)+"%")
	}
	if f.Notes != "" {
		query = query.Where("lower(notes) LIKE ?", "%"+strings.ToLower(f.Notes)+"%")
	}
	if f.Rating != "" {
		if rating, err := strconv.Atoi(f.Rating); err == nil && rating >= 0 && rating <= 3 {
			query = query.Where("rating = ?", rating)
		}
	}

	var result []models.Book
	if err := query.Order("created_at DESC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return result, nil
}

// stampStatusDates fills in the sticky start/completion dates on entry into
// READING or COMPLETED. Dates already recorded are never touched.
func stampStatusDates(book *models.Book, newStatus models.BookStatus, now time.Time) {
	if newStatus == models.StatusReading && book.StartDate == nil {
		t := now
		book.StartDate = &t
	}
	if newStatus == models.StatusCompleted && book.CompletionDate == nil {
		t := now
		book.CompletionDate = &t
	}
}

// parseRating interprets a raw rating value. Empty and "null" clear the
// rating; anything else must be an integer in [0,3].
func parseRating(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	rating, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &ValidationError{Field: "rating", Message: "must be a valid integer between 0 and 3"}
	}
	if rating < 0 || rating > 3 {
		return nil, &ValidationError{Field: "rating", Message: "must be between 0 and 3"}
	}
	return &rating, nil
}

// parsePageCount interprets a raw page count. Empty clears; anything else
// must be an integer.
func parsePageCount(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	pages, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &ValidationError{Field: "page_count", Message: "must be a valid integer"}
	}
	return &pages, nil
}

// parseGenres splits a comma-separated genre string; empty input clears the
// list.
func parseGenres(raw string) models.StringList {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out models.StringList
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}
